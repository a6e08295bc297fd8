package di

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinels wrapped by the typed resolution errors, for use with errors.Is.
var (
	ErrNoServiceDeclared     = errors.New("no service declared")
	ErrNoMatchingEnvironment = errors.New("no service variant matches the environment")
	ErrAmbiguousService      = errors.New("ambiguous service")
	ErrCyclicDependency      = errors.New("cyclic dependency")
	ErrAutowire              = errors.New("autowiring failed")
)

// NoServiceDeclaredError is returned when nothing is declared under a name.
type NoServiceDeclaredError struct {
	Name string
}

func (e *NoServiceDeclaredError) Error() string {
	return fmt.Sprintf("di: no service declared under %q", e.Name)
}

func (e *NoServiceDeclaredError) Unwrap() error { return ErrNoServiceDeclared }

// NoMatchingEnvironmentError is returned when every declared variant of a
// service is excluded by the environment settings.
type NoMatchingEnvironmentError struct {
	Name     string
	Variants []string
	Settings map[string]string
}

func (e *NoMatchingEnvironmentError) Error() string {
	return fmt.Sprintf("di: no variant of %q matches environment %s (declared: %s)",
		e.Name, formatSettings(e.Settings), strings.Join(e.Variants, ", "))
}

func (e *NoMatchingEnvironmentError) Unwrap() error { return ErrNoMatchingEnvironment }

// AmbiguousServiceError is returned when more than one matching variant shares
// the highest specificity. Candidates lists exactly the tied variants.
type AmbiguousServiceError struct {
	Name        string
	Candidates  []string
	Specificity int
}

func (e *AmbiguousServiceError) Error() string {
	return fmt.Sprintf("di: service %q is ambiguous, %d variants match with %d constraint(s): %s",
		e.Name, len(e.Candidates), e.Specificity, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousServiceError) Unwrap() error { return ErrAmbiguousService }

// CyclicDependencyError is returned when a service depends on itself through
// a chain of autowired fields. Path starts and ends with the same name.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "di: cyclic dependency: " + strings.Join(e.Path, " -> ")
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// AutowireError is returned when a resolved dependency cannot be assigned to
// the declared field.
type AutowireError struct {
	Owner   string
	Field   string
	Service string
	Err     error
}

func (e *AutowireError) Error() string {
	return fmt.Sprintf("di: cannot autowire %q into %s.%s: %v", e.Service, e.Owner, e.Field, e.Err)
}

func (e *AutowireError) Unwrap() []error { return []error{ErrAutowire, e.Err} }

func formatSettings(settings map[string]string) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + settings[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
