package di

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/registry"
)

// Initializer is implemented by services that need a hook once all their
// autowired fields are set.
type Initializer interface {
	OnInit() error
}

// Container is anything that resolves services by name.
type Container interface {
	Resolve(name string) (any, error)
}

// RegistrationInfo describes a resolved service for introspection.
type RegistrationInfo struct {
	Name        string
	Variant     string
	Initialised bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution events.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) {
		r.log = l.WithComponent("di")
	}
}

type instance struct {
	desc        *registry.ServiceDescriptor
	value       any
	initialised bool
}

// Resolver picks, builds and wires one singleton per service name for a
// single application. All resolution happens during startup; afterwards the
// cache is only read, so the resolver carries no locks.
type Resolver struct {
	reg       *registry.Registry
	settings  map[string]string
	instances map[string]*instance
	order     []string
	wiring    map[string]bool
	log       *logger.Logger
}

// NewResolver creates a resolver over the declarations in reg. The settings
// are copied; later changes to the caller's map have no effect.
func NewResolver(reg *registry.Registry, settings map[string]string, opts ...Option) *Resolver {
	r := &Resolver{
		reg:       reg,
		settings:  maps.Clone(settings),
		instances: make(map[string]*instance),
		wiring:    make(map[string]bool),
		log:       logger.GetGlobalLogger().WithComponent("di"),
	}
	if r.settings == nil {
		r.settings = map[string]string{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settings returns a copy of the environment settings.
func (r *Resolver) Settings() map[string]string {
	return maps.Clone(r.settings)
}

// Resolve returns the singleton for name, building and wiring it on first use.
func (r *Resolver) Resolve(name string) (any, error) {
	return r.resolve(name, nil)
}

// Wire autowires an instance that is not itself a service, typically a
// controller. fields maps field names to service names; fields tagged
// `wire:"name"` are added to them.
func (r *Resolver) Wire(target any, fields map[string]string) error {
	return r.inject(target, fields, nil)
}

// Registrations lists resolved services in resolution order.
func (r *Resolver) Registrations() []RegistrationInfo {
	out := make([]RegistrationInfo, 0, len(r.order))
	for _, name := range r.order {
		inst := r.instances[name]
		out = append(out, RegistrationInfo{
			Name:        name,
			Variant:     inst.desc.Variant,
			Initialised: inst.initialised,
		})
	}
	return out
}

func (r *Resolver) resolve(name string, path []string) (any, error) {
	if inst, ok := r.instances[name]; ok {
		if r.wiring[name] {
			return nil, &CyclicDependencyError{Path: cyclePath(path, name)}
		}
		return inst.value, nil
	}

	desc, err := r.selectVariant(name)
	if err != nil {
		return nil, err
	}

	inst := &instance{desc: desc, value: desc.New()}
	r.instances[name] = inst
	r.order = append(r.order, name)

	if err := r.initialise(name, inst, append(path, name)); err != nil {
		r.forget(name)
		return nil, err
	}

	r.log.Debug("Service resolved", map[string]interface{}{
		logger.FieldService: name,
		logger.FieldVariant: desc.Variant,
	})
	return inst.value, nil
}

// forget drops a service whose wiring failed so that it is never handed out
// half-wired.
func (r *Resolver) forget(name string) {
	delete(r.instances, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// selectVariant keeps the declarations of name that match the settings and
// returns the single most specific one.
func (r *Resolver) selectVariant(name string) (*registry.ServiceDescriptor, error) {
	declared := r.reg.ServicesNamed(name)
	if len(declared) == 0 {
		return nil, &NoServiceDeclaredError{Name: name}
	}

	var matching []*registry.ServiceDescriptor
	for _, d := range declared {
		if d.Matches(r.settings) {
			matching = append(matching, d)
		}
	}
	if len(matching) == 0 {
		return nil, &NoMatchingEnvironmentError{
			Name:     name,
			Variants: variants(declared),
			Settings: maps.Clone(r.settings),
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Specificity() > matching[j].Specificity()
	})
	top := matching[0].Specificity()
	tied := matching[:1]
	for _, d := range matching[1:] {
		if d.Specificity() != top {
			break
		}
		tied = append(tied, d)
	}
	if len(tied) > 1 {
		return nil, &AmbiguousServiceError{Name: name, Candidates: variants(tied), Specificity: top}
	}
	return matching[0], nil
}

func (r *Resolver) initialise(name string, inst *instance, path []string) error {
	r.wiring[name] = true
	defer delete(r.wiring, name)

	if err := r.inject(inst.value, inst.desc.AutowireFields, path); err != nil {
		return err
	}
	if init, ok := inst.value.(Initializer); ok {
		if err := init.OnInit(); err != nil {
			return fmt.Errorf("di: initialising %s: %w", name, err)
		}
	}
	inst.initialised = true
	return nil
}

// inject assigns every declared dependency of target, resolving (and so fully
// wiring) each one first.
func (r *Resolver) inject(target any, explicit map[string]string, path []string) error {
	owner := typeName(target)
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		if len(explicit) == 0 {
			return nil
		}
		return &AutowireError{Owner: owner, Err: errors.New("target is not a pointer to a struct")}
	}
	elem := v.Elem()

	fields := taggedFields(elem.Type())
	maps.Copy(fields, explicit)
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	for _, field := range names {
		service := fields[field]
		fv := elem.FieldByName(field)
		if !fv.IsValid() {
			return &AutowireError{Owner: owner, Field: field, Service: service, Err: errors.New("no such field")}
		}
		if !fv.CanSet() {
			return &AutowireError{Owner: owner, Field: field, Service: service, Err: errors.New("field is not exported")}
		}

		dep, err := r.resolve(service, path)
		if err != nil {
			return fmt.Errorf("di: autowiring %s.%s: %w", owner, field, err)
		}
		dv := reflect.ValueOf(dep)
		if !dv.IsValid() {
			return &AutowireError{Owner: owner, Field: field, Service: service, Err: errors.New("service resolved to nil")}
		}
		if !dv.Type().AssignableTo(fv.Type()) {
			return &AutowireError{Owner: owner, Field: field, Service: service,
				Err: fmt.Errorf("%s is not assignable to %s", dv.Type(), fv.Type())}
		}
		fv.Set(dv)
	}
	return nil
}

// taggedFields collects fields tagged `wire:"service"`. An empty tag value
// derives the service name from the field name; "-" skips the field.
func taggedFields(t reflect.Type) map[string]string {
	out := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := f.Tag.Lookup("wire")
		if !ok || name == "-" {
			continue
		}
		if name == "" {
			name = lowerFirst(f.Name)
		}
		out[f.Name] = name
	}
	return out
}

func cyclePath(path []string, name string) []string {
	for i, p := range path {
		if p == name {
			return append(append([]string(nil), path[i:]...), name)
		}
	}
	return append(append([]string(nil), path...), name)
}

func variants(descs []*registry.ServiceDescriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.Variant
	}
	return out
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
