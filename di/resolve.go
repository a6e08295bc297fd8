package di

import "fmt"

// MustResolve resolves a service with type safety, panics on error.
//
// Example:
//
//	store := di.MustResolve[ItemStore](resolver, "itemStore")
func MustResolve[T any](c Container, name string) T {
	instance, err := c.Resolve(name)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", name, err))
	}
	result, ok := instance.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("di: service %s is %T, expected %T", name, instance, zero))
	}
	return result
}

// Resolve resolves a service with type safety, returns error on failure.
// The typed resolution errors stay reachable through errors.As.
//
// Example:
//
//	store, err := di.Resolve[ItemStore](resolver, "itemStore")
//	if err != nil {
//	    return fmt.Errorf("failed to get item store: %w", err)
//	}
func Resolve[T any](c Container, name string) (T, error) {
	var zero T
	instance, err := c.Resolve(name)
	if err != nil {
		return zero, fmt.Errorf("di: failed to resolve %s: %w", name, err)
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: service %s is %T, expected %T", name, instance, zero)
	}
	return result, nil
}

// TryResolve resolves a service, returns zero value and false if it cannot
// be resolved or has another type. Use this when a dependency is optional.
func TryResolve[T any](c Container, name string) (T, bool) {
	var zero T
	instance, err := c.Resolve(name)
	if err != nil {
		return zero, false
	}
	result, ok := instance.(T)
	if !ok {
		return zero, false
	}
	return result, true
}
