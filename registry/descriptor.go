package registry

import (
	"context"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kbukum/wirekit/binding"
)

// HTTPMethod is one of the verbs an endpoint can be mounted under.
type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
	PATCH  HTTPMethod = "PATCH"
)

// Method is the uniform signature every endpoint method is invoked through.
// A nil result is sent as an empty string; a dispatch.Deferred result is
// awaited before it is written.
type Method func(ctx context.Context, args binding.Args) (any, error)

// Constraint is the set of setting values a service variant accepts for one key.
type Constraint []string

// Is accepts exactly one value.
func Is(value string) Constraint { return Constraint{value} }

// OneOf accepts any of the given values.
func OneOf(values ...string) Constraint { return Constraint(values) }

// Matches reports whether the setting satisfies the constraint. An absent
// setting never does.
func (c Constraint) Matches(value string, present bool) bool {
	if !present {
		return false
	}
	for _, v := range c {
		if v == value {
			return true
		}
	}
	return false
}

// ServiceDescriptor declares one implementation variant of a named service.
// Several descriptors may share a Name; the environment settings decide which
// one is instantiated.
type ServiceDescriptor struct {
	Name        string
	Variant     string
	Environment map[string]Constraint

	// AutowireFields maps a field name to the service injected into it.
	AutowireFields map[string]string
	New            func() any
}

// Service declares a service built by factory. An empty name is derived from
// T's type name with its first letter lower-cased.
func Service[T any](name string, factory func() T) *ServiceDescriptor {
	variant := typeName(reflect.TypeFor[T]())
	if name == "" {
		name = lowerFirst(variant)
	}
	return &ServiceDescriptor{
		Name:           name,
		Variant:        variant,
		Environment:    make(map[string]Constraint),
		AutowireFields: make(map[string]string),
		New:            func() any { return factory() },
	}
}

// When restricts the variant to settings where key has one of values.
func (d *ServiceDescriptor) When(key string, values ...string) *ServiceDescriptor {
	d.Environment[key] = Constraint(values)
	return d
}

// Autowire injects the named service into field after instantiation. An
// empty service name is derived from the field name.
func (d *ServiceDescriptor) Autowire(field, service string) *ServiceDescriptor {
	d.AutowireFields[field] = defaultDependency(field, service)
	return d
}

// Named overrides the variant label used in resolution errors.
func (d *ServiceDescriptor) Named(variant string) *ServiceDescriptor {
	d.Variant = variant
	return d
}

// Specificity is the number of constrained setting keys.
func (d *ServiceDescriptor) Specificity() int { return len(d.Environment) }

// Matches reports whether every constraint is satisfied by settings.
func (d *ServiceDescriptor) Matches(settings map[string]string) bool {
	for key, c := range d.Environment {
		value, ok := settings[key]
		if !c.Matches(value, ok) {
			return false
		}
	}
	return true
}

// EndpointDescriptor maps one HTTP method and path to one controller method.
type EndpointDescriptor struct {
	// Name is the Go method name; documentation comments are looked up by it.
	Name         string
	RelativePath string
	Method       HTTPMethod
	Types        []binding.TypeTag
	Bindings     []binding.ParameterBinding
	Invoke       Method
}

// FullPath joins the controller base path and the endpoint path.
func (e *EndpointDescriptor) FullPath(basePath string) string {
	return JoinPath(basePath, e.RelativePath)
}

// EndpointOption configures an endpoint declaration.
type EndpointOption func(*EndpointDescriptor)

// Params declares the type of every method parameter, implicit ones included.
func Params(types ...binding.TypeTag) EndpointOption {
	return func(e *EndpointDescriptor) {
		e.Types = append([]binding.TypeTag(nil), types...)
	}
}

// Bind declares explicit parameter sources.
func Bind(bindings ...binding.ParameterBinding) EndpointOption {
	return func(e *EndpointDescriptor) {
		e.Bindings = append(e.Bindings, bindings...)
	}
}

// ControllerDescriptor groups the endpoints of one controller value under a
// base path.
type ControllerDescriptor struct {
	Name           string
	BasePath       string
	Instance       any
	Endpoints      []*EndpointDescriptor
	AutowireFields map[string]string
}

// Controller declares instance as a controller mounted under basePath.
func Controller(basePath string, instance any) *ControllerDescriptor {
	return &ControllerDescriptor{
		Name:           typeName(reflect.TypeOf(instance)),
		BasePath:       basePath,
		Instance:       instance,
		AutowireFields: make(map[string]string),
	}
}

// Autowire injects the named service into a field of the controller.
func (c *ControllerDescriptor) Autowire(field, service string) *ControllerDescriptor {
	c.AutowireFields[field] = defaultDependency(field, service)
	return c
}

// Handle declares an endpoint. Endpoints keep their declaration order.
func (c *ControllerDescriptor) Handle(method HTTPMethod, name, path string, fn Method, opts ...EndpointOption) *ControllerDescriptor {
	ep := &EndpointDescriptor{
		Name:         name,
		RelativePath: path,
		Method:       method,
		Invoke:       fn,
	}
	for _, opt := range opts {
		opt(ep)
	}
	c.Endpoints = append(c.Endpoints, ep)
	return c
}

func (c *ControllerDescriptor) Get(name, path string, fn Method, opts ...EndpointOption) *ControllerDescriptor {
	return c.Handle(GET, name, path, fn, opts...)
}

func (c *ControllerDescriptor) Post(name, path string, fn Method, opts ...EndpointOption) *ControllerDescriptor {
	return c.Handle(POST, name, path, fn, opts...)
}

func (c *ControllerDescriptor) Put(name, path string, fn Method, opts ...EndpointOption) *ControllerDescriptor {
	return c.Handle(PUT, name, path, fn, opts...)
}

func (c *ControllerDescriptor) Delete(name, path string, fn Method, opts ...EndpointOption) *ControllerDescriptor {
	return c.Handle(DELETE, name, path, fn, opts...)
}

func (c *ControllerDescriptor) Patch(name, path string, fn Method, opts ...EndpointOption) *ControllerDescriptor {
	return c.Handle(PATCH, name, path, fn, opts...)
}

// Endpoint returns the endpoint declared under name, or nil.
func (c *ControllerDescriptor) Endpoint(name string) *EndpointDescriptor {
	for _, ep := range c.Endpoints {
		if ep.Name == name {
			return ep
		}
	}
	return nil
}

// JoinPath composes a base and a relative path into one slash-separated path
// without leading, trailing or repeated slashes.
func JoinPath(base, rel string) string {
	parts := strings.Split(base+"/"+rel, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func defaultDependency(field, service string) string {
	if service != "" {
		return service
	}
	return lowerFirst(field)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
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
