package registry

// Registry holds the controller and service declarations of one application.
// Registration appends in declaration order and never validates; problems
// surface when the resolver or dispatcher consumes the declarations.
type Registry struct {
	controllers []*ControllerDescriptor
	services    []*ServiceDescriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// RegisterController appends controller declarations.
func (r *Registry) RegisterController(controllers ...*ControllerDescriptor) *Registry {
	r.controllers = append(r.controllers, controllers...)
	return r
}

// RegisterService appends service declarations. Several declarations may
// share a name.
func (r *Registry) RegisterService(services ...*ServiceDescriptor) *Registry {
	r.services = append(r.services, services...)
	return r
}

// Controllers returns every controller in declaration order.
func (r *Registry) Controllers() []*ControllerDescriptor {
	return append([]*ControllerDescriptor(nil), r.controllers...)
}

// Services returns every service declaration in declaration order.
func (r *Registry) Services() []*ServiceDescriptor {
	return append([]*ServiceDescriptor(nil), r.services...)
}

// ServicesNamed returns the variants declared under name.
func (r *Registry) ServicesNamed(name string) []*ServiceDescriptor {
	var out []*ServiceDescriptor
	for _, s := range r.services {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// ServiceNames returns each distinct service name once, ordered by first
// declaration.
func (r *Registry) ServiceNames() []string {
	seen := make(map[string]bool, len(r.services))
	var names []string
	for _, s := range r.services {
		if !seen[s.Name] {
			seen[s.Name] = true
			names = append(names, s.Name)
		}
	}
	return names
}
