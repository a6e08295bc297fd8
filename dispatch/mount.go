package dispatch

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/registry"
)

// Route is one endpoint registration made by Mount.
type Route struct {
	Method   string
	Path     string
	Endpoint string
}

// Mount registers one handler per endpoint on router, controllers and
// endpoints in declaration order. Router panics such as conflicting
// patterns are returned as errors; routes mounted before the failure stay
// registered.
func Mount(router gin.IRoutes, controllers []*registry.ControllerDescriptor, opts ...Option) ([]Route, error) {
	o := newOptions(opts)
	routes := make([]Route, 0)
	for _, ctl := range controllers {
		for _, ep := range ctl.Endpoints {
			h, err := NewHandler(ctl, ep, opts...)
			if err != nil {
				return routes, err
			}
			r := Route{
				Method:   string(ep.Method),
				Path:     "/" + ep.FullPath(ctl.BasePath),
				Endpoint: ctl.Name + "." + ep.Name,
			}
			if err := register(router, r, h); err != nil {
				return routes, err
			}
			routes = append(routes, r)
			o.log.Debug("Endpoint mounted", map[string]interface{}{
				logger.FieldMethod:   r.Method,
				logger.FieldPath:     r.Path,
				logger.FieldEndpoint: r.Endpoint,
			})
		}
	}
	o.log.Info("Endpoints mounted", map[string]interface{}{
		"controllers": len(controllers),
		"routes":      len(routes),
	})
	return routes, nil
}

func register(router gin.IRoutes, r Route, h gin.HandlerFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("mounting %s %s (%s): %v", r.Method, r.Path, r.Endpoint, p)
		}
	}()
	router.Handle(r.Method, r.Path, h)
	return nil
}
