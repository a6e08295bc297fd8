package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/wirekit/component"
	"github.com/kbukum/wirekit/di"
	"github.com/kbukum/wirekit/dispatch"
)

// Summary renders the startup report of an application: components, the
// services the resolver picked, mounted routes and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a summary for the named service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Render writes the summary to w. Any argument may be nil or empty.
func (s *Summary) Render(ctx context.Context, w io.Writer, components *component.Registry, services []di.RegistrationInfo, routes []dispatch.Route) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if components != nil {
		all := components.All()
		if len(all) > 0 {
			fmt.Fprintf(w, "\n📊 Components\n")
			for i, c := range all {
				name, details := c.Name(), ""
				if d, ok := c.(component.Describable); ok {
					desc := d.Describe()
					if desc.Name != "" {
						name = desc.Name
					}
					details = desc.Details
					if desc.Port > 0 {
						details = fmt.Sprintf("%s (:%d)", details, desc.Port)
					}
				}
				line := name
				if details != "" {
					line += ": " + details
				}
				fmt.Fprintf(w, "   %s %s\n", branch(i, len(all)), line)
			}
		}
	}

	if len(services) > 0 {
		fmt.Fprintf(w, "\n⚙️  Services (%d)\n", len(services))
		for i, svc := range services {
			state := "ready"
			if !svc.Initialised {
				state = "pending"
			}
			fmt.Fprintf(w, "   %s %s → %s [%s]\n", branch(i, len(services)), svc.Name, svc.Variant, state)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Endpoints (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", branch(i, len(routes)), r.Method, r.Path, r.Endpoint)
		}
	}

	if system := systemRoutes(components, routes); len(system) > 0 {
		fmt.Fprintf(w, "\n🔧 System Routes (%d)\n", len(system))
		for i, r := range system {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", branch(i, len(system)), r.Method, r.Path, r.Handler)
		}
	}

	if components != nil {
		results := components.HealthAll(ctx)
		if len(results) > 0 {
			healthy := 0
			fmt.Fprintf(w, "\n🏥 Health Check\n")
			for i, h := range results {
				msg := ""
				if h.Message != "" {
					msg = " (" + h.Message + ")"
				}
				if h.Status == component.StatusHealthy {
					healthy++
				}
				fmt.Fprintf(w, "   %s %s %s: %s%s\n", branch(i, len(results)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
			}
			if healthy == len(results) {
				fmt.Fprintf(w, "\n✅ All components healthy (%d/%d)\n", healthy, len(results))
			} else {
				fmt.Fprintf(w, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(results))
			}
		}
	}

	fmt.Fprintln(w)
}

// systemRoutes collects the routes reported by route-providing components
// that are not mounted endpoints.
func systemRoutes(components *component.Registry, endpoints []dispatch.Route) []component.Route {
	if components == nil {
		return nil
	}
	mounted := make(map[string]bool, len(endpoints))
	for _, r := range endpoints {
		mounted[r.Method+" "+r.Path] = true
	}
	var out []component.Route
	for _, c := range components.All() {
		rp, ok := c.(component.RouteProvider)
		if !ok {
			continue
		}
		for _, r := range rp.Routes() {
			if !mounted[r.Method+" "+r.Path] {
				out = append(out, r)
			}
		}
	}
	return out
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
