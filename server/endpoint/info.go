package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/wirekit/version"
)

var startTime = time.Now()

// Meta identifies the running service on the info endpoint.
type Meta struct {
	Name        string
	Environment string
	// Version is the configured service version; the build section carries
	// the version stamped into the binary.
	Version string
}

// Info reports service identity, build information and uptime.
func Info(meta Meta) gin.HandlerFunc {
	build := version.GetVersionInfo()
	return func(c *gin.Context) {
		uptime := time.Since(startTime)
		c.JSON(http.StatusOK, gin.H{
			"service":        meta.Name,
			"environment":    meta.Environment,
			"version":        meta.Version,
			"build":          build,
			"uptime":         uptime.Truncate(time.Second).String(),
			"uptime_seconds": int64(uptime.Seconds()),
			"timestamp":      now(),
		})
	}
}
