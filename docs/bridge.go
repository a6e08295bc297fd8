package docs

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/registry"
	"github.com/kbukum/wirekit/server"
)

// Bridge exposes the registered endpoints to documentation consumers.
type Bridge struct {
	registry *registry.Registry
	comments CommentSource
}

// NewBridge creates a bridge over reg. A nil comments source leaves
// descriptions empty.
func NewBridge(reg *registry.Registry, comments CommentSource) *Bridge {
	return &Bridge{registry: reg, comments: comments}
}

// Endpoints lists the endpoints under prefix in declaration order. It fails
// with ErrNotReady while comments are still being indexed.
func (b *Bridge) Endpoints(prefix string) ([]EndpointDoc, error) {
	out := make([]EndpointDoc, 0)
	for _, ctl := range b.registry.Controllers() {
		for _, ep := range ctl.Endpoints {
			full := ep.FullPath(ctl.BasePath)
			if !MatchesPrefix(full, prefix) {
				continue
			}
			var comment MethodComment
			if b.comments != nil {
				c, err := b.comments.Comment(ctl.Name, ep.Name)
				if err != nil {
					return nil, err
				}
				comment = c
			}
			out = append(out, Describe(ctl, ep, comment))
		}
	}
	return out, nil
}

// Handler serves the endpoint listing as JSON. The optional "prefix" query
// parameter narrows it; while comments are not indexed it answers 503.
func Handler(b *Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoints, err := b.Endpoints(c.Query("prefix"))
		if errors.Is(err, ErrNotReady) {
			server.RespondWithError(c, apperrors.ServiceUnavailable("endpoint documentation").WithCause(err))
			return
		}
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondOKWithMeta(c, endpoints, &server.Meta{Total: len(endpoints)})
	}
}
