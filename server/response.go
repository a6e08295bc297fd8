package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/wirekit/errors"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries listing metadata.
type Meta struct {
	Total int `json:"total"`
}

// RespondWithError renders err through the shared error envelope. AppErrors
// keep their status and code, errors exposing StatusCode() keep their
// status, anything else becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	status, body := apperrors.Render(err)
	c.JSON(status, body)
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondOKWithMeta sends a 200 response with data and metadata.
func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}

// NotFound answers requests no route matches.
func NotFound(c *gin.Context) {
	RespondWithError(c, apperrors.RouteNotFound(c.Request.Method, c.Request.URL.Path))
}
