package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"
	ginbinding "github.com/gin-gonic/gin/binding"

	"github.com/kbukum/wirekit/binding"
	apperrors "github.com/kbukum/wirekit/errors"
)

const maxMultipartMemory = 32 << 20

// ErrExchangeClosed is returned by facet operations that need the Gin
// context after the handler has returned.
var ErrExchangeClosed = errors.New("request already handled")

// exchange guards the Gin context shared by the facets of one request. Gin
// reuses contexts once the handler returns, so close fences off every later
// use, such as writes from a Go future that outlived its request.
type exchange struct {
	mu     sync.Mutex
	c      *gin.Context
	closed bool
}

func newExchange(c *gin.Context) *exchange {
	return &exchange{c: c}
}

// do runs fn with the context unless the exchange is closed.
func (e *exchange) do(fn func(c *gin.Context)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	fn(e.c)
	return true
}

func (e *exchange) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// ginRequest adapts a Gin context to binding.Request. Path parameters and
// the query are copied up front so they stay readable after the exchange
// closes; the body is parsed at most once.
type ginRequest struct {
	ex     *exchange
	req    *http.Request
	params gin.Params
	query  url.Values

	once sync.Once
	body any
	err  error
}

func newRequest(ex *exchange) *ginRequest {
	return &ginRequest{
		ex:     ex,
		req:    ex.c.Request,
		params: append(gin.Params(nil), ex.c.Params...),
		query:  ex.c.Request.URL.Query(),
	}
}

func (r *ginRequest) Context() context.Context { return r.req.Context() }

func (r *ginRequest) PathParam(key string) (string, bool) {
	return r.params.Get(key)
}

func (r *ginRequest) QueryParam(key string) (string, bool) {
	if vs, ok := r.query[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

func (r *ginRequest) Query() url.Values {
	return r.query
}

func (r *ginRequest) HTTP() *http.Request { return r.req }

// Body returns the decoded JSON document, or a map of first values for form
// posts. An empty body is nil; a malformed one is an INVALID_INPUT error.
func (r *ginRequest) Body() (any, error) {
	r.once.Do(func() {
		if !r.ex.do(func(c *gin.Context) { r.body, r.err = parseBody(c) }) {
			r.err = ErrExchangeClosed
		}
	})
	return r.body, r.err
}

func parseBody(c *gin.Context) (any, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	switch c.ContentType() {
	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, apperrors.InvalidBody(err)
		}
		return firstValues(c.Request.PostForm), nil
	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, apperrors.InvalidBody(err)
		}
		return firstValues(c.Request.MultipartForm.Value), nil
	}

	var doc any
	if err := c.ShouldBindBodyWith(&doc, ginbinding.JSON); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, apperrors.InvalidBody(err)
	}
	return doc, nil
}

func firstValues(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// ginResponse adapts a Gin context to binding.Response. Writes made after
// the exchange closed are dropped.
type ginResponse struct {
	ex *exchange
}

func (r ginResponse) JSON(status int, v any) {
	r.ex.do(func(c *gin.Context) { c.JSON(status, v) })
}

// Completed also reports true once the exchange has closed.
func (r ginResponse) Completed() bool {
	written := true
	r.ex.do(func(c *gin.Context) { written = c.Writer.Written() })
	return written
}

func (r ginResponse) Writer() http.ResponseWriter { return fencedWriter(r) }

// fencedWriter is the raw writer view of a ginResponse.
type fencedWriter struct {
	ex *exchange
}

func (w fencedWriter) Header() http.Header {
	h := http.Header{}
	w.ex.do(func(c *gin.Context) { h = c.Writer.Header() })
	return h
}

func (w fencedWriter) Write(b []byte) (int, error) {
	n, err := 0, ErrExchangeClosed
	w.ex.do(func(c *gin.Context) { n, err = c.Writer.Write(b) })
	return n, err
}

func (w fencedWriter) WriteHeader(status int) {
	w.ex.do(func(c *gin.Context) { c.Writer.WriteHeader(status) })
}

// GinContext returns the Gin context behind a request or response facet
// handed to an endpoint method, or nil for facets from elsewhere. The
// context is only valid until the endpoint's handler returns.
func GinContext(facet any) *gin.Context {
	switch f := facet.(type) {
	case *ginRequest:
		return f.ex.c
	case ginResponse:
		return f.ex.c
	default:
		return nil
	}
}

var (
	_ binding.Request     = (*ginRequest)(nil)
	_ binding.Response    = ginResponse{}
	_ http.ResponseWriter = fencedWriter{}
)
