package binding

import (
	"context"
	"net/http"
	"net/url"
)

// TypeTag is the declared coercion target of one argument position.
type TypeTag int

const (
	Other TypeTag = iota // passed through unchanged
	Boolean
	Number
	String
)

// String returns the tag name as shown in endpoint documentation.
func (t TypeTag) String() string {
	switch t {
	case Boolean:
		return "Boolean"
	case Number:
		return "Number"
	case String:
		return "String"
	default:
		return "Other"
	}
}

// Source identifies the request facet a binding reads from.
type Source int

const (
	PathParam Source = iota
	QueryParam
	BodyParam
	Custom
	// RequestObject and ResponseObject place the facets themselves at an
	// explicit position, bypassing coercion.
	RequestObject
	ResponseObject
)

func (s Source) String() string {
	switch s {
	case PathParam:
		return "path"
	case QueryParam:
		return "query"
	case BodyParam:
		return "body"
	case RequestObject:
		return "request"
	case ResponseObject:
		return "response"
	default:
		return "custom"
	}
}

// Request is the read side of an HTTP exchange as seen by extractors.
type Request interface {
	Context() context.Context
	// PathParam returns a route parameter; ok is false when the route has none.
	PathParam(key string) (string, bool)
	// QueryParam returns the first value of a query parameter.
	QueryParam(key string) (string, bool)
	Query() url.Values
	// Body returns the parsed request body (JSON document or form map), or
	// nil when the request carries no body.
	Body() (any, error)
	HTTP() *http.Request
}

// Response is the write side of an HTTP exchange.
type Response interface {
	JSON(status int, v any)
	// Completed reports whether a response has already been written.
	Completed() bool
	Writer() http.ResponseWriter
}

// Extractor produces the raw value of one argument. It may block; extractors
// of one endpoint run strictly one after another in declaration order.
type Extractor func(ctx context.Context, req Request) (any, error)

// ParameterBinding declares where the argument at Position comes from.
type ParameterBinding struct {
	Position int
	Source   Source
	// Key names the path/query parameter or body field. An empty key on a Body
	// binding selects the whole body.
	Key string
	// Extract is only set for Custom bindings.
	Extract Extractor
}

// Path binds a route parameter such as ":id".
func Path(position int, key string) ParameterBinding {
	return ParameterBinding{Position: position, Source: PathParam, Key: key}
}

// Query binds a query string parameter.
func Query(position int, key string) ParameterBinding {
	return ParameterBinding{Position: position, Source: QueryParam, Key: key}
}

// Body binds a top-level body field, or the whole body when key is empty.
func Body(position int, key string) ParameterBinding {
	return ParameterBinding{Position: position, Source: BodyParam, Key: key}
}

// Extract binds the result of an arbitrary extractor.
func Extract(position int, fn Extractor) ParameterBinding {
	return ParameterBinding{Position: position, Source: Custom, Extract: fn}
}

// InjectRequest places the request facet at position.
func InjectRequest(position int) ParameterBinding {
	return ParameterBinding{Position: position, Source: RequestObject}
}

// InjectResponse places the response facet at position, for methods that bind
// position 0 explicitly and still need the response.
func InjectResponse(position int) ParameterBinding {
	return ParameterBinding{Position: position, Source: ResponseObject}
}
