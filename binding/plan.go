package binding

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidBinding is returned when an endpoint's bindings do not fit its
// declared parameter list.
var ErrInvalidBinding = errors.New("invalid parameter binding")

// Plan is the precomputed extraction plan of one endpoint.
type Plan struct {
	types          []TypeTag
	bindings       []ParameterBinding
	injectRequest  bool
	injectResponse bool
}

// NewPlan validates bindings against the declared types and decides which of
// positions 0 and 1 receive the implicit request and response.
func NewPlan(types []TypeTag, bindings []ParameterBinding) (*Plan, error) {
	claimed := make(map[int]bool, len(bindings))
	for i, b := range bindings {
		if b.Position < 0 || b.Position >= len(types) {
			return nil, fmt.Errorf("%w: binding %d targets position %d but the method declares %d parameters",
				ErrInvalidBinding, i, b.Position, len(types))
		}
		if claimed[b.Position] {
			return nil, fmt.Errorf("%w: position %d is bound more than once", ErrInvalidBinding, b.Position)
		}
		if b.Source == Custom && b.Extract == nil {
			return nil, fmt.Errorf("%w: custom binding at position %d has no extractor", ErrInvalidBinding, b.Position)
		}
		claimed[b.Position] = true
	}

	p := &Plan{
		types:    append([]TypeTag(nil), types...),
		bindings: append([]ParameterBinding(nil), bindings...),
	}
	p.injectRequest = len(types) > 0 && !claimed[0]
	p.injectResponse = len(types) > 1 && p.injectRequest && !claimed[1]
	return p, nil
}

// InjectsRequest reports whether position 0 receives the request.
func (p *Plan) InjectsRequest() bool { return p.injectRequest }

// InjectsResponse reports whether position 1 receives the response.
func (p *Plan) InjectsResponse() bool { return p.injectResponse }

// Arity is the number of declared parameters.
func (p *Plan) Arity() int { return len(p.types) }

// Bind builds the argument list for one request. Extractions run in
// declaration order and each one finishes before the next begins; the first
// extraction error aborts the binding.
func (p *Plan) Bind(ctx context.Context, req Request, resp Response) (Args, error) {
	args := make(Args, len(p.types))
	if p.injectRequest {
		args[0] = req
	}
	if p.injectResponse {
		args[1] = resp
	}

	for _, b := range p.bindings {
		switch b.Source {
		case RequestObject:
			args[b.Position] = req
			continue
		case ResponseObject:
			args[b.Position] = resp
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := extract(ctx, req, b)
		if err != nil {
			return nil, fmt.Errorf("extracting %s parameter at position %d: %w", b.Source, b.Position, err)
		}
		args[b.Position] = Coerce(raw, p.types[b.Position])
	}
	return args, nil
}

func extract(ctx context.Context, req Request, b ParameterBinding) (any, error) {
	switch b.Source {
	case PathParam:
		if v, ok := req.PathParam(b.Key); ok {
			return v, nil
		}
		return nil, nil
	case QueryParam:
		if v, ok := req.QueryParam(b.Key); ok {
			return v, nil
		}
		return nil, nil
	case BodyParam:
		body, err := req.Body()
		if err != nil {
			return nil, err
		}
		if b.Key == "" {
			return body, nil
		}
		if fields, ok := body.(map[string]any); ok {
			return fields[b.Key], nil
		}
		return nil, nil
	default:
		return b.Extract(ctx, req)
	}
}
