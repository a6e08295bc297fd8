package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ginjson "github.com/gin-gonic/gin/codec/json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/wirekit/binding"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/registry"
)

const jsonContentType = "application/json; charset=utf-8"

// ErrNoMethod is returned for an endpoint declared without a method.
var ErrNoMethod = errors.New("endpoint has no method")

// endpointHandler serves one endpoint. It holds no per-request state; the
// argument list of each request lives only for that request.
type endpointHandler struct {
	name   string
	method string
	route  string
	plan   *binding.Plan
	invoke registry.Method
	opts   *options
}

// NewHandler builds the Gin handler of ep on the controller ctl. The
// binding plan is computed once here; an invalid plan is returned as an
// error wrapping binding.ErrInvalidBinding.
func NewHandler(ctl *registry.ControllerDescriptor, ep *registry.EndpointDescriptor, opts ...Option) (gin.HandlerFunc, error) {
	name := ctl.Name + "." + ep.Name
	if ep.Invoke == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoMethod)
	}
	plan, err := binding.NewPlan(ep.Types, ep.Bindings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	h := &endpointHandler{
		name:   name,
		method: string(ep.Method),
		route:  "/" + ep.FullPath(ctl.BasePath),
		plan:   plan,
		invoke: ep.Invoke,
		opts:   newOptions(opts),
	}
	return h.serve, nil
}

func (h *endpointHandler) serve(c *gin.Context) {
	start := time.Now()
	ctx, span := h.opts.tracer.Start(c.Request.Context(), h.method+" "+h.route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(observability.AttrEndpoint, h.name),
			attribute.String(observability.AttrRoute, h.route),
			attribute.String(observability.AttrMethod, h.method),
		),
	)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if h.opts.metrics != nil {
		h.opts.metrics.Started(ctx, h.route)
	}

	ex := newExchange(c)
	result, err := h.handle(ctx, newRequest(ex), ginResponse{ex: ex})
	ex.close()

	var body []byte
	if err == nil && !c.Writer.Written() {
		body, err = h.encode(result)
	}

	outcome := observability.OutcomeOK
	switch {
	case err != nil:
		outcome = observability.OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.opts.errorHandler(c, err)
	case c.Writer.Written():
		outcome = observability.OutcomeComplete
	default:
		c.Data(http.StatusOK, jsonContentType, body)
	}

	status := c.Writer.Status()
	span.SetAttributes(attribute.Int(observability.AttrStatus, status))
	if h.opts.metrics != nil {
		h.opts.metrics.Finished(ctx, h.method, h.route, outcome, status, time.Since(start))
	}
	if err != nil {
		h.logFailure(ctx, status, err)
	}
}

// handle binds, invokes and awaits. Every error it returns is an
// *InvocationError.
func (h *endpointHandler) handle(ctx context.Context, req binding.Request, resp binding.Response) (any, error) {
	args, err := h.plan.Bind(ctx, req, resp)
	if err != nil {
		if h.opts.metrics != nil {
			h.opts.metrics.BindingFailed(ctx, h.route)
		}
		return nil, h.fail(StageBinding, err)
	}

	result, err := h.call(ctx, args)
	if err != nil {
		return nil, h.fail(StageInvocation, err)
	}

	for {
		d, ok := result.(Deferred)
		if !ok {
			break
		}
		if result, err = d.Await(ctx); err != nil {
			return nil, h.fail(StageAwait, err)
		}
	}

	if result == nil {
		result = ""
	}
	return result, nil
}

// encode formats and marshals a result before anything is written, so a
// failure still reaches the error handler.
func (h *endpointHandler) encode(result any) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body, err = nil, h.fail(StageEncoding, newPanicError(r))
		}
	}()
	body, err = ginjson.API.Marshal(h.opts.formatter(result))
	if err != nil {
		return nil, h.fail(StageEncoding, err)
	}
	return body, nil
}

func (h *endpointHandler) call(ctx context.Context, args binding.Args) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, newPanicError(r)
		}
	}()
	return h.invoke(ctx, args)
}

func (h *endpointHandler) fail(stage Stage, err error) error {
	return &InvocationError{
		Endpoint: h.name,
		Method:   h.method,
		Path:     h.route,
		Stage:    stage,
		Err:      err,
	}
}

func (h *endpointHandler) logFailure(ctx context.Context, status int, err error) {
	fields := map[string]interface{}{
		logger.FieldEndpoint: h.name,
		logger.FieldStatus:   status,
		logger.FieldError:    err.Error(),
	}
	log := h.opts.log.WithContext(ctx)
	var pe *PanicError
	switch {
	case errors.As(err, &pe):
		fields["stack"] = string(pe.Stack)
		log.Error("Endpoint panicked", fields)
	case status >= http.StatusInternalServerError:
		log.Error("Endpoint failed", fields)
	default:
		log.Debug("Endpoint rejected request", fields)
	}
}
