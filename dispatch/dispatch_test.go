package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/wirekit/binding"
	apperrors "github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type ItemController struct {
	mu   sync.Mutex
	seen binding.Args
}

func (c *ItemController) record(args binding.Args) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = args
}

type teapot struct{}

func (teapot) Error() string   { return "short and stout" }
func (teapot) StatusCode() int { return http.StatusTeapot }

// mount builds a router with the controller's endpoints mounted.
func mount(t *testing.T, ctl *registry.ControllerDescriptor, opts ...Option) *gin.Engine {
	t.Helper()
	engine := gin.New()
	if _, err := Mount(engine, []*registry.ControllerDescriptor{ctl}, opts...); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return engine
}

func do(engine http.Handler, method, target, contentType, body string) (*httptest.ResponseRecorder, any) {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, target, reader)
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	var decoded any
	_ = json.Unmarshal(rr.Body.Bytes(), &decoded)
	return rr, decoded
}

func errorCode(body any) string {
	m, _ := body.(map[string]any)
	e, _ := m["error"].(map[string]any)
	s, _ := e["code"].(string)
	return s
}

func TestPathParamWithInjectedResponse(t *testing.T) {
	c := &ItemController{}
	ctl := registry.Controller("/items/", c).
		Get("GetItem", "/:id", func(_ context.Context, args binding.Args) (any, error) {
			c.record(args)
			id, _ := args.Int(0)
			return map[string]any{"id": id}, nil
		},
			registry.Params(binding.Number, binding.Other),
			registry.Bind(binding.Path(0, "id"), binding.InjectResponse(1)))

	rr, body := do(mount(t, ctl), http.MethodGet, "/items/7", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if m, _ := body.(map[string]any); m["id"] != float64(7) {
		t.Errorf("body = %v", body)
	}
	if len(c.seen) != 2 || c.seen[0] != float64(7) {
		t.Fatalf("args = %#v", c.seen)
	}
	if c.seen.Response(1) == nil {
		t.Errorf("expected the response facet at position 1, got %#v", c.seen[1])
	}
}

func TestImplicitInjection(t *testing.T) {
	c := &ItemController{}
	ctl := registry.Controller("", c).
		Get("Raw", "raw/:name", func(_ context.Context, args binding.Args) (any, error) {
			c.record(args)
			req := args.Request(0)
			name, _ := req.PathParam("name")
			q, _ := req.QueryParam("q")
			return name + "/" + q, nil
		}, registry.Params(binding.Other, binding.Other))

	rr, body := do(mount(t, ctl), http.MethodGet, "/raw/bolt?q=m4", "", "")
	if rr.Code != http.StatusOK || body != "bolt/m4" {
		t.Fatalf("status=%d body=%v", rr.Code, body)
	}
	if c.seen.Request(0) == nil || c.seen.Response(1) == nil {
		t.Errorf("expected implicit request and response, got %#v", c.seen)
	}
	if GinContext(c.seen.Request(0)) == nil || GinContext(c.seen.Response(1)) == nil {
		t.Error("GinContext should unwrap both facets")
	}
	if GinContext("other") != nil {
		t.Error("GinContext of a foreign value should be nil")
	}
}

func TestCoercedQueryAndBody(t *testing.T) {
	c := &ItemController{}
	ctl := registry.Controller("items", c).
		Post("Create", "", func(_ context.Context, args binding.Args) (any, error) {
			c.record(args)
			return "ok", nil
		},
			registry.Params(binding.Other, binding.Other, binding.String, binding.Number, binding.Boolean, binding.Other),
			registry.Bind(
				binding.Body(2, "name"),
				binding.Body(3, "qty"),
				binding.Query(4, "notify"),
				binding.Body(5, ""),
			))
	engine := mount(t, ctl)

	rr, _ := do(engine, http.MethodPost, "/items?notify=Y", "application/json", `{"name":"bolt","qty":"12"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if c.seen[2] != "bolt" || c.seen[3] != float64(12) || c.seen[4] != true {
		t.Errorf("args = %#v", c.seen)
	}
	if whole, ok := c.seen[5].(map[string]any); !ok || whole["name"] != "bolt" {
		t.Errorf("whole body = %#v", c.seen[5])
	}

	form := url.Values{"name": {"nut", "ignored"}, "qty": {"abc"}}.Encode()
	rr, _ = do(engine, http.MethodPost, "/items", "application/x-www-form-urlencoded", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("form status = %d", rr.Code)
	}
	if c.seen[2] != "nut" || c.seen[3] != nil || c.seen[4] != nil {
		t.Errorf("form args = %#v", c.seen)
	}

	rr, _ = do(engine, http.MethodPost, "/items", "", "")
	if rr.Code != http.StatusOK || c.seen[2] != nil || c.seen[5] != nil {
		t.Errorf("empty body: status=%d args=%#v", rr.Code, c.seen)
	}
}

func TestMalformedBody(t *testing.T) {
	ctl := registry.Controller("items", &ItemController{}).
		Post("Create", "", func(context.Context, binding.Args) (any, error) {
			t.Error("method must not run when binding fails")
			return nil, nil
		}, registry.Params(binding.Other, binding.Other, binding.Other), registry.Bind(binding.Body(2, "")))

	rr, body := do(mount(t, ctl), http.MethodPost, "/items", "application/json", `{"name":`)
	if rr.Code != http.StatusBadRequest || errorCode(body) != "INVALID_INPUT" {
		t.Errorf("status=%d body=%v", rr.Code, body)
	}
}

func TestNilResultIsEmptyString(t *testing.T) {
	ctl := registry.Controller("", &ItemController{}).
		Delete("Remove", "items/:id", func(context.Context, binding.Args) (any, error) { return nil, nil })

	rr, _ := do(mount(t, ctl), http.MethodDelete, "/items/1", "", "")
	if rr.Code != http.StatusOK || rr.Body.String() != `""` {
		t.Errorf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestDeferredResults(t *testing.T) {
	ctl := registry.Controller("", &ItemController{}).
		Get("Later", "later", func(context.Context, binding.Args) (any, error) {
			return Go(func() (any, error) {
				time.Sleep(10 * time.Millisecond)
				return Resolved(map[string]any{"stock": 3}, nil), nil
			}), nil
		}).
		Get("Nothing", "nothing", func(context.Context, binding.Args) (any, error) {
			return Resolved(nil, nil), nil
		}).
		Get("Rejected", "rejected", func(context.Context, binding.Args) (any, error) {
			return Go(func() (any, error) { return nil, apperrors.Conflict("sold out") }), nil
		}).
		Get("Panics", "panics", func(context.Context, binding.Args) (any, error) {
			return Go(func() (any, error) { panic("deferred boom") }), nil
		})
	engine := mount(t, ctl)

	rr, body := do(engine, http.MethodGet, "/later", "", "")
	if m, _ := body.(map[string]any); rr.Code != http.StatusOK || m["stock"] != float64(3) {
		t.Errorf("later: status=%d body=%v", rr.Code, body)
	}

	rr, _ = do(engine, http.MethodGet, "/nothing", "", "")
	if rr.Body.String() != `""` {
		t.Errorf("nothing: body=%q", rr.Body.String())
	}

	rr, body = do(engine, http.MethodGet, "/rejected", "", "")
	if rr.Code != http.StatusConflict || errorCode(body) != "CONFLICT" {
		t.Errorf("rejected: status=%d body=%v", rr.Code, body)
	}

	rr, body = do(engine, http.MethodGet, "/panics", "", "")
	if rr.Code != http.StatusInternalServerError || errorCode(body) != "INTERNAL_ERROR" {
		t.Errorf("panics: status=%d body=%v", rr.Code, body)
	}
}

func TestFutureAwaitCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := Go(func() (any, error) {
		<-release
		return 1, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCompletedResponseIsNotRewritten(t *testing.T) {
	ctl := registry.Controller("", &ItemController{}).
		Post("Stream", "stream", func(_ context.Context, args binding.Args) (any, error) {
			args.Response(1).JSON(http.StatusCreated, map[string]any{"manual": true})
			return "ignored", nil
		}, registry.Params(binding.Other, binding.Other))

	rr, body := do(mount(t, ctl), http.MethodPost, "/stream", "", "")
	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if m, _ := body.(map[string]any); m["manual"] != true {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		fn     registry.Method
		status int
		code   string
	}{
		{"app error", func(context.Context, binding.Args) (any, error) {
			return nil, apperrors.NotFound("item", "7")
		}, http.StatusNotFound, "NOT_FOUND"},
		{"status coder", func(context.Context, binding.Args) (any, error) {
			return nil, fmt.Errorf("brewing: %w", teapot{})
		}, http.StatusTeapot, "REQUEST_FAILED"},
		{"plain error", func(context.Context, binding.Args) (any, error) {
			return nil, errors.New("disk on fire")
		}, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"panic", func(context.Context, binding.Args) (any, error) {
			panic("boom")
		}, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := registry.Controller("", &ItemController{}).Get("Fail", "fail", tt.fn)
			rr, body := do(mount(t, ctl), http.MethodGet, "/fail", "", "")
			if rr.Code != tt.status || errorCode(body) != tt.code {
				t.Errorf("status=%d body=%v, want %d %s", rr.Code, body, tt.status, tt.code)
			}
		})
	}
}

func TestErrorHandlerReceivesInvocationError(t *testing.T) {
	extractErr := errors.New("token missing")
	ctl := registry.Controller("", &ItemController{}).
		Get("Bound", "bound", func(context.Context, binding.Args) (any, error) { return nil, nil },
			registry.Params(binding.Other),
			registry.Bind(binding.Extract(0, func(context.Context, binding.Request) (any, error) {
				return nil, extractErr
			}))).
		Get("Panics", "panics", func(context.Context, binding.Args) (any, error) {
			panic(extractErr)
		})

	var got []*InvocationError
	engine := mount(t, ctl, WithErrorHandler(func(c *gin.Context, err error) {
		var ie *InvocationError
		if errors.As(err, &ie) {
			got = append(got, ie)
		}
		c.Status(http.StatusUnauthorized)
	}))

	rr, _ := do(engine, http.MethodGet, "/bound", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rr.Code)
	}
	do(engine, http.MethodGet, "/panics", "", "")

	if len(got) != 2 {
		t.Fatalf("expected 2 forwarded errors, got %d", len(got))
	}
	if got[0].Stage != StageBinding || !errors.Is(got[0], extractErr) || got[0].Endpoint != "ItemController.Bound" {
		t.Errorf("binding error = %+v", got[0])
	}
	var pe *PanicError
	if got[1].Stage != StageInvocation || !errors.As(got[1], &pe) || !errors.Is(got[1], extractErr) {
		t.Errorf("panic error = %+v", got[1])
	}
	if !strings.Contains(got[1].Error(), "GET /panics") {
		t.Errorf("message = %q", got[1].Error())
	}
}

func TestSequentialExtraction(t *testing.T) {
	var mu sync.Mutex
	var events []string
	logEvent := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}
	slow := func(_ context.Context, req binding.Request) (any, error) {
		logEvent("slow:start")
		done := Go(func() (any, error) {
			time.Sleep(20 * time.Millisecond)
			return "first", nil
		})
		v, err := done.Await(req.Context())
		logEvent("slow:end")
		return v, err
	}
	fast := func(context.Context, binding.Request) (any, error) {
		logEvent("fast")
		return "second", nil
	}

	c := &ItemController{}
	ctl := registry.Controller("", c).
		Get("Ordered", "ordered", func(_ context.Context, args binding.Args) (any, error) {
			c.record(args)
			return nil, nil
		},
			registry.Params(binding.String, binding.String),
			registry.Bind(binding.Extract(0, slow), binding.Extract(1, fast)))

	do(mount(t, ctl), http.MethodGet, "/ordered", "", "")

	want := []string{"slow:start", "slow:end", "fast"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", events, want)
	}
	if c.seen[0] != "first" || c.seen[1] != "second" {
		t.Errorf("args = %#v", c.seen)
	}
}

func TestFormatter(t *testing.T) {
	ctl := registry.Controller("", &ItemController{}).
		Get("Count", "count", func(context.Context, binding.Args) (any, error) { return 3, nil })
	engine := mount(t, ctl, WithFormatter(func(result any) any {
		return map[string]any{"data": result}
	}))

	rr, _ := do(engine, http.MethodGet, "/count", "", "")
	if rr.Body.String() != `{"data":3}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestEncodingFailureIsForwarded(t *testing.T) {
	ctl := registry.Controller("", &ItemController{}).
		Get("Infinite", "infinite", func(context.Context, binding.Args) (any, error) { return math.Inf(1), nil }).
		Get("Channel", "channel", func(context.Context, binding.Args) (any, error) { return make(chan int), nil })

	var got []*InvocationError
	engine := mount(t, ctl, WithErrorHandler(func(c *gin.Context, err error) {
		var ie *InvocationError
		if errors.As(err, &ie) {
			got = append(got, ie)
		}
		RespondWithError(c, err)
	}))

	for _, target := range []string{"/infinite", "/channel"} {
		rr, body := do(engine, http.MethodGet, target, "", "")
		if rr.Code != http.StatusInternalServerError || errorCode(body) != "INTERNAL_ERROR" {
			t.Errorf("%s: status=%d body=%s", target, rr.Code, rr.Body.String())
		}
	}
	if len(got) != 2 || got[0].Stage != StageEncoding || got[1].Stage != StageEncoding {
		t.Fatalf("forwarded = %+v", got)
	}
}

func TestFormatterPanicIsForwarded(t *testing.T) {
	ctl := registry.Controller("", &ItemController{}).
		Get("Count", "count", func(context.Context, binding.Args) (any, error) { return 3, nil })
	engine := mount(t, ctl, WithFormatter(func(any) any { panic("bad formatter") }))

	rr, body := do(engine, http.MethodGet, "/count", "", "")
	if rr.Code != http.StatusInternalServerError || errorCode(body) != "INTERNAL_ERROR" {
		t.Errorf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLateFutureWriteIsDropped(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan bool, 1)
	ctl := registry.Controller("", &ItemController{}).
		Delete("Remove", "items/:id", func(_ context.Context, args binding.Args) (any, error) {
			resp := args.Response(1)
			return Go(func() (any, error) {
				<-release
				resp.JSON(http.StatusAccepted, map[string]any{"deleted": true})
				_, err := resp.Writer().Write([]byte("late"))
				finished <- resp.Completed() && errors.Is(err, ErrExchangeClosed)
				return nil, nil
			}), nil
		}, registry.Params(binding.Other, binding.Other))
	engine := mount(t, ctl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodDelete, "/items/7", http.NoBody).WithContext(ctx)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	bodyBefore := rr.Body.String()

	// Serve another request so the pooled context is reused.
	do(engine, http.MethodGet, "/missing", "", "")

	close(release)
	if ok := <-finished; !ok {
		t.Error("writes after the handler returned should be dropped")
	}
	if rr.Code == http.StatusAccepted || rr.Body.String() != bodyBefore {
		t.Errorf("late write reached the response: status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRequestFacetAfterClose(t *testing.T) {
	var req binding.Request
	ctl := registry.Controller("", &ItemController{}).
		Post("Keep", "keep/:id", func(_ context.Context, args binding.Args) (any, error) {
			req = args.Request(0)
			return nil, nil
		}, registry.Params(binding.Other, binding.Other))

	do(mount(t, ctl), http.MethodPost, "/keep/9?q=x", "application/json", `{"a":1}`)

	if id, ok := req.PathParam("id"); !ok || id != "9" {
		t.Errorf("PathParam = %q, %v", id, ok)
	}
	if q, ok := req.QueryParam("q"); !ok || q != "x" {
		t.Errorf("QueryParam = %q, %v", q, ok)
	}
	if _, err := req.Body(); !errors.Is(err, ErrExchangeClosed) {
		t.Errorf("Body after close = %v, want ErrExchangeClosed", err)
	}
}

func TestMount(t *testing.T) {
	noop := func(context.Context, binding.Args) (any, error) { return nil, nil }
	items := registry.Controller("/items", &ItemController{}).
		Get("List", "", noop).
		Get("Get", ":id", noop).
		Put("Update", ":id", noop)
	health := registry.Controller("status", &struct{}{}).
		Get("Ping", "/", noop)

	routes, err := Mount(gin.New(), []*registry.ControllerDescriptor{items, health})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	want := []Route{
		{"GET", "/items", "ItemController.List"},
		{"GET", "/items/:id", "ItemController.Get"},
		{"PUT", "/items/:id", "ItemController.Update"},
		{"GET", "/status", ".Ping"},
	}
	if len(routes) != len(want) {
		t.Fatalf("routes = %+v", routes)
	}
	for i := range want {
		if routes[i] != want[i] {
			t.Errorf("route %d = %+v, want %+v", i, routes[i], want[i])
		}
	}
}

func TestMountErrors(t *testing.T) {
	noop := func(context.Context, binding.Args) (any, error) { return nil, nil }

	conflict := registry.Controller("items", &ItemController{}).
		Get("A", ":id", noop).
		Get("B", ":id", noop)
	routes, err := Mount(gin.New(), []*registry.ControllerDescriptor{conflict})
	if err == nil || !strings.Contains(err.Error(), "ItemController.B") {
		t.Errorf("expected a conflict error naming the endpoint, got %v", err)
	}
	if len(routes) != 1 {
		t.Errorf("routes mounted before the conflict = %+v", routes)
	}

	invalid := registry.Controller("items", &ItemController{}).
		Get("Bad", "", noop, registry.Params(binding.Number), registry.Bind(binding.Path(3, "id")))
	if _, err := Mount(gin.New(), []*registry.ControllerDescriptor{invalid}); !errors.Is(err, binding.ErrInvalidBinding) {
		t.Errorf("expected ErrInvalidBinding, got %v", err)
	}

	missing := registry.Controller("items", &ItemController{}).Get("None", "", nil)
	if _, err := Mount(gin.New(), []*registry.ControllerDescriptor{missing}); !errors.Is(err, ErrNoMethod) {
		t.Errorf("expected ErrNoMethod, got %v", err)
	}
}

func TestTracingAndMetrics(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	metrics, err := observability.NewEndpointMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewEndpointMetrics: %v", err)
	}

	ctl := registry.Controller("items", &ItemController{}).
		Get("Get", ":id", func(context.Context, binding.Args) (any, error) { return "ok", nil }).
		Get("Fail", "fail/:id", func(context.Context, binding.Args) (any, error) {
			return nil, apperrors.NotFound("item", "")
		})
	engine := mount(t, ctl, WithTracer(tp.Tracer("test")), WithMetrics(metrics))

	do(engine, http.MethodGet, "/items/1", "", "")
	do(engine, http.MethodGet, "/items/fail/1", "", "")

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "GET /items/:id" || spans[0].Status().Code == codes.Error {
		t.Errorf("span 0 = %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "GET /items/fail/:id" || spans[1].Status().Code != codes.Error {
		t.Errorf("span 1 = %s %v", spans[1].Name(), spans[1].Status())
	}
}
