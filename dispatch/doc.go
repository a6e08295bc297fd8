// Package dispatch turns registered endpoints into Gin handlers.
//
// Each request runs through the endpoint's binding plan, one extraction at a
// time in declaration order, then the endpoint method is invoked with the
// argument list. A nil result is written as "", a Deferred result is awaited
// first, and nothing is written when the method already completed the
// response itself. Errors from any step are wrapped in an InvocationError
// and forwarded to the ErrorHandler, RespondWithError by default.
//
//	routes, err := dispatch.Mount(engine, reg.Controllers(),
//	    dispatch.WithLogger(log),
//	    dispatch.WithMetrics(metrics),
//	)
package dispatch
