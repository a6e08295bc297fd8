// Package binding turns an incoming request into the ordered argument list of
// an endpoint method.
//
// Every endpoint declares the type of each argument position (a TypeTag) and
// where explicitly bound positions come from (path parameter, query
// parameter, request body, or a custom extractor). A Plan is computed once per
// endpoint and reused for every request:
//
//	plan, err := binding.NewPlan(
//	    []binding.TypeTag{binding.Number, binding.Other},
//	    []binding.ParameterBinding{binding.Path(0, "id")},
//	)
//	args, err := plan.Bind(ctx, req, resp) // [7, resp]
//
// Positions 0 and 1 that no binding claims receive the request and response
// facets themselves.
package binding
