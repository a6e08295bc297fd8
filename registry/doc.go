// Package registry holds the declarations an application is assembled from:
// named service variants with environment constraints, and controllers with
// their endpoints, parameter types and bindings.
//
// Declarations are plain values built by a composition root:
//
//	reg := registry.New()
//	reg.RegisterService(
//	    registry.Service("store", NewMemoryStore).When("env", "dev"),
//	    registry.Service("store", NewSQLStore).When("env", "prod"),
//	)
//	reg.RegisterController(
//	    registry.Controller("/items", ctl).
//	        Autowire("Store", "store").
//	        Get("Get", "/:id", ctl.Get, registry.Params(binding.Number), registry.Bind(binding.Path(0, "id"))),
//	)
package registry
