// Package bootstrap assembles a wirekit application and runs its lifecycle.
//
// NewApp validates the typed config, initializes the logger and creates the
// HTTP server. Build resolves and wires every registered controller, mounts
// the endpoints and the operational routes, and registers the documentation
// comment index when docs are enabled. Run builds the app, starts all
// components, runs the lifecycle hooks and blocks until a shutdown signal:
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Registry.RegisterController(inventoryController())
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests call Build and serve requests through Handler without starting a
// listener.
package bootstrap
