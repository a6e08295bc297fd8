// Package di resolves named services declared in a registry.
//
// Each name may carry several variants constrained on environment settings.
// The resolver keeps the variants whose constraints match, picks the one with
// the most constrained keys, builds it once and autowires its fields
// depth-first before running its optional OnInit hook. A tie at the top, a
// name without declarations and a dependency cycle are all startup errors.
//
// # Resolution
//
//	resolver := di.NewResolver(reg, map[string]string{"env": "prod"})
//	store, err := di.Resolve[ItemStore](resolver, "itemStore")
//
// # Autowiring
//
// Fields are wired from the descriptor's Autowire declarations and from
// struct tags:
//
//	type ItemService struct {
//	    Store ItemStore `wire:"itemStore"`
//	    Clock Clock     `wire:""` // resolves "clock"
//	}
package di
