// Package docs describes mounted endpoints for documentation renderers.
//
// Descriptors come from the registry; descriptions come from the doc comments
// of the controller methods, read from source by a CommentIndex that runs as
// a component after startup:
//
//	// GetItem returns one stocked item.
//	// @param id numeric item identifier
//	func (c *ItemController) GetItem(ctx context.Context, args binding.Args) (any, error)
//
// Until the index is built, Bridge.Endpoints returns ErrNotReady and the
// listing handler answers 503.
package docs
