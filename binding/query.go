package binding

import (
	"context"
	"fmt"

	"github.com/gorilla/schema"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("query")
	return d
}

// QueryObject binds the whole query string decoded into a new *T. Fields are
// matched by their `query` tag, falling back to the field name. Declare the
// position as Other so the struct is passed through untouched.
func QueryObject[T any](position int) ParameterBinding {
	return Extract(position, func(_ context.Context, req Request) (any, error) {
		target := new(T)
		if err := queryDecoder.Decode(target, req.Query()); err != nil {
			return nil, fmt.Errorf("decoding query into %T: %w", target, err)
		}
		return target, nil
	})
}
