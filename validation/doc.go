// Package validation validates configuration structs through
// go-playground/validator tags and collects hand-checked field errors for
// endpoint input. Both report failures as INVALID_INPUT AppErrors.
//
//	if err := validation.Struct(cfg); err != nil { ... }
//
//	name, _ := args.String(2)
//	v := validation.New()
//	v.Required("name", args.Value(2)).MaxLength("name", name, 64)
//	if err := v.Error(); err != nil { return nil, err }
package validation
