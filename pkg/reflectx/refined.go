package reflectx

import (
	"context"
	"reflect"
)

// IsRefinedType reports whether value is exactly the type R. Skill dispatch
// uses this to recognize parameters that the runtime injects (for example
// types.Meta) so they never appear in a skill's public schema.
func IsRefinedType[R any](value reflect.Type) bool {
	var toMatch R
	return reflect.TypeOf(toMatch) == value
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// IsContext reports whether value is exactly context.Context. Like
// types.Meta, context parameters are injected at dispatch and stay out of a
// skill's public schema.
func IsContext(value reflect.Type) bool {
	return value == ctxType
}
