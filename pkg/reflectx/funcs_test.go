package reflectx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func namedFunc(a string) string { return a }

type handlerFunc func(string) string

func TestIsFunction(t *testing.T) {
	assert.True(t, IsFunction(namedFunc))
	assert.True(t, IsFunction(func() {}))
	assert.False(t, IsFunction(nil))
	assert.False(t, IsFunction(42))
	assert.False(t, IsFunction("not a func"))
}

func TestFunctionName(t *testing.T) {
	t.Run("plain function", func(t *testing.T) {
		assert.Equal(t, "namedFunc", FunctionName(namedFunc))
	})

	t.Run("named function type", func(t *testing.T) {
		var h handlerFunc = func(s string) string { return s }
		assert.Equal(t, "reflectx.handlerFunc", FunctionName(h))
	})

	t.Run("non-function", func(t *testing.T) {
		assert.Equal(t, "", FunctionName(12))
	})
}

type meta map[string]any

func TestIsRefinedType(t *testing.T) {
	assert.True(t, IsRefinedType[meta](reflect.TypeOf(meta{})))
	assert.False(t, IsRefinedType[meta](reflect.TypeOf(map[string]any{})))
	assert.False(t, IsRefinedType[meta](reflect.TypeOf("")))
}
