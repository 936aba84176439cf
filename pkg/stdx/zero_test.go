package stdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	assert.Equal(t, 0, Zero[int]())
	assert.Equal(t, "", Zero[string]())
	assert.Nil(t, Zero[[]byte]())
	assert.Nil(t, Zero[map[string]int]())
	assert.Nil(t, Zero[*int]())
	assert.Nil(t, Zero[error]())

	type pair struct {
		A int
		B string
	}
	assert.Equal(t, pair{}, Zero[pair]())
}
