package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDynamicJSON(t *testing.T) {
	t.Run("struct to map", func(t *testing.T) {
		in := struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}{Name: "weather", Count: 3}

		got, err := ToDynamicJSON(in)
		require.NoError(t, err)
		assert.Equal(t, "weather", got["name"])
		assert.EqualValues(t, 3, got["count"])
	})

	t.Run("non-object input fails", func(t *testing.T) {
		_, err := ToDynamicJSON([]string{"a", "b"})
		assert.Error(t, err)
	})

	t.Run("unmarshalable input fails", func(t *testing.T) {
		_, err := ToDynamicJSON(make(chan int))
		assert.Error(t, err)
	})
}
