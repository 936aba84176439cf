package skill

import (
	"context"
	"reflect"
	"testing"

	"github.com/casualjim/aviary/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSearch(query string) string { return query }

func TestMustSkill(t *testing.T) {
	testFunc := func() {}

	t.Run("valid function", func(t *testing.T) {
		assert.NotPanics(t, func() {
			def := Must(testFunc)
			assert.Equal(t, reflect.ValueOf(testFunc).Pointer(), reflect.ValueOf(def.Function).Pointer())
		})
	})

	t.Run("not a function", func(t *testing.T) {
		assert.Panics(t, func() {
			Must("not a function")
		})
	})
}

func TestNew(t *testing.T) {
	t.Run("rejects non-functions", func(t *testing.T) {
		_, err := New(42)
		require.Error(t, err)
	})

	t.Run("falls back to the function name", func(t *testing.T) {
		def, err := New(sampleSearch)
		require.NoError(t, err)
		assert.Equal(t, "sampleSearch", def.Name)
	})
}

func TestNameOption(t *testing.T) {
	tests := []struct {
		name      string
		skillName string
	}{
		{name: "simple name", skillName: "search_web"},
		{name: "name with spaces", skillName: "search the web"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := New(func() {}, Name(tt.skillName))
			require.NoError(t, err)
			assert.Equal(t, tt.skillName, def.Name)
		})
	}
}

func TestDescriptionOption(t *testing.T) {
	tests := []struct {
		name        string
		description string
	}{
		{name: "simple description", description: "Searches the web"},
		{name: "empty description", description: ""},
		{name: "multiline description", description: "Line 1\nLine 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := New(func() {}, Description(tt.description))
			require.NoError(t, err)
			assert.Equal(t, tt.description, def.Description)
		})
	}
}

func TestParametersOption(t *testing.T) {
	tests := []struct {
		name       string
		parameters []string
		want       map[string]string
	}{
		{
			name:       "no parameters",
			parameters: []string{},
			want:       map[string]string{},
		},
		{
			name:       "single parameter",
			parameters: []string{"query"},
			want:       map[string]string{"param0": "query"},
		},
		{
			name:       "multiple parameters",
			parameters: []string{"query", "max_results", "locale"},
			want: map[string]string{
				"param0": "query",
				"param1": "max_results",
				"param2": "locale",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := New(func() {}, Parameters(tt.parameters...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Parameters)
		})
	}
}

func TestOptionalOption(t *testing.T) {
	def, err := New(func() {}, Optional("max_results"), Optional("locale"))
	require.NoError(t, err)
	assert.Equal(t, []string{"max_results", "locale"}, def.Optional)
}

func TestToNameAndSchema(t *testing.T) {
	t.Run("maps parameter names in order", func(t *testing.T) {
		def := Must(func(query string, maxResults int) (string, error) { return "", nil },
			Name("search_web"),
			Description("Search the web"),
			Parameters("query", "max_results"),
			Optional("max_results"),
		)

		name, schema := def.ToNameAndSchema()
		assert.Equal(t, "search_web", name)
		assert.Equal(t, "object", schema.Type)

		query, ok := schema.Properties.Get("query")
		require.True(t, ok)
		assert.Equal(t, "string", query.Type)

		maxResults, ok := schema.Properties.Get("max_results")
		require.True(t, ok)
		assert.Equal(t, "integer", maxResults.Type)

		assert.Equal(t, []string{"query"}, schema.Required)
	})

	t.Run("skips injected parameters", func(t *testing.T) {
		def := Must(func(ctx context.Context, query string, meta types.Meta) string { return query },
			Name("search_web"),
			Parameters("query"),
		)

		_, schema := def.ToNameAndSchema()
		assert.Equal(t, 1, schema.Properties.Len())

		_, ok := schema.Properties.Get("query")
		assert.True(t, ok)
		assert.Equal(t, []string{"query"}, schema.Required)
	})

	t.Run("injected parameters do not consume positions", func(t *testing.T) {
		def := Must(func(ctx context.Context, query string, maxResults int) string { return query },
			Name("search_web"),
			Parameters("query", "max_results"),
		)

		_, schema := def.ToNameAndSchema()
		_, ok := schema.Properties.Get("query")
		assert.True(t, ok)
		_, ok = schema.Properties.Get("max_results")
		assert.True(t, ok)
		assert.Equal(t, []string{"query", "max_results"}, schema.Required)
	})

	t.Run("unnamed parameters keep positional keys", func(t *testing.T) {
		def := Must(func(a string, b int) {})

		_, schema := def.ToNameAndSchema()
		_, ok := schema.Properties.Get("param0")
		assert.True(t, ok)
		_, ok = schema.Properties.Get("param1")
		assert.True(t, ok)
		assert.Equal(t, []string{"param0", "param1"}, schema.Required)
	})

	t.Run("no parameters yields an empty schema", func(t *testing.T) {
		def := Must(func() {}, Name("ping"))

		name, schema := def.ToNameAndSchema()
		assert.Equal(t, "ping", name)
		assert.Equal(t, 0, schema.Properties.Len())
		assert.Nil(t, schema.Required)
	})
}
