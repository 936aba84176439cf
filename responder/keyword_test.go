package responder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordCategories(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"weather", "what is the weather like today?", weatherResponse},
		{"temperature", "current TEMPERATURE in oslo", weatherResponse},
		{"data analysis", "run an analysis over this dataset", dataAnalysisResponse},
		{"statistics", "show me some statistics", dataAnalysisResponse},
		{"coding", "review my python script", codingResponse},
		{"api", "how do I design an api", codingResponse},
		{"status", "system status please", systemStatusResponse},
		{"health", "give me a health check", systemStatusResponse},
	}

	r := Keyword{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Respond(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordCommandPrefix(t *testing.T) {
	r := Keyword{}

	for _, query := range []string{"<weather in oslo", "/weather in oslo", "> weather in oslo"} {
		got, err := r.Respond(context.Background(), query)
		require.NoError(t, err)
		assert.Equal(t, weatherResponse, got, "query %q", query)
	}
}

func TestKeywordCategoryOrder(t *testing.T) {
	r := Keyword{}

	// Weather outranks data analysis when both categories match.
	got, err := r.Respond(context.Background(), "weather data for last week")
	require.NoError(t, err)
	assert.Equal(t, weatherResponse, got)
}

func TestKeywordFallback(t *testing.T) {
	r := Keyword{}

	got, err := r.Respond(context.Background(), "Hello There")
	require.NoError(t, err)
	assert.Contains(t, got, "I received and analyzed your query: 'Hello There'")
	assert.Contains(t, got, "How else can I help you today?")
}

func TestKeywordEmptyQuery(t *testing.T) {
	r := Keyword{}

	got, err := r.Respond(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, got, "I received and analyzed your query: ''")
	assert.Contains(t, got, "How else can I help you today?")
}
