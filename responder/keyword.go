package responder

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	weatherResponse = "🌤️ **Weather Update**: I understand you're asking about the weather. " +
		"For real-time weather information, I'd need to access current weather APIs. " +
		"However, I can help you set up weather data processing or analysis if you have weather data!"

	dataAnalysisResponse = "📊 **Data Analysis Ready**: I can help you with various data analysis tasks including:\n" +
		"• Statistical analysis and hypothesis testing\n" +
		"• Data visualization and dashboard creation\n" +
		"• Predictive modeling and machine learning\n" +
		"• Trend analysis and forecasting\n" +
		"• Data cleaning and preprocessing\n\n" +
		"What specific type of data are you working with?"

	codingResponse = "💻 **Coding Assistant**: I can help you with programming tasks including:\n" +
		"• Code review and optimization\n" +
		"• Debugging and troubleshooting\n" +
		"• API development and integration\n" +
		"• Database design and queries\n" +
		"• Best practices and architecture\n\n" +
		"Share your specific coding challenge!"

	systemStatusResponse = "✅ **System Status**: Multi-agent system is running optimally!\n" +
		"• Message broker: Active\n" +
		"• Query handler: Processing\n" +
		"• Agent connections: Stable\n" +
		"• All systems operational"

	fallbackResponse = "🤖 **Query Processed**: I received and analyzed your query: '%s'\n\n" +
		"The multi-agent system has processed your request. For more specific assistance, try asking about:\n" +
		"• Weather information\n" +
		"• Data analysis tasks\n" +
		"• Programming help\n" +
		"• System status\n\n" +
		"How else can I help you today?"
)

// category pairs trigger keywords with a canned response. Categories are
// checked in declaration order, the first hit wins.
type category struct {
	keywords []string
	response string
}

var categories = []category{
	{
		keywords: []string{"weather", "temperature", "rain", "sunny", "cloudy"},
		response: weatherResponse,
	},
	{
		keywords: []string{"data", "analysis", "analytics", "statistics", "chart"},
		response: dataAnalysisResponse,
	},
	{
		keywords: []string{"code", "program", "python", "javascript", "api"},
		response: codingResponse,
	},
	{
		keywords: []string{"status", "health", "system"},
		response: systemStatusResponse,
	},
}

// Keyword answers queries from a fixed set of keyword-matched responses.
// Matching is case-insensitive and ignores a single leading command prefix
// ('<', '>' or '/'). Queries that match no category get a generic
// acknowledgement echoing the original query text. Respond never fails.
type Keyword struct{}

func (Keyword) Respond(_ context.Context, query string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) > 0 && (q[0] == '<' || q[0] == '>' || q[0] == '/') {
		q = strings.TrimSpace(q[1:])
	}

	for _, c := range categories {
		matched := slices.ContainsFunc(c.keywords, func(kw string) bool {
			return strings.Contains(q, kw)
		})
		if matched {
			return c.response, nil
		}
	}

	return fmt.Sprintf(fallbackResponse, query), nil
}
