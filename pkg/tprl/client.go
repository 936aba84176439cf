package tprl

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/casualjim/aviary/pkg/slogx"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

func envStrOrDefault(key string, def string) string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	return s
}

// NewClient builds a lazy Temporal client against TEMPORAL_ADDRESS,
// defaulting to the SDK's local address. SDK logs are routed through the
// process slog handler.
func NewClient() (client.Client, error) {
	lg := slog.Default().With(slogx.LoggerName("aviary.temporal"))

	cl, err := client.NewLazyClient(client.Options{
		HostPort: envStrOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Logger:   log.NewStructuredLogger(lg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}
	return cl, nil
}
