package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/toki/pkg/client"
)

var (
	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✘")

	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

// BeQuietError signals a failure that has already been reported to the user.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "command failed"
}

// logError reports a failed remote call, including the correlation ID for server-side lookup.
func logError(err error, correlation, msg string) error {
	if correlation == "" {
		var apiErr client.APIError
		if errors.As(err, &apiErr) {
			correlation = apiErr.CorrelationID
		}
	}
	if errors.Is(err, client.ErrInvalidSession) {
		log.Error().Msgf("%s %s: not logged in or session expired, run 'toki login'", redCross, msg)
		return BeQuietError{}
	}
	ev := log.Error().Err(err)
	if correlation != "" {
		ev = ev.Str("correlation_id", correlation)
	}
	ev.Msgf("%s %s", redCross, msg)
	return BeQuietError{}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// parseKeyValues turns ["a=1", "b=x"] into a map. Values stay strings.
func parseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
