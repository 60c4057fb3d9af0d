// Package logging configures the process-wide slog handler.
package logging

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// Initialize installs the default slog handler for the given output type
// and level name. Returns an error for unknown types or levels.
func Initialize(loggingType string, logLevelName string) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(logLevelName)); err != nil {
		return fmt.Errorf("could not parse log level: %v", err)
	}

	opts := slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	switch loggingType {
	case JSON:
		handler = slog.NewJSONHandler(os.Stderr, &opts)
	case Text:
		handler = slog.NewTextHandler(os.Stderr, &opts)
	case Tint:
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: opts.Level})
	default:
		return fmt.Errorf("unknown logging type: %s", loggingType)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
