package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/tamirms/minisketch/internal/config"
)

// DebugEnvVar turns on debug logging when set to a non-empty value other
// than "0".
const DebugEnvVar = "MINISKETCH_DEBUG"

// newLogger builds the stderr logger. --log-level wins when given, then
// MINISKETCH_DEBUG, then the config file.
func newLogger(w io.Writer, fs *pflag.FlagSet, flagLevel, cfgLevel string) (*slog.Logger, error) {
	name := cfgLevel
	if v := os.Getenv(DebugEnvVar); v != "" && v != "0" {
		name = "debug"
	}
	if fs != nil && fs.Changed("log-level") {
		name = flagLevel
	}
	level, err := config.ParseLevel(name)
	if err != nil {
		return nil, usagef("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
