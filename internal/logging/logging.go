package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console logger writing to stderr at the given level
// ("debug", "info", "warn", "error"; empty means info).
func New(level string, noColor bool) (zerolog.Logger, error) {
	return NewWithWriter(os.Stderr, level, noColor)
}

func NewWithWriter(w io.Writer, level string, noColor bool) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
}
