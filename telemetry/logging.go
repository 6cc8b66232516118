package telemetry

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pthm-cable/riskroute/config"
)

// nopCloser is returned when logs go to stdout only.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogger installs a JSON slog logger as the default. When cfg.File is
// set, records are also written to a size-rotated file. The returned closer
// flushes that file.
func SetupLogger(cfg config.LoggingConfig, level slog.Level) io.Closer {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
		}
		w = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return closer
}
