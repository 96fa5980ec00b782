package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/sagarc03/dirserve/config"
)

// setupLogging installs the process-wide logger on stderr, leaving stdout to
// command output such as the hash result.
func setupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, cfg)))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn).Writer())
}

// newLogHandler returns a JSON handler for production and a colored tint
// handler otherwise.
func newLogHandler(w io.Writer, cfg *config.Config) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	if cfg.IsProduction() {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level == slog.LevelDebug,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
