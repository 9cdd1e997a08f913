package logging

import (
	"io"
	log "log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

var levelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(name string) log.Level {
	if lvl, ok := levelMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return log.LevelInfo
}

// Setup installs a tint handler writing to w as the default logger.
func Setup(w io.Writer, level string) *log.Logger {
	logger := log.New(tint.NewHandler(w, &tint.Options{
		Level: ParseLevel(level),
	}))
	log.SetDefault(logger)
	return logger
}
