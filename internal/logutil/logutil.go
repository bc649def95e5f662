// Package logutil builds the slog loggers used by Born commands.
package logutil

import (
	"io"
	"log/slog"
	"path/filepath"
)

// NewLogger returns a text logger writing to w at the given level.
// Source locations are included at debug level, trimmed to the file name.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}
