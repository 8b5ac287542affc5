package logger

import (
	"log/slog"

	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

// errorAttrReplacer renders error attribute values with their message instead
// of the default Go-syntax representation.
func errorAttrReplacer(groups []string, attr slog.Attr) slog.Attr {
	if attr.Key != slogx.ErrorKey {
		return attr
	}
	if err, ok := attr.Value.Any().(error); ok && err != nil {
		return slog.Attr{Key: attr.Key, Value: slog.StringValue(err.Error())}
	}
	return attr
}
