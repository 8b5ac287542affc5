// Package slogx provides strongly-typed slog attribute constructors.
package slogx

import (
	"fmt"
	"log/slog"
	"time"
)

// ErrorKey is the attribute key used for errors by Error.
const ErrorKey = "error"

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.Any(key, value)
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Uint64(key string, v uint64) slog.Attr {
	return slog.Uint64(key, v)
}

func Bool(key string, v bool) slog.Attr {
	return slog.Bool(key, v)
}

func Time(key string, v time.Time) slog.Attr {
	return slog.Time(key, v)
}

func Duration(key string, v time.Duration) slog.Attr {
	return slog.Duration(key, v)
}
