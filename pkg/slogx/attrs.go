package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr carrying the error's message under the "error" key.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ByteString returns a slog.Attr with the byte slice rendered as a string.
// Useful for logging raw message payloads without an explicit conversion at
// every call site.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer returns a slog.Attr with the string representation of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// KeyLoggerName is the attribute key that identifies which component emitted
// a log record.
const KeyLoggerName = "logger"

// LoggerName returns an attribute naming the emitting component.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}
