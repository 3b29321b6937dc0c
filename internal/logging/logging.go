// Package logging provides the zerolog console-writer wrapper shared
// by every scheduler in pokerd.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field names used consistently across the lobby/room/transport loggers.
const (
	LoggerNameKey = "logger_name"
	ConnIDKey     = "connID"
	RoomIDKey     = "roomID"
	SeatKey       = "seat"
	NicknameKey   = "nickname"
	MsgCodeKey    = "code"
)

func colorEnabled() bool {
	v := os.Getenv("COLORIZE_LOG")
	if v == "" {
		return true
	}
	return v == "1" || strings.ToLower(v) == "true"
}

// GetLogger returns a named sub-logger writing to out (os.Stdout if nil).
func GetLogger(name string, out io.Writer) *zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	output := zerolog.ConsoleWriter{Out: out, NoColor: !colorEnabled(), TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str(LoggerNameKey, name).Logger()
	return &logger
}

// SetGlobalLevel parses level (trace|debug|info|warn|error|fatal|panic)
// and installs it as zerolog's global level, falling back to info on
// an unrecognized value.
func SetGlobalLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
