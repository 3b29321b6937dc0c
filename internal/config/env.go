// Package config holds the environment-variable-driven tunables for
// pokerd.
package config

import (
	"os"
	"strconv"
	"time"
)

type serverEnvironment struct {
	LogLevel string
}

// Env is the process-wide accessor for environment-derived settings.
var Env = &serverEnvironment{
	LogLevel: "LOG_LEVEL",
}

func (e *serverEnvironment) GetLogLevel() string {
	if v := os.Getenv(e.LogLevel); v != "" {
		return v
	}
	return "info"
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func intEnv(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Tunables collects the timing/sizing constants that govern tick
// cadence, timeouts, and queue capacity, overridable via environment
// variables so tests and operators can tighten them without touching
// code.
type Tunables struct {
	RoomTick           time.Duration
	LobbyTick          time.Duration
	QueueBackoff       time.Duration
	PingInterval       time.Duration
	TurnTimeout        time.Duration
	ShowdownAckTimeout time.Duration
	InboundQueueCap    int
	OutboundQueueCap   int
	MaxSeats           int
	MsgBatch           int
}

// DefaultTunables returns the tunables with their production
// defaults, each overridable by an environment variable.
func DefaultTunables() Tunables {
	return Tunables{
		RoomTick:           durationEnv("POKERD_ROOM_TICK_MS", 10*time.Millisecond),
		LobbyTick:          durationEnv("POKERD_LOBBY_TICK_MS", 50*time.Millisecond),
		QueueBackoff:       durationEnv("POKERD_QUEUE_BACKOFF_MS", 20*time.Millisecond),
		PingInterval:       durationEnv("POKERD_PING_INTERVAL_MS", 10*time.Second),
		TurnTimeout:        durationEnv("POKERD_TURN_TIMEOUT_MS", 30*time.Second),
		ShowdownAckTimeout: durationEnv("POKERD_SHOWDOWN_ACK_MS", 15*time.Second),
		InboundQueueCap:    intEnv("POKERD_INBOUND_QUEUE_CAP", 128),
		OutboundQueueCap:   intEnv("POKERD_OUTBOUND_QUEUE_CAP", 128),
		MaxSeats:           intEnv("POKERD_MAX_SEATS", 4),
		MsgBatch:           intEnv("POKERD_MSG_BATCH", 16),
	}
}
