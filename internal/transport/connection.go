// Package transport implements the per-connection I/O pipeline: a
// receive goroutine that feeds the incremental parser and publishes
// complete messages to a bounded inbound queue, a send goroutine that
// drains a bounded outbound queue onto the socket, and the
// ping/keep-alive and disconnect bookkeeping shared by the lobby and
// room schedulers.
package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voyager.com/pokerd/internal/logging"
	"voyager.com/pokerd/internal/protocol"
	"voyager.com/pokerd/internal/queue"
)

// State is the per-connection lobby-side state machine: Connected,
// AwaitingReconnect, AwaitingRooms, SendingRooms, AwaitingJoin,
// InRoom.
type State int

const (
	StateConnected State = iota
	StateAwaitingReconnect
	StateAwaitingRooms
	StateSendingRooms
	StateAwaitingJoin
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateAwaitingReconnect:
		return "AwaitingReconnect"
	case StateAwaitingRooms:
		return "AwaitingRooms"
	case StateSendingRooms:
		return "SendingRooms"
	case StateAwaitingJoin:
		return "AwaitingJoin"
	case StateInRoom:
		return "InRoom"
	default:
		return "Unknown"
	}
}

// Connection owns one TCP socket plus the bounded inbound/outbound
// queues and player-facing state attached to it. Ownership is always
// singular: the lobby, a specific room, or (transiently) the room's
// incoming queue.
type Connection struct {
	ID   string
	conn net.Conn
	log  *zerolog.Logger

	Inbound  *queue.Ring[protocol.Message]
	outbound *queue.Ring[protocol.Message]
	parser   *protocol.Parser

	disconnected atomic.Bool
	pingPending  atomic.Bool
	closeOnce    sync.Once

	// Player-facing attributes, mutated only by whichever scheduler
	// currently owns this Connection (never concurrently).
	Nickname           string
	Chips              int64
	State              State
	RoomSendIndex      int
	ReconnectRoomHint  int
	HasReconnectHint   bool
}

// New wraps conn in a Connection and starts its receive/send
// goroutines. inboundCap/outboundCap size the bounded queues.
func New(conn net.Conn, inboundCap, outboundCap int) *Connection {
	c := &Connection{
		ID:       uuid.NewString(),
		conn:     conn,
		log:      logging.GetLogger("transport::connection", nil),
		Inbound:  queue.NewRing[protocol.Message](inboundCap),
		outbound: queue.NewRing[protocol.Message](outboundCap),
		parser:   protocol.NewParser(),
		State:    StateConnected,
	}
	go c.receiveLoop()
	go c.sendLoop()
	return c
}

// RemoteAddr returns the peer address string, for logging.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// IsDisconnected reports whether the connection has been torn down
// (read/write failure, framing error, or ping timeout). The flag is
// monotonic: once true, it never reverts.
func (c *Connection) IsDisconnected() bool {
	return c.disconnected.Load()
}

func (c *Connection) markDisconnected(reason string) {
	c.closeOnce.Do(func() {
		c.disconnected.Store(true)
		c.log.Debug().Str(logging.ConnIDKey, c.ID).Str("reason", reason).Msg("connection disconnected")
		c.conn.Close()
		c.Inbound.Close()
		c.outbound.Close()
	})
}

// receiveLoop blocks on socket reads, feeding each chunk into the
// incremental parser. A completed keep-alive PING is consumed here
// and never surfaces to a scheduler; every other completed message is
// pushed onto Inbound. Any read error or framing error disconnects
// the connection without attempting to resync.
func (c *Connection) receiveLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if err != nil || n == 0 {
			c.markDisconnected("read error or EOF")
			return
		}

		chunk := buf[:n]
		for len(chunk) > 0 {
			res := c.parser.Feed(chunk)
			chunk = chunk[res.BytesParsed:]

			if res.Err != nil {
				c.log.Debug().Str(logging.ConnIDKey, c.ID).Err(res.Err).Msg("framing error")
				c.markDisconnected("framing error")
				return
			}

			if !res.Done {
				break // chunk exhausted mid-frame; read more
			}

			c.parser.Reset()
			if res.Code == protocol.CodePING {
				c.pingPending.Store(false)
				continue
			}

			msg := protocol.Message{Code: res.Code, Payload: res.Payload}
			if !c.Inbound.Push(msg, 0) {
				return // queue closed underneath us; connection is going down
			}
		}
	}
}

// sendLoop drains the outbound queue and writes each message
// synchronously to the socket. A write error disconnects the
// connection.
func (c *Connection) sendLoop() {
	for {
		msg, ok := c.outbound.Pop()
		if !ok {
			return
		}
		if _, err := c.conn.Write(msg.Encode()); err != nil {
			c.markDisconnected("write error")
			return
		}
	}
}

// Send enqueues m for delivery, waiting up to 50ms for room in the
// outbound queue if it is momentarily full. It is a no-op once
// disconnected.
func (c *Connection) Send(m protocol.Message) {
	if c.IsDisconnected() {
		return
	}
	if !c.outbound.Push(m, 50*time.Millisecond) {
		c.log.Warn().Str(logging.ConnIDKey, c.ID).Str(logging.MsgCodeKey, m.Code).Msg("outbound queue full, dropping message")
	}
}

// PingTick implements the keep-alive cadence: if the previous ping was
// never answered (pingPending still set), the connection is considered
// dead; otherwise a fresh PING is sent and pingPending is armed for
// the next cadence.
func (c *Connection) PingTick() {
	if c.IsDisconnected() {
		return
	}
	if c.pingPending.Swap(true) {
		c.markDisconnected("ping timeout")
		return
	}
	c.Send(protocol.NoPayloadMsg(protocol.CodePING))
}

// ForceDisconnect tears the connection down immediately, used when a
// scheduler detects a protocol violation that must end the session.
func (c *Connection) ForceDisconnect() {
	c.markDisconnected("forced")
}
