// Package lobby implements the lobby scheduler: the accept loop, the
// mutex-guarded list of unseated Connections, and the per-connection
// handshake/room-listing/join-or-reconnect state machine that hands a
// Connection off to a Room.
package lobby

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voyager.com/pokerd/internal/config"
	"voyager.com/pokerd/internal/logging"
	"voyager.com/pokerd/internal/protocol"
	"voyager.com/pokerd/internal/room"
	"voyager.com/pokerd/internal/transport"
)

// Lobby owns the listening socket's accepted-but-unseated Connections
// and the static room list.
type Lobby struct {
	mu       sync.Mutex
	unseated []*transport.Connection

	rooms []*room.Room
	tun   config.Tunables
	log   *zerolog.Logger
}

// New builds a Lobby over the given static room list and wires each
// room's ReturnToLobby callback back into this Lobby's unseated list,
// so a connection that leaves or drops its seat rejoins the handshake
// flow instead of being discarded.
func New(rooms []*room.Room, tun config.Tunables) *Lobby {
	l := &Lobby{
		rooms: rooms,
		tun:   tun,
		log:   logging.GetLogger("lobby", nil),
	}
	for _, r := range rooms {
		r.ReturnToLobby = l.Readmit
	}
	return l
}

// Readmit returns a Connection to the unseated list, resetting it to
// the Connected state so it runs the handshake afresh. Safe to call
// from a room's own goroutine.
func (l *Lobby) Readmit(conn *transport.Connection) {
	if conn.IsDisconnected() {
		return
	}
	conn.State = transport.StateConnected
	conn.RoomSendIndex = 0
	conn.HasReconnectHint = false
	l.mu.Lock()
	l.unseated = append(l.unseated, conn)
	l.mu.Unlock()
}

// Accept runs the dedicated accept loop, wrapping each accepted socket
// in a Connection and handing it to the lobby.
func (l *Lobby) Accept(ln net.Listener, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return
			default:
				l.log.Warn().Err(err).Msg("accept failed")
				continue
			}
		}
		c := transport.New(conn, l.tun.InboundQueueCap, l.tun.OutboundQueueCap)
		l.log.Info().Str(logging.ConnIDKey, c.ID).Str("addr", c.RemoteAddr()).Msg("connection accepted")
		l.Readmit(c)
	}
}

// Run drives the lobby logic loop until stop is closed: each tick
// drains up to MsgBatch inbound messages per unseated connection,
// advances its state machine, then sweeps disconnected or transferred
// connections out of the list back to front.
func (l *Lobby) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		l.tick()
		time.Sleep(l.tun.LobbyTick)
	}
}

func (l *Lobby) tick() {
	l.mu.Lock()
	snapshot := make([]*transport.Connection, len(l.unseated))
	copy(snapshot, l.unseated)
	l.mu.Unlock()

	transferred := make(map[*transport.Connection]bool)
	for _, conn := range snapshot {
		if conn.IsDisconnected() {
			continue
		}
		for _, msg := range conn.Inbound.DrainUpTo(l.tun.MsgBatch) {
			if l.dispatch(conn, msg) {
				transferred[conn] = true
				break
			}
		}
	}

	l.mu.Lock()
	for i := len(l.unseated) - 1; i >= 0; i-- {
		c := l.unseated[i]
		if c.IsDisconnected() || transferred[c] {
			l.unseated = append(l.unseated[:i], l.unseated[i+1:]...)
		}
	}
	l.mu.Unlock()
}

// dispatch advances conn's state machine by one message. It returns
// true if ownership of conn has been transferred to a room (and so
// must leave the lobby's list now, rather than waiting for a
// disconnect).
func (l *Lobby) dispatch(conn *transport.Connection, msg protocol.Message) bool {
	switch conn.State {
	case transport.StateConnected:
		return l.handleConnected(conn, msg)
	case transport.StateAwaitingReconnect:
		return l.handleAwaitingReconnect(conn, msg)
	case transport.StateAwaitingRooms:
		l.handleAwaitingRooms(conn, msg)
	case transport.StateSendingRooms:
		l.handleSendingRooms(conn, msg)
	case transport.StateAwaitingJoin:
		return l.handleAwaitingJoin(conn, msg)
	default:
		l.reject(conn, msg)
	}
	return false
}

func (l *Lobby) reject(conn *transport.Connection, msg protocol.Message) {
	l.log.Debug().Str(logging.ConnIDKey, conn.ID).Str(logging.MsgCodeKey, msg.Code).Str("state", conn.State.String()).Msg("unexpected message in lobby state")
	conn.Send(protocol.NoPayloadMsg(protocol.CodeFAIL))
	conn.ForceDisconnect()
}

func (l *Lobby) findReconnectRoom(nickname string) *room.Room {
	for _, r := range l.rooms {
		if r.HasDisconnectedSeatFor(nickname) {
			return r
		}
	}
	return nil
}

func (l *Lobby) handleConnected(conn *transport.Connection, msg protocol.Message) bool {
	if msg.Code != protocol.CodeCONN {
		l.reject(conn, msg)
		return false
	}
	nickname, err := protocol.DecodeCONN(msg.Payload)
	if err != nil {
		conn.ForceDisconnect()
		return false
	}
	conn.Nickname = nickname

	if r := l.findReconnectRoom(nickname); r != nil {
		conn.ReconnectRoomHint = r.ID
		conn.HasReconnectHint = true
		conn.Send(protocol.NoPayloadMsg(protocol.CodeRCON))
		conn.State = transport.StateAwaitingReconnect
		return false
	}

	conn.Send(protocol.NoPayloadMsg(protocol.CodePNOK))
	conn.State = transport.StateAwaitingRooms
	return false
}

func (l *Lobby) handleAwaitingReconnect(conn *transport.Connection, msg protocol.Message) bool {
	switch msg.Code {
	case protocol.CodeRCON:
		r := l.roomByID(conn.ReconnectRoomHint)
		if r == nil {
			conn.ForceDisconnect()
			return false
		}
		return r.Push(conn)
	case protocol.CodePINF:
		l.recordChipsAndAdvance(conn, msg)
		return false
	default:
		l.reject(conn, msg)
		return false
	}
}

func (l *Lobby) handleAwaitingRooms(conn *transport.Connection, msg protocol.Message) {
	if msg.Code != protocol.CodePINF {
		l.reject(conn, msg)
		return
	}
	l.recordChipsAndAdvance(conn, msg)
}

func (l *Lobby) recordChipsAndAdvance(conn *transport.Connection, msg protocol.Message) {
	chips, err := protocol.DecodePINF(msg.Payload)
	if err != nil {
		conn.ForceDisconnect()
		return
	}
	conn.Chips = chips
	conn.Send(protocol.NoPayloadMsg(protocol.CodePIOK))
	conn.State = transport.StateAwaitingJoin
}

func (l *Lobby) handleSendingRooms(conn *transport.Connection, msg protocol.Message) {
	switch msg.Code {
	case protocol.CodeRMOK:
		l.sendNextRoom(conn)
	case protocol.CodeRMFL:
		conn.ForceDisconnect()
	default:
		l.reject(conn, msg)
	}
}

func (l *Lobby) sendNextRoom(conn *transport.Connection) {
	if conn.RoomSendIndex >= len(l.rooms) {
		conn.Send(protocol.NoPayloadMsg(protocol.CodeDONE))
		conn.State = transport.StateAwaitingJoin
		return
	}
	info := l.rooms[conn.RoomSendIndex].Snapshot()
	conn.Send(protocol.WithPayload(protocol.CodeROOM, protocol.EncodeROOM(info.ID, info.Name, info.Occupied, info.Capacity)))
	conn.RoomSendIndex++
}

func (l *Lobby) handleAwaitingJoin(conn *transport.Connection, msg protocol.Message) bool {
	switch msg.Code {
	case protocol.CodeRMRQ:
		conn.RoomSendIndex = 0
		conn.State = transport.StateSendingRooms
		l.sendNextRoom(conn)
		return false
	case protocol.CodeJOIN:
		roomID, err := protocol.DecodeJOIN(msg.Payload)
		if err != nil {
			conn.ForceDisconnect()
			return false
		}
		r := l.roomByID(roomID)
		if r == nil || !r.CanJoin() {
			conn.Send(protocol.NoPayloadMsg(protocol.CodeJNFL))
			return false
		}
		conn.Send(protocol.NoPayloadMsg(protocol.CodeJNOK))
		return r.Push(conn)
	default:
		l.reject(conn, msg)
		return false
	}
}

func (l *Lobby) roomByID(id int) *room.Room {
	for _, r := range l.rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}
