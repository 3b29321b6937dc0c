// Package room implements the per-room scheduler: a dedicated seat
// table, the Lobby/Dealing/CommunityCard/Betting/Showdown state
// machine, the betting turn queue, and hand-ownership transfer to and
// from the lobby scheduler.
package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voyager.com/pokerd/internal/config"
	"voyager.com/pokerd/internal/logging"
	"voyager.com/pokerd/internal/poker"
	"voyager.com/pokerd/internal/protocol"
	"voyager.com/pokerd/internal/queue"
	"voyager.com/pokerd/internal/transport"
)

// nowFn is indirected so tests can fast-forward timeouts without
// sleeping real wall-clock time.
var nowFn = time.Now

// Room owns a seat table and runs its own state machine on a
// dedicated goroutine.
type Room struct {
	ID       int
	Name     string
	maxSeats int

	seats []Seat

	deck           *poker.Deck
	community      [5]poker.Card
	communityCount int

	pot            int64
	currentHighBet int64
	dealerIdx      int
	currentActor   int
	roundPhase     RoundPhase
	roomLocked     bool

	state       Kind
	hasBet      bool
	actionQueue []int

	turnDeadline     time.Time
	showdownDeadline time.Time

	// incoming is the mutex-free SPSC handoff from the lobby thread
	// (single producer) to this room's own goroutine (single
	// consumer).
	incoming *queue.Ring[*transport.Connection]

	// seatMu guards the seats slice's occupancy/nickname/connection
	// fields against concurrent reads from the lobby thread (reconnect
	// search, capacity checks), which run on a different goroutine
	// than this room's own tick loop.
	seatMu sync.RWMutex

	// ReturnToLobby hands a departing Connection back to the lobby's
	// unseated list so it can rejoin the handshake flow (outside the
	// Lobby state the seat is kept occupied rather than freed, to permit
	// a later reconnect). Set by
	// whatever wires the lobby and room set together.
	ReturnToLobby func(*transport.Connection)

	tun config.Tunables
	log *zerolog.Logger
}

// New constructs a Room with maxSeats empty seats and a freshly
// shuffled deck.
func New(id int, name string, tun config.Tunables, seed rand.Source) *Room {
	r := &Room{
		ID:           id,
		Name:         name,
		maxSeats:     tun.MaxSeats,
		seats:        make([]Seat, tun.MaxSeats),
		deck:         poker.NewDeck(seed),
		currentActor: -1,
		state:        StateLobby,
		tun:          tun,
		log:          logging.GetLogger("room", nil),
		incoming:     queue.NewRing[*transport.Connection](32),
	}
	return r
}

// Push hands conn to the room's incoming queue; called by the lobby
// thread when a JOIN or reconnect succeeds.
func (r *Room) Push(conn *transport.Connection) bool {
	return r.incoming.Push(conn, r.tun.QueueBackoff*5)
}

// Snapshot reports the room's id/name/occupancy for ROOM listings.
// Safe to call concurrently with the room's own tick loop.
func (r *Room) Snapshot() protocol.RoomInfo {
	r.seatMu.RLock()
	defer r.seatMu.RUnlock()
	occupied := 0
	for i := range r.seats {
		if r.seats[i].Occupied {
			occupied++
		}
	}
	return protocol.RoomInfo{ID: r.ID, Name: r.Name, Occupied: occupied, Capacity: r.maxSeats}
}

// CanJoin reports whether the room has a free seat and is not locked
// mid-hand. Safe to call concurrently with the room's own tick loop.
func (r *Room) CanJoin() bool {
	r.seatMu.RLock()
	defer r.seatMu.RUnlock()
	if r.roomLocked {
		return false
	}
	for i := range r.seats {
		if !r.seats[i].Occupied {
			return true
		}
	}
	return false
}

// HasDisconnectedSeatFor reports whether an occupied, connection-less
// seat matches nickname — the reconnect-eligibility check the lobby
// runs across every room on CONN. Safe to call concurrently with the
// room's own tick loop.
func (r *Room) HasDisconnectedSeatFor(nickname string) bool {
	r.seatMu.RLock()
	defer r.seatMu.RUnlock()
	for i := range r.seats {
		s := &r.seats[i]
		if s.Occupied && s.Conn == nil && s.Nickname == nickname {
			return true
		}
	}
	return false
}

// Run drives the room's tick loop until stop is closed: ingest,
// keep-alive, I/O, tick, sleep.
func (r *Room) Run(stop <-chan struct{}) {
	lastPing := nowFn()
	for {
		select {
		case <-stop:
			return
		default:
		}

		r.ingest()

		if nowFn().Sub(lastPing) >= r.tun.PingInterval {
			r.keepAlive()
			lastPing = nowFn()
		}

		r.io()

		if next, ok := r.onTick(); ok {
			r.transitionTo(next)
		}

		time.Sleep(r.tun.RoomTick)
	}
}

// ingest drains the incoming queue: attempts reconnect-by-nickname
// first, then seats into the first free seat, then falls back to
// returning the connection to the lobby if the room is full.
func (r *Room) ingest() {
	for {
		conn, ok := r.incoming.TryPop()
		if !ok {
			return
		}
		r.seatNewArrival(conn)
	}
}

func (r *Room) seatNewArrival(conn *transport.Connection) {
	r.seatMu.Lock()
	idx := -1
	reconnect := false
	for i := range r.seats {
		s := &r.seats[i]
		if s.Occupied && s.Conn == nil && s.Nickname == conn.Nickname {
			idx, reconnect = i, true
			break
		}
	}
	if idx == -1 {
		for i := range r.seats {
			if !r.seats[i].Occupied {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		r.seatMu.Unlock()
		if r.ReturnToLobby != nil {
			r.ReturnToLobby(conn)
		}
		return
	}

	s := &r.seats[idx]
	if !reconnect {
		s.Occupied = true
		s.Nickname = conn.Nickname
		s.Chips = conn.Chips
	}
	s.Conn = conn
	r.seatMu.Unlock()

	conn.State = transport.StateInRoom
	block := s.Block(idx == r.currentActor)
	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePJIN, []byte(block.Encode())))
	conn.Send(protocol.WithPayload(protocol.CodeRMST, r.snapshotFor(idx).Encode()))
}

// keepAlive pings every occupied active seat.
func (r *Room) keepAlive() {
	for i := range r.seats {
		s := &r.seats[i]
		if s.Occupied && s.Conn != nil {
			s.Conn.PingTick()
		}
	}
}

// detachDeadConnections releases the Conn reference on any occupied
// seat whose connection has dropped. The seat itself stays occupied
// (nickname and chips retained) so the player can reconnect; clearing
// Conn to nil is what makes the seat visible to HasDisconnectedSeatFor
// for a later CONN-driven reconnect.
func (r *Room) detachDeadConnections() {
	r.seatMu.Lock()
	defer r.seatMu.Unlock()
	for i := range r.seats {
		s := &r.seats[i]
		if s.Occupied && s.Conn != nil && s.Conn.IsDisconnected() {
			s.Conn = nil
		}
	}
}

// io drains each active seat's inbound queue up to MsgBatch messages,
// intercepting the global GMLV leave message and otherwise dispatching
// to the current state's handler.
func (r *Room) io() {
	r.detachDeadConnections()
	for i := range r.seats {
		s := &r.seats[i]
		if !s.IsActive() {
			continue
		}
		for _, msg := range s.Conn.Inbound.DrainUpTo(r.tun.MsgBatch) {
			if msg.Code == protocol.CodeGMLV {
				r.handleLeave(i)
				break // seat's connection is gone; stop draining it
			}
			r.dispatchMessage(i, msg)
		}
	}
}

// dispatchMessage routes a single inbound message to the handler for
// the room's current state.
func (r *Room) dispatchMessage(seatIdx int, msg protocol.Message) {
	s := &r.seats[seatIdx]
	switch r.state {
	case StateLobby:
		if msg.Code == protocol.CodeRDY1 {
			r.handleReady(s)
			return
		}
	case StateBetting:
		r.dispatchBetting(seatIdx, msg)
		return
	case StateShowdown:
		if msg.Code == protocol.CodeSDOK {
			r.handleShowdownAck(s)
			return
		}
	}
	r.log.Debug().Str(logging.MsgCodeKey, msg.Code).Str("state", r.state.String()).Msg("unexpected message")
	s.Conn.ForceDisconnect()
}

// handleLeave processes GMLV: the seat's connection returns to the
// lobby, the seat is marked Left and, only while the room is in Lobby,
// freed entirely.
func (r *Room) handleLeave(seatIdx int) {
	s := &r.seats[seatIdx]
	conn := s.Conn
	s.LastAction = protocol.ActionLeft
	s.LastActionAmount = 0

	r.seatMu.Lock()
	s.Conn = nil
	conn.State = transport.StateConnected
	conn.RoomSendIndex = 0
	if r.state == StateLobby {
		s.Clear()
	}
	r.seatMu.Unlock()

	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(conn.Nickname, protocol.ActionLeft, 0)))
	if r.ReturnToLobby != nil {
		r.ReturnToLobby(conn)
	}
}

// broadcast sends m to every active seat.
func (r *Room) broadcast(m protocol.Message) {
	for i := range r.seats {
		if r.seats[i].IsActive() {
			r.seats[i].Conn.Send(m)
		}
	}
}

// broadcastExcept sends m to every active seat other than except.
func (r *Room) broadcastExcept(except *Seat, m protocol.Message) {
	for i := range r.seats {
		if &r.seats[i] != except && r.seats[i].IsActive() {
			r.seats[i].Conn.Send(m)
		}
	}
}

// snapshotFor builds the RMST payload for the seat at idx: its own
// hole cards (if dealt) plus the full public table state.
func (r *Room) snapshotFor(idx int) protocol.RMSTPayload {
	s := &r.seats[idx]
	snap := protocol.RMSTPayload{
		Pot:     r.pot,
		HighBet: r.currentHighBet,
	}
	if s.HasHand {
		snap.CardsDealt = 1
		snap.Hole1 = int(s.Hand[0])
		snap.Hole2 = int(s.Hand[1])
	}
	for i := 0; i < r.communityCount; i++ {
		snap.Community = append(snap.Community, int(r.community[i]))
	}
	for i := range r.seats {
		if !r.seats[i].Occupied {
			continue
		}
		snap.Seats = append(snap.Seats, r.seats[i].Block(i == r.currentActor))
	}
	return snap
}
