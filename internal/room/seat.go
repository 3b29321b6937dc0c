package room

import (
	"voyager.com/pokerd/internal/poker"
	"voyager.com/pokerd/internal/protocol"
	"voyager.com/pokerd/internal/transport"
)

// Seat is a room-local player slot. It persists across a Connection
// disconnect within a single game so the player can reconnect by
// nickname.
type Seat struct {
	Occupied bool
	Nickname string
	Chips    int64

	Hand    [2]poker.Card
	HasHand bool

	IsReady     bool
	IsFolded    bool
	ShowdownAck bool

	RoundBet         int64
	TotalBet         int64
	LastAction       protocol.Action
	LastActionAmount int64

	// Conn is the owning reference to the seat's Connection. nil means
	// the seat is reserved for a disconnected player awaiting
	// reconnect-by-nickname.
	Conn *transport.Connection
}

// IsActive reports whether the seat holds a connected player: occupied
// && connection != nil && !connection.disconnected.
func (s *Seat) IsActive() bool {
	return s.Occupied && s.Conn != nil && !s.Conn.IsDisconnected()
}

// ResetForNewGame clears per-hand state but keeps nickname/chips,
// called when the room returns to Lobby between hands.
func (s *Seat) ResetForNewGame() {
	s.IsReady = false
	s.IsFolded = false
	s.ShowdownAck = false
	s.HasHand = false
	s.Hand = [2]poker.Card{}
	s.RoundBet = 0
	s.TotalBet = 0
	s.LastAction = protocol.ActionNone
	s.LastActionAmount = 0
}

// ResetRound moves RoundBet into TotalBet and clears the per-round
// fields, called at the start of every Betting phase. A seat that has
// already folded or left keeps its recorded LastAction.
func (s *Seat) ResetRound() {
	s.TotalBet += s.RoundBet
	s.RoundBet = 0
	s.LastActionAmount = 0
	if s.LastAction != protocol.ActionFold && s.LastAction != protocol.ActionLeft {
		s.LastAction = protocol.ActionNone
	}
}

// Clear empties the seat entirely (true vacancy): occupied == false
// implies every other field is at its zero value.
func (s *Seat) Clear() {
	*s = Seat{}
}

// Block builds the wire-format SeatBlock for this seat, for RMST/PJIN
// snapshots and per-seat listings.
func (s *Seat) Block(isCurrentTurn bool) protocol.SeatBlock {
	return protocol.SeatBlock{
		Nickname:      s.Nickname,
		Chips:         s.Chips,
		Folded:        s.IsFolded,
		Ready:         s.IsReady,
		IsCurrentTurn: isCurrentTurn,
		Action:        s.LastAction,
		ActionAmount:  s.LastActionAmount,
		RoundBet:      s.RoundBet,
		TotalBet:      s.TotalBet,
	}
}
