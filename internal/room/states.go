package room

import (
	"voyager.com/pokerd/internal/logging"
	"voyager.com/pokerd/internal/poker"
	"voyager.com/pokerd/internal/protocol"
)

// RoundPhase is the community-card exposure stage, orthogonal to the
// outer room state machine.
type RoundPhase int

const (
	PhasePreFlop RoundPhase = iota
	PhaseFlop
	PhaseTurn
	PhaseRiver
)

func (p RoundPhase) String() string {
	switch p {
	case PhasePreFlop:
		return "PreFlop"
	case PhaseFlop:
		return "Flop"
	case PhaseTurn:
		return "Turn"
	case PhaseRiver:
		return "River"
	default:
		return "Unknown"
	}
}

// Kind is a Room's outer state. Kept as a tagged enum switched over in
// onEnter/onTick/onLeave rather than a polymorphic handler set — there
// are five states and the transition table rarely grows, so virtual
// dispatch would just add indirection without buying flexibility.
type Kind int

const (
	StateLobby Kind = iota
	StateDealing
	StateCommunityCard
	StateBetting
	StateShowdown
)

func (k Kind) String() string {
	switch k {
	case StateLobby:
		return "Lobby"
	case StateDealing:
		return "Dealing"
	case StateCommunityCard:
		return "CommunityCard"
	case StateBetting:
		return "Betting"
	case StateShowdown:
		return "Showdown"
	default:
		return "Unknown"
	}
}

// onEnter runs the entry action for the state the Room is transitioning
// into.
func (r *Room) onEnter(k Kind) {
	switch k {
	case StateLobby:
		r.enterLobby()
	case StateDealing:
		r.enterDealing()
	case StateCommunityCard:
		r.enterCommunityCard()
	case StateBetting:
		r.enterBetting()
	case StateShowdown:
		r.enterShowdown()
	}
}

// onTick runs the current state's per-tick check and returns the next
// state to transition to, if any.
func (r *Room) onTick() (Kind, bool) {
	switch r.state {
	case StateLobby:
		return r.tickLobby()
	case StateDealing:
		return r.tickDealing()
	case StateCommunityCard:
		return r.tickCommunityCard()
	case StateBetting:
		return r.tickBetting()
	case StateShowdown:
		return r.tickShowdown()
	}
	return r.state, false
}

// onLeave runs cleanup for the state the Room is transitioning out of.
// None of the current states need it, but the hook exists so a future
// state can add one without restructuring the tick loop.
func (r *Room) onLeave(k Kind) {}

// transitionTo drives the Enter -> Tick* -> Leave sequence so that no
// single tick straddles a state transition.
func (r *Room) transitionTo(next Kind) {
	r.onLeave(r.state)
	r.state = next
	r.log.Debug().Int(logging.RoomIDKey, r.ID).Str("state", next.String()).Msg("room state transition")
	r.onEnter(next)
}

// --- Lobby -----------------------------------------------------------

func (r *Room) enterLobby() {
	for i := range r.seats {
		s := &r.seats[i]
		if s.Occupied && s.Conn == nil {
			s.Clear()
			continue
		}
		if s.Occupied {
			s.ResetForNewGame()
		}
	}
	r.pot = 0
	r.communityCount = 0
	r.community = [5]poker.Card{}
	r.deck.Reset()
	r.roomLocked = false
	r.currentActor = -1
}

func (r *Room) tickLobby() (Kind, bool) {
	active := 0
	allReady := true
	for i := range r.seats {
		if !r.seats[i].IsActive() {
			continue
		}
		active++
		if !r.seats[i].IsReady {
			allReady = false
		}
	}
	if active >= 2 && allReady {
		return StateDealing, true
	}
	return r.state, false
}

// --- Dealing -----------------------------------------------------------

func (r *Room) enterDealing() {
	r.roomLocked = true
	r.broadcast(protocol.NoPayloadMsg(protocol.CodeGMST))
	for i := range r.seats {
		s := &r.seats[i]
		if !s.IsActive() || !s.IsReady {
			continue
		}
		c1, c2 := r.deck.Draw(), r.deck.Draw()
		s.Hand = [2]poker.Card{c1, c2}
		s.HasHand = true
		r.log.Debug().Int(logging.SeatKey, i).Str(logging.NicknameKey, s.Nickname).Str("card1", c1.String()).Str("card2", c2.String()).Msg("dealt hole cards")
		s.Conn.Send(protocol.WithPayload(protocol.CodeCDTP, protocol.EncodeCDTP(int(c1), int(c2))))
	}
	r.roundPhase = PhasePreFlop
}

func (r *Room) tickDealing() (Kind, bool) {
	return StateBetting, true
}

// --- CommunityCard -----------------------------------------------------

func (r *Room) enterCommunityCard() {
	var draws int
	switch r.roundPhase {
	case PhasePreFlop:
		draws = 3
		r.roundPhase = PhaseFlop
	case PhaseFlop:
		draws = 1
		r.roundPhase = PhaseTurn
	case PhaseTurn:
		draws = 1
		r.roundPhase = PhaseRiver
	}
	for i := 0; i < draws; i++ {
		c := r.deck.Draw()
		r.community[r.communityCount] = c
		r.communityCount++
		r.broadcast(protocol.WithPayload(protocol.CodeCRVR, protocol.EncodeCRVR(int(c))))
	}
}

func (r *Room) tickCommunityCard() (Kind, bool) {
	return StateBetting, true
}

// --- Betting -------------------------------------------------------

func (r *Room) enterBetting() {
	r.broadcast(protocol.NoPayloadMsg(protocol.CodeGMRD))
	for i := range r.seats {
		r.seats[i].ResetRound()
	}
	r.currentHighBet = 0
	r.hasBet = false
	r.actionQueue = r.buildInitialActionQueue()
	r.startNextTurn()
}

func (r *Room) tickBetting() (Kind, bool) {
	if r.currentActor == -1 {
		if r.roundPhase == PhaseRiver {
			return StateShowdown, true
		}
		return StateCommunityCard, true
	}
	if !r.turnDeadline.IsZero() && nowFn().After(r.turnDeadline) {
		r.autoFoldCurrentActor()
	}
	return r.state, false
}

// --- Showdown --------------------------------------------------------

func (r *Room) enterShowdown() {
	r.runShowdown()
	r.showdownDeadline = nowFn().Add(r.tun.ShowdownAckTimeout)
}

func (r *Room) tickShowdown() (Kind, bool) {
	allAcked := true
	for i := range r.seats {
		if r.seats[i].IsActive() && !r.seats[i].ShowdownAck {
			allAcked = false
			break
		}
	}
	if allAcked || nowFn().After(r.showdownDeadline) {
		r.broadcast(protocol.NoPayloadMsg(protocol.CodeGMDN))
		return StateLobby, true
	}
	return r.state, false
}
