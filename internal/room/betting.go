package room

import (
	"voyager.com/pokerd/internal/logging"
	"voyager.com/pokerd/internal/poker"
	"voyager.com/pokerd/internal/protocol"
)

// buildInitialActionQueue walks seats starting at dealer_idx+1,
// wrapping once, including only active, not-folded, ready seats.
func (r *Room) buildInitialActionQueue() []int {
	return r.buildActionQueueFrom(r.dealerIdx+1, -1)
}

// buildActionQueueFrom walks max_seats slots starting at from
// (wrapping), including every active, not-folded, ready seat except exclude
// (pass -1 to exclude none). Used both for the initial Betting queue
// and for rebuilding after a BETT raise.
func (r *Room) buildActionQueueFrom(from, exclude int) []int {
	n := len(r.seats)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		if idx == exclude {
			continue
		}
		s := &r.seats[idx]
		if s.IsActive() && !s.IsFolded && s.IsReady {
			queue = append(queue, idx)
		}
	}
	return queue
}

// startNextTurn pops the front of the action queue, skipping seats
// that have since gone inactive or folded, and installs the result as
// current_actor. An exhausted queue sets current_actor = -1.
func (r *Room) startNextTurn() {
	for len(r.actionQueue) > 0 {
		idx := r.actionQueue[0]
		r.actionQueue = r.actionQueue[1:]
		s := &r.seats[idx]
		if !s.IsActive() || s.IsFolded {
			continue
		}
		r.currentActor = idx
		r.turnDeadline = nowFn().Add(r.tun.TurnTimeout)
		r.broadcast(protocol.WithPayload(protocol.CodePTRN, protocol.EncodeNicknameOnly(s.Nickname)))
		return
	}
	r.currentActor = -1
}

// completeTurn advances to the next queued actor after a betting
// action has been applied.
func (r *Room) completeTurn() {
	r.startNextTurn()
}

func (r *Room) autoFoldCurrentActor() {
	idx := r.currentActor
	if idx == -1 {
		return
	}
	s := &r.seats[idx]
	s.IsFolded = true
	s.LastAction = protocol.ActionFold
	s.LastActionAmount = 0
	r.log.Debug().Int(logging.SeatKey, idx).Str(logging.NicknameKey, s.Nickname).Msg("turn timeout, auto-folding")
	r.broadcast(protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(s.Nickname, protocol.ActionFold, 0)))
	r.completeTurn()
}

// dispatchBetting routes a Betting-state message from seatIdx. A
// message from any seat other than current_actor gets NYET and is
// otherwise ignored.
func (r *Room) dispatchBetting(seatIdx int, msg protocol.Message) {
	if seatIdx != r.currentActor {
		r.seats[seatIdx].Conn.Send(protocol.NoPayloadMsg(protocol.CodeNYET))
		return
	}
	s := &r.seats[seatIdx]
	switch msg.Code {
	case protocol.CodeFOLD:
		r.actionFold(s)
	case protocol.CodeCHCK:
		r.actionCheck(s)
	case protocol.CodeCALL:
		r.actionCall(s)
	case protocol.CodeBETT:
		r.actionBet(s, msg.Payload)
	default:
		r.log.Debug().Str("code", msg.Code).Msg("unexpected message in Betting state")
		s.Conn.ForceDisconnect()
	}
}

func (r *Room) actionFold(s *Seat) {
	s.IsFolded = true
	s.LastAction = protocol.ActionFold
	s.LastActionAmount = 0
	s.Conn.Send(protocol.NoPayloadMsg(protocol.CodeACOK))
	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(s.Nickname, protocol.ActionFold, 0)))
	r.completeTurn()
}

func (r *Room) actionCheck(s *Seat) {
	if r.currentHighBet > s.RoundBet {
		s.Conn.Send(protocol.WithPayload(protocol.CodeACFL, protocol.EncodeACFL("Cannot check, must call")))
		return
	}
	s.LastAction = protocol.ActionCheck
	s.LastActionAmount = 0
	s.Conn.Send(protocol.NoPayloadMsg(protocol.CodeACOK))
	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(s.Nickname, protocol.ActionCheck, 0)))
	r.completeTurn()
}

func (r *Room) actionCall(s *Seat) {
	owed := r.currentHighBet - s.RoundBet
	if owed < 0 {
		owed = 0
	}
	if owed == 0 {
		// Nothing owed: treat CALL as an implicit check rather than
		// rejecting it outright.
		s.LastAction = protocol.ActionCheck
		s.LastActionAmount = 0
		s.Conn.Send(protocol.NoPayloadMsg(protocol.CodeACOK))
		r.broadcastExcept(s, protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(s.Nickname, protocol.ActionCheck, 0)))
		r.completeTurn()
		return
	}

	pay := owed
	if pay > s.Chips {
		pay = s.Chips // all-in
	}
	s.Chips -= pay
	s.RoundBet += pay
	r.pot += pay
	s.LastAction = protocol.ActionCall
	s.LastActionAmount = pay
	s.Conn.Send(protocol.NoPayloadMsg(protocol.CodeACOK))
	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(s.Nickname, protocol.ActionCall, pay)))
	r.completeTurn()
}

func (r *Room) actionBet(s *Seat, payload []byte) {
	if r.hasBet {
		s.Conn.Send(protocol.WithPayload(protocol.CodeACFL, protocol.EncodeACFL("Cannot raise (limit 1 bet/round)")))
		return
	}
	amount, err := protocol.DecodeBETT(payload)
	if err != nil {
		s.Conn.Send(protocol.WithPayload(protocol.CodeACFL, protocol.EncodeACFL("Bet amount required")))
		return
	}
	if amount <= 0 || amount > s.Chips {
		s.Conn.Send(protocol.WithPayload(protocol.CodeACFL, protocol.EncodeACFL("Bet amount required")))
		return
	}

	s.Chips -= amount
	s.RoundBet += amount
	r.pot += amount
	r.currentHighBet = s.RoundBet
	r.hasBet = true
	s.LastAction = protocol.ActionBet
	s.LastActionAmount = amount

	aggressorIdx := r.indexOf(s)
	r.actionQueue = r.buildActionQueueFrom(aggressorIdx+1, aggressorIdx)

	s.Conn.Send(protocol.NoPayloadMsg(protocol.CodeACOK))
	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePACT, protocol.EncodePACT(s.Nickname, protocol.ActionBet, amount)))
	r.completeTurn()
}

func (r *Room) indexOf(s *Seat) int {
	for i := range r.seats {
		if &r.seats[i] == s {
			return i
		}
	}
	return -1
}

// runShowdown builds and broadcasts SDWN, then scores every non-folded
// occupied seat to determine a winner. When every other seat has
// folded, the sole survivor wins uncontested with no separate
// "all others folded" message.
func (r *Room) runShowdown() {
	var blocks []protocol.SDWNSeat
	for i := range r.seats {
		s := &r.seats[i]
		if !s.Occupied || !s.HasHand {
			continue
		}
		blocks = append(blocks, protocol.SDWNSeat{
			Nickname: s.Nickname,
			Card1:    int(s.Hand[0]),
			Card2:    int(s.Hand[1]),
		})
	}
	r.broadcast(protocol.WithPayload(protocol.CodeSDWN, protocol.EncodeSDWN(blocks)))

	var community [5]poker.Card
	copy(community[:], r.community[:])

	bestIdx := -1
	var bestScore poker.Score
	for i := range r.seats {
		s := &r.seats[i]
		if !s.Occupied || s.IsFolded || !s.HasHand {
			continue
		}
		score := poker.Evaluate(s.Hand, community)
		if bestIdx == -1 || poker.Compare(score, bestScore) > 0 {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx >= 0 {
		winner := &r.seats[bestIdx]
		winner.Chips += r.pot
		r.broadcast(protocol.WithPayload(protocol.CodeGWIN, protocol.EncodeGWIN(winner.Nickname, r.pot)))
	}
	r.pot = 0
}

// handleReady processes RDY1 in the Lobby state.
func (r *Room) handleReady(s *Seat) {
	s.IsReady = true
	s.Conn.Send(protocol.NoPayloadMsg(protocol.CodeACOK))
	r.broadcastExcept(s, protocol.WithPayload(protocol.CodePRDY, protocol.EncodeNicknameOnly(s.Nickname)))
}

// handleShowdownAck processes SDOK in the Showdown state.
func (r *Room) handleShowdownAck(s *Seat) {
	s.ShowdownAck = true
}
