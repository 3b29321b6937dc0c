package protocol

import "github.com/pkg/errors"

// Message is an immutable parsed frame.
type Message struct {
	Code    string
	Payload []byte // nil for no-payload messages
}

// Encode serializes m into its wire frame.
func (m Message) Encode() []byte {
	return EncodeFrame(m.Code, m.Payload, HasPayload(m.Code))
}

// NoPayloadMsg builds a Message for a code that never carries a payload.
func NoPayloadMsg(code string) Message {
	return Message{Code: code}
}

// WithPayload builds a Message for a code that carries payload.
func WithPayload(code string, payload []byte) Message {
	return Message{Code: code, Payload: payload}
}

// --- per-message payload helpers -----------------------------------
//
// Each Encode* is a total function and each Decode* is partial,
// returning an error on any malformed field (short buffer, non-digit,
// bad var_int, overrun length).

// EncodeCONN builds CONN's payload: net_str nickname.
func EncodeCONN(nickname string) []byte {
	return []byte(EncodeNetStr(nickname))
}

// DecodeCONN parses CONN's payload.
func DecodeCONN(payload []byte) (nickname string, err error) {
	nickname, _, err = DecodeNetStr(payload)
	return nickname, err
}

// EncodePINF builds PINF's payload: var_int chips.
func EncodePINF(chips int64) []byte {
	return []byte(EncodeVarInt(chips))
}

// DecodePINF parses PINF's payload.
func DecodePINF(payload []byte) (chips int64, err error) {
	chips, _, err = DecodeVarInt(payload)
	return chips, err
}

// EncodeROOM builds ROOM's payload: bg_int id · net_str name ·
// sm_int occupied · sm_int capacity.
func EncodeROOM(id int, name string, occupied, capacity int) []byte {
	out := EncodeBgInt(id) + EncodeNetStr(name) + EncodeSmInt(occupied) + EncodeSmInt(capacity)
	return []byte(out)
}

// RoomInfo is the decoded form of a ROOM payload.
type RoomInfo struct {
	ID       int
	Name     string
	Occupied int
	Capacity int
}

// DecodeROOM parses ROOM's payload.
func DecodeROOM(payload []byte) (RoomInfo, error) {
	var info RoomInfo
	id, n, err := DecodeBgInt(payload)
	if err != nil {
		return info, err
	}
	payload = payload[n:]
	name, n, err := DecodeNetStr(payload)
	if err != nil {
		return info, err
	}
	payload = payload[n:]
	occ, n, err := DecodeSmInt(payload)
	if err != nil {
		return info, err
	}
	payload = payload[n:]
	cap_, _, err := DecodeSmInt(payload)
	if err != nil {
		return info, err
	}
	info = RoomInfo{ID: id, Name: name, Occupied: occ, Capacity: cap_}
	return info, nil
}

// EncodeJOIN builds JOIN's payload: bg_int room_id.
func EncodeJOIN(roomID int) []byte {
	return []byte(EncodeBgInt(roomID))
}

// DecodeJOIN parses JOIN's payload.
func DecodeJOIN(payload []byte) (roomID int, err error) {
	roomID, _, err = DecodeBgInt(payload)
	return roomID, err
}

// SeatBlock is the per-seat block repeated in RMST and sent alone as
// PJIN's payload: net_str
// nickname · var_int chips · sm_int folded · sm_int ready ·
// sm_int is_current_turn · sm_int action · var_int action_amount ·
// var_int round_bet · var_int total_bet.
type SeatBlock struct {
	Nickname        string
	Chips           int64
	Folded          bool
	Ready           bool
	IsCurrentTurn   bool
	Action          Action
	ActionAmount    int64
	RoundBet        int64
	TotalBet        int64
}

func boolToSmInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Encode serializes a SeatBlock.
func (s SeatBlock) Encode() string {
	return EncodeNetStr(s.Nickname) +
		EncodeVarInt(s.Chips) +
		EncodeSmInt(boolToSmInt(s.Folded)) +
		EncodeSmInt(boolToSmInt(s.Ready)) +
		EncodeSmInt(boolToSmInt(s.IsCurrentTurn)) +
		EncodeSmInt(int(s.Action)) +
		EncodeVarInt(s.ActionAmount) +
		EncodeVarInt(s.RoundBet) +
		EncodeVarInt(s.TotalBet)
}

// DecodeSeatBlock parses one SeatBlock from the front of payload,
// returning the block and the number of bytes consumed.
func DecodeSeatBlock(payload []byte) (SeatBlock, int, error) {
	var s SeatBlock
	total := 0

	nick, n, err := DecodeNetStr(payload)
	if err != nil {
		return s, 0, err
	}
	s.Nickname = nick
	payload, total = payload[n:], total+n

	chips, n, err := DecodeVarInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.Chips = chips
	payload, total = payload[n:], total+n

	folded, n, err := DecodeSmInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.Folded = folded != 0
	payload, total = payload[n:], total+n

	ready, n, err := DecodeSmInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.Ready = ready != 0
	payload, total = payload[n:], total+n

	turn, n, err := DecodeSmInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.IsCurrentTurn = turn != 0
	payload, total = payload[n:], total+n

	action, n, err := DecodeSmInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.Action = Action(action)
	payload, total = payload[n:], total+n

	amt, n, err := DecodeVarInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.ActionAmount = amt
	payload, total = payload[n:], total+n

	roundBet, n, err := DecodeVarInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.RoundBet = roundBet
	payload, total = payload[n:], total+n

	totalBet, n, err := DecodeVarInt(payload)
	if err != nil {
		return s, 0, err
	}
	s.TotalBet = totalBet
	total += n

	return s, total, nil
}

// RMSTPayload is the decoded/encoded form of an RMST snapshot:
// var_int pot · var_int high_bet · sm_int cards_dealt · sm_int hole1 ·
// sm_int hole2 · sm_int n_community · sm_int·n_community ·
// sm_int n_seats · per-seat block.
type RMSTPayload struct {
	Pot            int64
	HighBet        int64
	CardsDealt     int // 0 or 1: whether hole1/hole2 are meaningful
	Hole1, Hole2   int
	Community      []int
	Seats          []SeatBlock
}

// Encode serializes an RMST room snapshot.
func (r RMSTPayload) Encode() []byte {
	out := EncodeVarInt(r.Pot) + EncodeVarInt(r.HighBet) +
		EncodeSmInt(r.CardsDealt) + EncodeSmInt(r.Hole1) + EncodeSmInt(r.Hole2) +
		EncodeSmInt(len(r.Community))
	for _, c := range r.Community {
		out += EncodeSmInt(c)
	}
	out += EncodeSmInt(len(r.Seats))
	for _, s := range r.Seats {
		out += s.Encode()
	}
	return []byte(out)
}

// DecodeRMST parses an RMST room snapshot.
func DecodeRMST(payload []byte) (RMSTPayload, error) {
	var r RMSTPayload

	pot, n, err := DecodeVarInt(payload)
	if err != nil {
		return r, err
	}
	r.Pot = pot
	payload = payload[n:]

	high, n, err := DecodeVarInt(payload)
	if err != nil {
		return r, err
	}
	r.HighBet = high
	payload = payload[n:]

	dealt, n, err := DecodeSmInt(payload)
	if err != nil {
		return r, err
	}
	r.CardsDealt = dealt
	payload = payload[n:]

	h1, n, err := DecodeSmInt(payload)
	if err != nil {
		return r, err
	}
	r.Hole1 = h1
	payload = payload[n:]

	h2, n, err := DecodeSmInt(payload)
	if err != nil {
		return r, err
	}
	r.Hole2 = h2
	payload = payload[n:]

	nCommunity, n, err := DecodeSmInt(payload)
	if err != nil {
		return r, err
	}
	payload = payload[n:]

	r.Community = make([]int, 0, nCommunity)
	for i := 0; i < nCommunity; i++ {
		c, n, err := DecodeSmInt(payload)
		if err != nil {
			return r, err
		}
		r.Community = append(r.Community, c)
		payload = payload[n:]
	}

	nSeats, n, err := DecodeSmInt(payload)
	if err != nil {
		return r, err
	}
	payload = payload[n:]

	r.Seats = make([]SeatBlock, 0, nSeats)
	for i := 0; i < nSeats; i++ {
		sb, n, err := DecodeSeatBlock(payload)
		if err != nil {
			return r, err
		}
		r.Seats = append(r.Seats, sb)
		payload = payload[n:]
	}

	return r, nil
}

// EncodeNicknameOnly builds a bare net_str nickname payload (PRDY,
// PTRN).
func EncodeNicknameOnly(nickname string) []byte {
	return []byte(EncodeNetStr(nickname))
}

// DecodeNicknameOnly decodes a bare net_str nickname payload (PRDY,
// PTRN).
func DecodeNicknameOnly(payload []byte) (string, error) {
	s, _, err := DecodeNetStr(payload)
	return s, err
}

// EncodeCDTP builds CDTP's payload: sm_int card1 · sm_int card2 — the
// two hole cards dealt to a seat in one message.
func EncodeCDTP(card1, card2 int) []byte {
	return []byte(EncodeSmInt(card1) + EncodeSmInt(card2))
}

// DecodeCDTP parses CDTP's payload.
func DecodeCDTP(payload []byte) (card1, card2 int, err error) {
	card1, n, err := DecodeSmInt(payload)
	if err != nil {
		return 0, 0, err
	}
	card2, _, err = DecodeSmInt(payload[n:])
	return card1, card2, err
}

// EncodeCRVR builds CRVR's payload: sm_int card.
func EncodeCRVR(card int) []byte {
	return []byte(EncodeSmInt(card))
}

// DecodeCRVR parses CRVR's payload.
func DecodeCRVR(payload []byte) (card int, err error) {
	card, _, err = DecodeSmInt(payload)
	return card, err
}

// EncodeBETT builds BETT's payload: var_int amount.
func EncodeBETT(amount int64) []byte {
	return []byte(EncodeVarInt(amount))
}

// DecodeBETT parses BETT's payload.
func DecodeBETT(payload []byte) (amount int64, err error) {
	if len(payload) == 0 {
		return 0, errors.New("protocol: BETT payload required")
	}
	amount, _, err = DecodeVarInt(payload)
	return amount, err
}

// EncodeACFL builds ACFL's payload: net_str reason.
func EncodeACFL(reason string) []byte {
	return []byte(EncodeNetStr(reason))
}

// DecodeACFL parses ACFL's payload.
func DecodeACFL(payload []byte) (reason string, err error) {
	reason, _, err = DecodeNetStr(payload)
	return reason, err
}

// EncodePACT builds PACT's payload: net_str nickname · sm_int action
// · var_int amount.
func EncodePACT(nickname string, action Action, amount int64) []byte {
	return []byte(EncodeNetStr(nickname) + EncodeSmInt(int(action)) + EncodeVarInt(amount))
}

// PACTPayload is the decoded form of a PACT broadcast.
type PACTPayload struct {
	Nickname string
	Action   Action
	Amount   int64
}

// DecodePACT parses PACT's payload.
func DecodePACT(payload []byte) (PACTPayload, error) {
	var p PACTPayload
	nick, n, err := DecodeNetStr(payload)
	if err != nil {
		return p, err
	}
	p.Nickname = nick
	payload = payload[n:]

	action, n, err := DecodeSmInt(payload)
	if err != nil {
		return p, err
	}
	p.Action = Action(action)
	payload = payload[n:]

	amt, _, err := DecodeVarInt(payload)
	if err != nil {
		return p, err
	}
	p.Amount = amt
	return p, nil
}

// SDWNSeat is one (nickname, hole cards) entry in an SDWN broadcast.
type SDWNSeat struct {
	Nickname     string
	Card1, Card2 int
}

// EncodeSDWN builds SDWN's payload: sm_int n_seats · (net_str nick ·
// sm_int card1 · sm_int card2)·n.
func EncodeSDWN(seats []SDWNSeat) []byte {
	out := EncodeSmInt(len(seats))
	for _, s := range seats {
		out += EncodeNetStr(s.Nickname) + EncodeSmInt(s.Card1) + EncodeSmInt(s.Card2)
	}
	return []byte(out)
}

// DecodeSDWN parses SDWN's payload.
func DecodeSDWN(payload []byte) ([]SDWNSeat, error) {
	n, consumed, err := DecodeSmInt(payload)
	if err != nil {
		return nil, err
	}
	payload = payload[consumed:]

	seats := make([]SDWNSeat, 0, n)
	for i := 0; i < n; i++ {
		nick, c, err := DecodeNetStr(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[c:]

		card1, c, err := DecodeSmInt(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[c:]

		card2, c, err := DecodeSmInt(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[c:]

		seats = append(seats, SDWNSeat{Nickname: nick, Card1: card1, Card2: card2})
	}
	return seats, nil
}

// EncodeGWIN builds GWIN's payload: net_str winner · var_int pot.
func EncodeGWIN(winner string, pot int64) []byte {
	return []byte(EncodeNetStr(winner) + EncodeVarInt(pot))
}

// GWINPayload is the decoded form of a GWIN broadcast.
type GWINPayload struct {
	Winner string
	Pot    int64
}

// DecodeGWIN parses GWIN's payload.
func DecodeGWIN(payload []byte) (GWINPayload, error) {
	var g GWINPayload
	winner, n, err := DecodeNetStr(payload)
	if err != nil {
		return g, err
	}
	g.Winner = winner
	pot, _, err := DecodeVarInt(payload[n:])
	if err != nil {
		return g, err
	}
	g.Pot = pot
	return g, nil
}
