package room

import (
	"math/rand"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"voyager.com/pokerd/internal/config"
	"voyager.com/pokerd/internal/protocol"
	"voyager.com/pokerd/internal/transport"
)

func testTunables() config.Tunables {
	tun := config.DefaultTunables()
	tun.MaxSeats = 3
	return tun
}

// newTestRoom builds a Room via New, then replaces its seat table with
// seatCount empty seats so tests can populate seats directly.
func newTestRoom(t *testing.T, seatCount int) *Room {
	t.Helper()
	tun := testTunables()
	r := New(1, "Test Room", tun, rand.NewSource(1))
	r.seats = make([]Seat, seatCount)
	r.currentActor = -1
	return r
}

// seatWithConn occupies seats[idx] with a live Connection over a
// net.Pipe, returning the client end for reading server output.
func seatWithConn(t *testing.T, r *Room, idx int, nickname string, chips int64) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	c := transport.New(server, 8, 8)
	c.Nickname = nickname
	c.Chips = chips
	r.seats[idx] = Seat{
		Occupied: true,
		Nickname: nickname,
		Chips:    chips,
		IsReady:  true,
		Conn:     c,
	}
	return client
}

func readFrame(t *testing.T, conn net.Conn) string {
	t.Helper()
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

// extractPayload reparses a raw frame string into its payload bytes.
func extractPayload(t *testing.T, frame string) []byte {
	t.Helper()
	p := protocol.NewParser()
	res := p.Feed([]byte(frame))
	require.True(t, res.Done)
	require.NoError(t, res.Err)
	return res.Payload
}

func TestBuildInitialActionQueueSkipsInactiveNotReadyAndFolded(t *testing.T) {
	r := newTestRoom(t, 4)
	c0 := seatWithConn(t, r, 0, "A", 1000)
	defer c0.Close()
	c2 := seatWithConn(t, r, 2, "C", 1000)
	defer c2.Close()
	c3 := seatWithConn(t, r, 3, "D", 1000)
	defer c3.Close()
	r.seats[2].IsFolded = true // folded, excluded
	// seat 1 stays unoccupied (inactive), excluded

	r.dealerIdx = 3 // first actor should be seat 0
	queue := r.buildInitialActionQueue()
	require.Equal(t, []int{0, 3}, queue)
}

func TestBettingRoundBetCallFold(t *testing.T) {
	r := newTestRoom(t, 3)
	c0 := seatWithConn(t, r, 0, "A", 5000)
	defer c0.Close()
	c1 := seatWithConn(t, r, 1, "B", 5000)
	defer c1.Close()
	c2 := seatWithConn(t, r, 2, "C", 5000)
	defer c2.Close()

	r.dealerIdx = 2
	r.roundPhase = PhasePreFlop
	r.enterBetting()
	require.Equal(t, 0, r.currentActor)

	r.dispatchBetting(0, protocol.WithPayload(protocol.CodeBETT, protocol.EncodeBETT(1000)))
	require.True(t, r.hasBet)
	require.Equal(t, int64(1000), r.currentHighBet)
	require.Equal(t, int64(1000), r.pot)
	require.Equal(t, 1, r.currentActor)

	r.dispatchBetting(1, protocol.NoPayloadMsg(protocol.CodeCALL))
	require.Equal(t, int64(2000), r.pot)
	require.Equal(t, int64(1000), r.seats[1].RoundBet)
	require.Equal(t, 2, r.currentActor)

	r.dispatchBetting(2, protocol.NoPayloadMsg(protocol.CodeFOLD))
	require.True(t, r.seats[2].IsFolded)
	require.Equal(t, -1, r.currentActor)

	next, ok := r.tickBetting()
	require.True(t, ok)
	require.Equal(t, StateCommunityCard, next)
}

func TestActionCheckRejectedWhenMustCall(t *testing.T) {
	r := newTestRoom(t, 2)
	c0 := seatWithConn(t, r, 0, "A", 1000)
	defer c0.Close()
	c1 := seatWithConn(t, r, 1, "B", 1000)
	defer c1.Close()

	r.dealerIdx = 1
	r.currentHighBet = 200
	r.seats[0].RoundBet = 0
	r.currentActor = 0

	r.dispatchBetting(0, protocol.NoPayloadMsg(protocol.CodeCHCK))
	frame := readFrame(t, c0)
	require.Contains(t, frame, protocol.CodeACFL)
	require.Equal(t, 0, r.currentActor, "rejected check must not advance the turn")
}

func TestActionCallWithNothingOwedNormalizesToCheck(t *testing.T) {
	r := newTestRoom(t, 2)
	c0 := seatWithConn(t, r, 0, "A", 1000)
	defer c0.Close()
	c1 := seatWithConn(t, r, 1, "B", 1000)
	defer c1.Close()

	r.dealerIdx = 1
	r.currentHighBet = 0
	r.seats[0].RoundBet = 0
	r.currentActor = 0

	r.dispatchBetting(0, protocol.NoPayloadMsg(protocol.CodeCALL))
	readFrame(t, c0) // ACOK

	frame := readFrame(t, c1)
	require.Contains(t, frame, protocol.CodePACT)
	pact, err := protocol.DecodePACT(extractPayload(t, frame))
	require.NoError(t, err)
	require.Equal(t, protocol.ActionCheck, pact.Action, "CALL with nothing owed must broadcast as a check")
	require.Equal(t, int64(0), pact.Amount)
	require.Equal(t, protocol.ActionCheck, r.seats[0].LastAction)
	require.Equal(t, int64(1000), r.seats[0].Chips, "no chips should move on an implicit check")
}

func TestTurnViolationSendsNyet(t *testing.T) {
	r := newTestRoom(t, 2)
	c0 := seatWithConn(t, r, 0, "A", 1000)
	defer c0.Close()
	c1 := seatWithConn(t, r, 1, "B", 1000)
	defer c1.Close()
	r.currentActor = 1

	r.dispatchBetting(0, protocol.NoPayloadMsg(protocol.CodeCHCK))
	frame := readFrame(t, c0)
	require.Contains(t, frame, protocol.CodeNYET)
}

func TestShowdownAwardsPotToSoleSurvivor(t *testing.T) {
	r := newTestRoom(t, 2)
	c0 := seatWithConn(t, r, 0, "A", 500)
	defer c0.Close()
	c1 := seatWithConn(t, r, 1, "B", 500)
	defer c1.Close()

	r.seats[0].HasHand = true
	r.seats[1].HasHand = true
	r.seats[1].IsFolded = true
	r.pot = 300

	r.runShowdown()

	sawGwin := false
	for i := 0; i < 4; i++ {
		frame := readFrame(t, c0)
		if strings.Contains(frame, protocol.CodeGWIN) {
			sawGwin = true
			break
		}
	}
	require.True(t, sawGwin, "winner must receive a GWIN broadcast")
	require.Equal(t, int64(800), r.seats[0].Chips, "pot must be added to the sole survivor's stack")
	require.Equal(t, int64(0), r.pot)
}

func TestReconnectByNicknamePreservesSeatState(t *testing.T) {
	r := newTestRoom(t, 2)
	r.seats[0] = Seat{
		Occupied: true,
		Nickname: "Alice",
		Chips:    750,
		HasHand:  true,
		IsReady:  true,
		Conn:     nil, // disconnected, awaiting reconnect
	}

	newServer, newClient := net.Pipe()
	defer newClient.Close()
	newConn := transport.New(newServer, 8, 8)
	newConn.Nickname = "Alice"
	newConn.Chips = 999 // handshake chips must NOT overwrite the persisted seat chips

	r.seatNewArrival(newConn)

	readFrame(t, newClient) // RMST snapshot

	require.Equal(t, newConn, r.seats[0].Conn)
	require.Equal(t, int64(750), r.seats[0].Chips, "reconnect must preserve the seat's original chip count")
	require.True(t, r.seats[0].HasHand)
}

func TestStartNextTurnSkipsFoldedSeats(t *testing.T) {
	r := newTestRoom(t, 3)
	c0 := seatWithConn(t, r, 0, "A", 1000)
	defer c0.Close()
	c2 := seatWithConn(t, r, 2, "C", 1000)
	defer c2.Close()
	// seat 1 occupied but folds before its turn arrives
	c1 := seatWithConn(t, r, 1, "B", 1000)
	defer c1.Close()
	r.seats[1].IsFolded = true

	r.actionQueue = []int{1, 2}
	r.startNextTurn()
	require.Equal(t, 2, r.currentActor, "folded seat must be skipped")
}
