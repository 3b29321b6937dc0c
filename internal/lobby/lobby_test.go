package lobby

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voyager.com/pokerd/internal/config"
	"voyager.com/pokerd/internal/protocol"
	"voyager.com/pokerd/internal/room"
	"voyager.com/pokerd/internal/transport"
)

func testTunables() config.Tunables {
	tun := config.DefaultTunables()
	tun.MaxSeats = 2
	tun.RoomTick = time.Millisecond
	tun.LobbyTick = time.Millisecond
	return tun
}

func pipeConn() (*transport.Connection, net.Conn) {
	server, client := net.Pipe()
	return transport.New(server, 8, 8), client
}

func readFrame(t *testing.T, conn net.Conn) string {
	t.Helper()
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestHandshakeAndRoomListingHappyPath(t *testing.T) {
	tun := testTunables()
	r := room.New(1, "Table One", tun, rand.NewSource(1))
	l := New([]*room.Room{r}, tun)

	conn, client := pipeConn()
	defer client.Close()

	l.dispatch(conn, protocol.WithPayload(protocol.CodeCONN, protocol.EncodeCONN("Alice")))
	require.Equal(t, "PKRNPNOK\n", readFrame(t, client))
	require.Equal(t, transport.StateAwaitingRooms, conn.State)

	l.dispatch(conn, protocol.WithPayload(protocol.CodePINF, protocol.EncodePINF(2500)))
	require.Equal(t, "PKRNPIOK\n", readFrame(t, client))
	require.Equal(t, transport.StateAwaitingJoin, conn.State)
	require.Equal(t, int64(2500), conn.Chips)

	l.dispatch(conn, protocol.NoPayloadMsg(protocol.CodeRMRQ))
	require.Equal(t, transport.StateSendingRooms, conn.State)
	frame := readFrame(t, client)
	require.Contains(t, frame, protocol.CodeROOM)

	l.dispatch(conn, protocol.NoPayloadMsg(protocol.CodeRMOK))
	require.Equal(t, "PKRNDONE\n", readFrame(t, client))
	require.Equal(t, transport.StateAwaitingJoin, conn.State)

	transferred := l.dispatch(conn, protocol.WithPayload(protocol.CodeJOIN, protocol.EncodeJOIN(1)))
	require.True(t, transferred)
	require.Equal(t, "PKRNJNOK\n", readFrame(t, client))
}

func TestJoinUnknownRoomFails(t *testing.T) {
	tun := testTunables()
	r := room.New(1, "Table One", tun, rand.NewSource(1))
	l := New([]*room.Room{r}, tun)

	conn, client := pipeConn()
	defer client.Close()
	conn.State = transport.StateAwaitingJoin

	transferred := l.dispatch(conn, protocol.WithPayload(protocol.CodeJOIN, protocol.EncodeJOIN(99)))
	require.False(t, transferred)
	require.Equal(t, "PKRNJNFL\n", readFrame(t, client))
}

func TestUnexpectedMessageIsRejected(t *testing.T) {
	tun := testTunables()
	r := room.New(1, "Table One", tun, rand.NewSource(1))
	l := New([]*room.Room{r}, tun)

	conn, client := pipeConn()
	defer client.Close()

	l.dispatch(conn, protocol.NoPayloadMsg(protocol.CodeRMRQ)) // Connected doesn't accept RMRQ
	require.Equal(t, "PKRNFAIL\n", readFrame(t, client))
	require.Eventually(t, conn.IsDisconnected, time.Second, 5*time.Millisecond)
}

func TestReconnectRoutesToHoldingRoom(t *testing.T) {
	tun := testTunables()
	r := room.New(1, "Table One", tun, rand.NewSource(1))
	l := New([]*room.Room{r}, tun)

	stop := make(chan struct{})
	defer close(stop)
	go r.Run(stop)

	original, originalClient := pipeConn()
	original.Nickname = "Alice"
	original.Chips = 750
	require.True(t, r.Push(original))

	require.Eventually(t, func() bool {
		return r.Snapshot().Occupied == 1
	}, time.Second, 5*time.Millisecond, "original connection must be seated")

	original.ForceDisconnect()
	originalClient.Close()

	require.Eventually(t, func() bool {
		return r.HasDisconnectedSeatFor("Alice")
	}, time.Second, 5*time.Millisecond, "seat must detach its dead connection")

	newConn, newClient := pipeConn()
	defer newClient.Close()

	l.dispatch(newConn, protocol.WithPayload(protocol.CodeCONN, protocol.EncodeCONN("Alice")))
	require.Equal(t, "PKRNRCON\n", readFrame(t, newClient))
	require.Equal(t, transport.StateAwaitingReconnect, newConn.State)
	require.Equal(t, 1, newConn.ReconnectRoomHint)

	transferred := l.dispatch(newConn, protocol.NoPayloadMsg(protocol.CodeRCON))
	require.True(t, transferred)
}

func TestTickSweepsTransferredAndDisconnectedConnections(t *testing.T) {
	tun := testTunables()
	r := room.New(1, "Table One", tun, rand.NewSource(1))
	l := New([]*room.Room{r}, tun)

	stop := make(chan struct{})
	defer close(stop)
	go r.Run(stop)

	joiner, joinerClient := pipeConn()
	defer joinerClient.Close()
	joiner.Nickname = "Bob"
	l.Readmit(joiner)
	joiner.State = transport.StateAwaitingJoin

	dead, deadClient := pipeConn()
	deadClient.Close()
	l.Readmit(dead)

	require.True(t, joiner.Inbound.Push(protocol.WithPayload(protocol.CodeJOIN, protocol.EncodeJOIN(1)), 0))

	require.Eventually(t, dead.IsDisconnected, time.Second, 5*time.Millisecond)

	l.tick()

	l.mu.Lock()
	remaining := len(l.unseated)
	l.mu.Unlock()
	require.Equal(t, 0, remaining, "both the transferred joiner and the dead connection must be swept")
}
