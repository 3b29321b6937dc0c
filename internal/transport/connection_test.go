package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voyager.com/pokerd/internal/protocol"
)

func pipePair() (*Connection, net.Conn) {
	server, client := net.Pipe()
	c := New(server, 8, 8)
	return c, client
}

func TestConnectionReceivesFramedMessage(t *testing.T) {
	c, client := pipePair()
	defer client.Close()

	frame := protocol.EncodeFrame(protocol.CodeRDY1, nil, false)
	go client.Write(frame)

	msg, ok := c.Inbound.Pop()
	require.True(t, ok)
	require.Equal(t, protocol.CodeRDY1, msg.Code)
}

func TestConnectionSendWritesFrame(t *testing.T) {
	c, client := pipePair()
	defer client.Close()

	c.Send(protocol.NoPayloadMsg(protocol.CodeACOK))

	buf := make([]byte, 64)
	n, err := client.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "PKRNACOK\n", string(buf[:n]))
}

func TestConnectionPingSwallowedNotSurfaced(t *testing.T) {
	c, client := pipePair()
	defer client.Close()

	go client.Write(protocol.EncodeFrame(protocol.CodePING, nil, false))
	go client.Write(protocol.EncodeFrame(protocol.CodeRDY1, nil, false))

	msg, ok := c.Inbound.Pop()
	require.True(t, ok)
	require.Equal(t, protocol.CodeRDY1, msg.Code, "PING must never be surfaced to the inbound queue")
}

func TestConnectionFramingErrorDisconnects(t *testing.T) {
	c, client := pipePair()
	defer client.Close()

	go client.Write([]byte("XKRNRDY1\n"))

	require.Eventually(t, c.IsDisconnected, time.Second, 5*time.Millisecond)
}

func TestConnectionPingTickTimesOut(t *testing.T) {
	c, client := pipePair()
	defer client.Close()

	// the first tick sends a PING and arms pingPending
	c.PingTick()
	require.False(t, c.IsDisconnected())

	// the client never answers; the next tick finds pingPending still set
	c.PingTick()
	require.True(t, c.IsDisconnected())
}

func TestConnectionInboundPingClearsPending(t *testing.T) {
	c, client := pipePair()
	defer client.Close()

	c.PingTick()
	require.False(t, c.IsDisconnected())

	go client.Write(protocol.EncodeFrame(protocol.CodePING, nil, false))
	require.Eventually(t, func() bool {
		return !c.pingPending.Load()
	}, time.Second, 5*time.Millisecond)

	c.PingTick()
	require.False(t, c.IsDisconnected())
}

func TestConnectionCloseTornsDownQueues(t *testing.T) {
	c, client := pipePair()
	client.Close()

	require.Eventually(t, c.IsDisconnected, time.Second, 5*time.Millisecond)
	_, ok := c.Inbound.Pop()
	require.False(t, ok)
}
