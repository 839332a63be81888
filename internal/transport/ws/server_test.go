package ws

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/tuning"
)

func dial(t *testing.T, cfg Config) (*session.Hub, *websocket.Conn, func()) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	hub := session.NewHub(tuning.Defaults(), catalogs.Default(), nil, logger)
	srv := httptest.NewServer(NewServer(hub, cfg, logger).Handler())

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return hub, conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	typ, b, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, typ)
	m, n, err := protocol.Decode(b, protocol.DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, len(b), n, "one packet per message")
	return m
}

func TestWebsocketLoginAcrossMessages(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, conn, cleanup := dial(t, Config{IdleTimeout: time.Minute})
	defer cleanup()

	hs := protocol.Handshake{Version: protocol.Version, Username: "alex", Host: "localhost", Port: 80}
	pkt := hs.Encode()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pkt[:3]))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ignored")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pkt[3:]))

	login, ok := readMessage(t, conn).(*protocol.Login)
	require.True(t, ok)
	assert.Equal(t, uint8(20), login.MaxPlayers)
	require.Eventually(t, func() bool { return hub.Online() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebsocketKickClosesConnection(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, conn, cleanup := dial(t, Config{IdleTimeout: time.Minute})
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x99}))
	d, ok := readMessage(t, conn).(*protocol.Disconnect)
	require.True(t, ok)
	assert.Equal(t, "Unknown packet 0x99", d.Reason)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return hub.Stats().Sessions == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebsocketIdleTimeoutKicks(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, conn, cleanup := dial(t, Config{IdleTimeout: 100 * time.Millisecond, IdleReason: "Timed out"})
	defer cleanup()

	d, ok := readMessage(t, conn).(*protocol.Disconnect)
	require.True(t, ok)
	assert.Equal(t, "Timed out", d.Reason)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return hub.Stats().Sessions == 0 }, time.Second, 10*time.Millisecond)
}
