package logstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(logger.NewWithWriter(io.Discard, "error", "text"))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	before := hub.ClientCount()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/log" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() > before }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestWriter_PublishesLines(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, "")

	w := hub.Writer("op-1", "build")
	_, err := w.Write([]byte("compiling\r\ndo"))
	require.NoError(t, err)
	_, err = w.Write([]byte("ne\ntail"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	for _, want := range []string{"compiling", "done", "tail"} {
		m := readMessage(t, conn)
		assert.Equal(t, want, m.Line)
		assert.Equal(t, "op-1", m.OperationID)
		assert.Equal(t, "build", m.Operation)
	}
}

func TestServeWS_FiltersByOperation(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, "?operation_id=op-2")

	hub.Publish(&Message{OperationID: "op-1", Line: "other"})
	hub.Publish(&Message{OperationID: "op-2", Line: "mine"})

	m := readMessage(t, conn)
	assert.Equal(t, "mine", m.Line)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, "")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
