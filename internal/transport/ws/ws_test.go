package ws_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prodline/internal/domain/event"
	"github.com/alanyang/prodline/internal/transport/ws"
)

func init() { gin.SetMode(gin.TestMode) }

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *ws.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastFiltersByProject(t *testing.T) {
	hub := ws.NewHub()
	r := gin.New()
	hub.Register(r.Group("/ws"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	mine := uuid.New()
	all := dial(t, srv, "")
	scoped := dial(t, srv, "?project_id="+mine.String())
	waitClients(t, hub, 2)

	other := event.New(event.TypeTaskCompleted, uuid.New(), uuid.New())
	hub.Broadcast(other)
	own := event.New(event.TypeTaskActivated, uuid.New(), mine)
	hub.Broadcast(own)

	read := func(conn *websocket.Conn) event.Event {
		conn.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var e event.Event
		require.NoError(t, json.Unmarshal(data, &e))
		return e
	}

	assert.Equal(t, event.TypeTaskCompleted, read(all).Type)
	assert.Equal(t, event.TypeTaskActivated, read(all).Type)
	got := read(scoped)
	assert.Equal(t, event.TypeTaskActivated, got.Type, "scoped client skips other projects")
	assert.Equal(t, mine, got.ProjectID)
}

func TestHub_RejectsBadProjectID(t *testing.T) {
	hub := ws.NewHub()
	r := gin.New()
	hub.Register(r.Group("/ws"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?project_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}
