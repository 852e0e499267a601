package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/handlers"
)

func dialStream(t *testing.T, s *testServer, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func readMessage(t *testing.T, conn *websocket.Conn) handlers.StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg handlers.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamPushesSnapshotAndNotices(t *testing.T) {
	s := newTestServer(t)

	conn, _, err := dialStream(t, s, "?detail=1", nil)
	require.NoError(t, err)

	snap := readMessage(t, conn)
	assert.Equal(t, handlers.MessageSnapshot, snap.Type)
	assert.Equal(t, cache.ServiceDetail("1"), snap.Key)
	require.IsType(t, map[string]any{}, snap.Data)
	assert.Equal(t, "User Authentication API", snap.Data.(map[string]any)["name"])

	_, err = s.deps.Services.PollStatuses(context.Background())
	require.NoError(t, err)

	for {
		msg := readMessage(t, conn)
		if msg.Key != cache.StatusPolling() {
			continue
		}
		assert.Equal(t, handlers.MessageNotice, msg.Type)
		assert.Equal(t, cache.Written, msg.Kind)
		require.IsType(t, []any{}, msg.Data)
		assert.Len(t, msg.Data, 6)
		break
	}
}

func TestStreamUnknownDetail(t *testing.T) {
	s := newTestServer(t)

	conn, _, err := dialStream(t, s, "?detail=nope", nil)
	require.NoError(t, err)

	msg := readMessage(t, conn)
	assert.Equal(t, handlers.MessageError, msg.Type)
	assert.Equal(t, "service nope not found (404)", msg.Error)
}

func TestStreamRejectsUnlistedOrigin(t *testing.T) {
	s := newTestServer(t, "http://dash.test")

	header := http.Header{}
	header.Set("Origin", "http://evil.test")
	_, resp, err := dialStream(t, s, "", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
