package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/session"
)

func newStreamServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager()
	stream := NewSessionStream(sessions, zap.NewNop())

	router := gin.New()
	router.GET("/api/ws/sessions/:id", stream.Stream)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, sessions
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func TestSessionStreamDeliversEvents(t *testing.T) {
	server, sessions := newStreamServer(t)
	sess := sessions.Create()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/api/ws/sessions/"+sess.ID.String()), nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame is the connect-time snapshot.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first models.SessionEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.EventStateChanged, first.EventType)
	assert.Equal(t, string(session.StateIdle), first.Data["state"])
	assert.Contains(t, first.Data, "snapshot")

	// The subscription is registered before the snapshot frame is written, so
	// anything published after the first read must stream through.
	sess.Publish(models.NewSessionEvent(models.EventIntentClassified, map[string]interface{}{
		"function_name": "is_fun",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev models.SessionEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventIntentClassified, ev.EventType)
	assert.Equal(t, "is_fun", ev.Data["function_name"])

	_, _, err = sess.BeginProposal(context.Background())
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventStateChanged, ev.EventType)
	assert.Equal(t, string(session.StateAwaitingProposal), ev.Data["state"])
}

func TestSessionStreamUnknownSession(t *testing.T) {
	server, _ := newStreamServer(t)

	resp, err := http.Get(server.URL + "/api/ws/sessions/44444444-4444-4444-4444-444444444444")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionStreamInvalidID(t *testing.T) {
	server, _ := newStreamServer(t)

	resp, err := http.Get(server.URL + "/api/ws/sessions/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
