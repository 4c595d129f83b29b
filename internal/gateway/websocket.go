package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/session"
)

var wsTracer = otel.Tracer("session-stream")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking for production
		return true
	},
}

const wsPingInterval = 30 * time.Second

// SessionStream pushes pipeline events for one session over WebSocket.
type SessionStream struct {
	sessions *session.Manager
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewSessionStream creates a session event stream handler.
func NewSessionStream(sessions *session.Manager, logger *zap.Logger) *SessionStream {
	return &SessionStream{
		sessions: sessions,
		logger:   logger.Named("session-stream"),
		tracer:   wsTracer,
	}
}

// Stream handles WebSocket /api/ws/sessions/:id
// @Summary Stream session events
// @Description WebSocket endpoint to stream state changes and pipeline progress for a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /ws/sessions/{id} [get]
func (p *SessionStream) Stream(c *gin.Context) {
	_, span := p.tracer.Start(c.Request.Context(), "session_stream.stream")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid session ID",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}
	span.SetAttributes(attribute.String("session.id", id.String()))

	sess, ok := p.sessions.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "session not found",
			Code:  models.ErrCodeSessionNotFound,
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		p.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events := sess.Subscribe()
	defer sess.Unsubscribe(events)

	p.logger.Info("session stream opened", zap.String("session_id", id.String()))

	// Send the current snapshot first so a client that connects mid-pipeline
	// starts from a consistent view.
	if err := conn.WriteJSON(models.NewSessionEvent(models.EventStateChanged, map[string]interface{}{
		"state":    string(sess.State()),
		"snapshot": sess.Snapshot(),
	})); err != nil {
		return
	}

	closed := make(chan struct{})

	// Client -> ignore. The stream is one-way; reading only detects the close.
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					p.logger.Warn("session stream write failed",
						zap.String("session_id", id.String()),
						zap.Error(err),
					)
				}
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			p.logger.Info("session stream closed", zap.String("session_id", id.String()))
			return
		}
	}
}
