package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/todos/internal/models"
)

const authEventsHeartbeat = 25 * time.Second

// HandleAuthEvents streams the user's auth events as Server-Sent Events.
// A "ready" event is sent once the subscription is in place.
func (h *handlerImpl) HandleAuthEvents(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	sessionID, _ := getStringFromContext(c, sessionIDCtxKey)

	ctx := c.Request.Context()
	ch, err := h.broker.Subscribe(ctx, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to subscribe to auth events")
		abort(c, newStatusTextError(http.StatusServiceUnavailable))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"session_id": sessionID})
	c.Writer.Flush()
	h.logger.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Msg("streaming auth events")

	heartbeat := time.NewTicker(authEventsHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().
				Str("session_id", sessionID).
				Msg("auth events client disconnected")
			return
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
		case event, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("auth", authEventResponse(event))
		}
		c.Writer.Flush()
	}
}

func authEventResponse(event models.AuthEvent) models.AuthEvent {
	event.OccurredAt = event.OccurredAt.UTC()
	return event
}
