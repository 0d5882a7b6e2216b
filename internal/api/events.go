package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/mqtt"
)

// WebSocket channels.
const (
	ChannelBlogCreated    = "blog.created"
	ChannelBlogUpdated    = "blog.updated"
	ChannelBlogDeleted    = "blog.deleted"
	ChannelCommentCreated = "comment.created"
	ChannelCommentDeleted = "comment.deleted"
	ChannelLikeChanged    = "like.changed"
)

// eventBufferSize bounds the queue in front of the message bus.
const eventBufferSize = 256

// event is one domain change. Every event is audited; those with a
// channel are also broadcast and published.
type event struct {
	action   string
	entity   string
	entityID string
	userID   string
	details  map[string]any

	channel string
	data    any
}

// busEvent is the payload published on inkwell/events/{entity}/{action}.
type busEvent struct {
	topic     string
	Channel   string    `json:"channel"`
	EntityID  string    `json:"entityId"`
	UserID    string    `json:"userId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// emit fans an event out to the audit trail, the WebSocket hub and the
// message bus. None of them can block or fail the request.
func (s *Server) emit(r *http.Request, e event) {
	s.recorder.Record(&audit.AuditLog{
		Action:     e.action,
		EntityType: e.entity,
		EntityID:   e.entityID,
		UserID:     e.userID,
		Details:    withRequestID(r, e.details),
	})

	if e.channel == "" {
		return
	}

	s.hub.Broadcast(e.channel, e.data)

	if s.events == nil {
		return
	}
	msg := busEvent{
		topic:     mqtt.Topics{}.Event(e.entity, e.action),
		Channel:   e.channel,
		EntityID:  e.entityID,
		UserID:    e.userID,
		Data:      e.data,
		Timestamp: time.Now().UTC(),
	}
	select {
	case s.eventCh <- msg:
	default:
		s.eventMu.Lock()
		s.droppedEvents++
		s.eventMu.Unlock()
		s.logger.Warn("event queue full, dropping event", "topic", msg.topic)
	}
}

// forwardEvents publishes queued events one at a time until ctx ends.
func (s *Server) forwardEvents(ctx context.Context) {
	for {
		select {
		case msg := <-s.eventCh:
			if err := s.events.PublishJSON(msg.topic, msg); err != nil {
				s.logger.Debug("event publish failed", "topic", msg.topic, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func withRequestID(r *http.Request, details map[string]any) map[string]any {
	id, ok := r.Context().Value(ctxKeyRequestID).(string)
	if !ok || id == "" {
		return details
	}
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["requestId"] = id
	return out
}
