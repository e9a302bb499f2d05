package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"engagement/internal/model"
)

// Event types for the engagement stream
const (
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

// Stream and consumer group names
const (
	StreamEngagement = "stream:engagement"

	ConsumerGroupNotifications = "notification_workers"
)

// EngagementEvent is published after a comment mutation commits. It carries
// everything the notifier needs so the worker does not have to re-read a row
// that may already be soft-deleted.
type EngagementEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	CommentID  int64  `json:"comment_id"`
	TargetType string `json:"target_type"`
	TargetID   int64  `json:"target_id"`
	ActorID    int64  `json:"actor_id"`
	ParentID   *int64 `json:"parent_id,omitempty"`
}

// Target returns the comment's target reference.
func (e EngagementEvent) Target() model.Target {
	return model.Target{Type: e.TargetType, ID: e.TargetID}
}

// NewCommentCreatedEvent builds the event for a freshly created comment.
func NewCommentCreatedEvent(comment *model.Comment, actorID int64) EngagementEvent {
	return EngagementEvent{
		Type:       EventCommentCreated,
		Timestamp:  time.Now().Unix(),
		CommentID:  comment.ID,
		TargetType: comment.TargetType,
		TargetID:   comment.TargetID,
		ActorID:    actorID,
		ParentID:   comment.ParentID,
	}
}

// NewCommentDeletedEvent builds the event for a soft-deleted comment.
func NewCommentDeletedEvent(comment *model.Comment, actorID int64) EngagementEvent {
	return EngagementEvent{
		Type:       EventCommentDeleted,
		Timestamp:  time.Now().Unix(),
		CommentID:  comment.ID,
		TargetType: comment.TargetType,
		TargetID:   comment.TargetID,
		ActorID:    actorID,
		ParentID:   comment.ParentID,
	}
}

// ToMap converts the event to a map for Redis XADD. Streams store
// field-value pairs, so the full event is serialized as JSON in "data".
func (e EngagementEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEngagementEvent parses an EngagementEvent from stream message values.
func ParseEngagementEvent(values map[string]interface{}) (EngagementEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return EngagementEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event EngagementEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return EngagementEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
