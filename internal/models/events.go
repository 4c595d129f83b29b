package models

import (
	"time"
)

// SessionEventType identifies a pipeline event streamed to session watchers.
type SessionEventType string

const (
	EventStateChanged       SessionEventType = "state_changed"
	EventIntentClassified   SessionEventType = "intent_classified"
	EventValidatorCorrected SessionEventType = "validator_corrected"
	EventRouteDecided       SessionEventType = "route_decided"
	EventTestsProposed      SessionEventType = "tests_proposed"
	EventGenerationStarted  SessionEventType = "generation_started"
	EventCodeGenerated      SessionEventType = "code_generated"
	EventPipelineError      SessionEventType = "pipeline_error"
)

// SessionEvent is one entry in a session's live event stream.
type SessionEvent struct {
	EventType SessionEventType       `json:"event_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewSessionEvent stamps an event with the current time.
func NewSessionEvent(eventType SessionEventType, data map[string]interface{}) SessionEvent {
	return SessionEvent{
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
