package domain

import (
	"context"
	"time"
)

// EventType defines what changed.
type EventType string

const (
	EventDirty             EventType = "dirty"
	EventUpdate            EventType = "update"
	EventHighlight         EventType = "highlight"
	EventClear             EventType = "clear"
	EventUpdateExecution   EventType = "update_execution"
	EventInteractive       EventType = "interactive"
	EventInteractiveUpdate EventType = "interactive_update"
	EventBusy              EventType = "busy"
	EventIdle              EventType = "idle"
	EventSettings          EventType = "settings"
	EventViewAdded         EventType = "view_added"
	EventViewRemoved       EventType = "view_removed"
	EventViewActivated     EventType = "view_activated"
)

// Event is delivered to observers. ViewID is empty for process-wide events.
type Event struct {
	Type      EventType `json:"type"`
	ViewID    string    `json:"view_id,omitempty"`
	NodeID    int       `json:"node_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, viewID string) Event {
	return Event{Type: t, ViewID: viewID, Timestamp: time.Now()}
}

// Observer receives events. It must not block.
type Observer func(context.Context, Event)
