package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// EventMessage is the wire form of one security event.
type EventMessage struct {
	EventType  string                 `json:"event_type"`
	Severity   string                 `json:"severity,omitempty"`
	UserID     *uint64                `json:"user_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Attempt    int                    `json:"attempt"`
}

// PublishSecurityEvent sends one event message to the events exchange.
func PublishSecurityEvent(ctx context.Context, msg EventMessage) error {
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	client, err := GetPublisher()
	if err != nil {
		return err
	}
	return client.PublishEvent(ctx, body)
}

// EmitEvent is a fire-and-forget publish for background components.
// Publish failures are logged, never surfaced; losing a derived event
// must not fail the operation that produced it.
func EmitEvent(eventType, severity string, detail map[string]interface{}) {
	msg := EventMessage{
		EventType:  eventType,
		Severity:   severity,
		Details:    detail,
		OccurredAt: time.Now(),
	}
	if err := PublishSecurityEvent(context.Background(), msg); err != nil {
		log.Printf("mq: publish of %s event failed: %v", eventType, err)
	}
}
