package events

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/api/internal/models"
)

const (
	TypeAudit = "audit"
	TypePrune = "audit.prune"
)

// Message is the flat shape written to the auth events stream. Redis hands
// every field back as a string.
type Message struct {
	Type       string `json:"type"`
	EventID    string `json:"eventId,omitempty"`
	Kind       string `json:"kind,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Username   string `json:"username,omitempty"`
	IPAddress  string `json:"ip,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
	OccurredAt string `json:"occurredAt,omitempty"`
}

func FromAudit(event models.AuditEvent) Message {
	return Message{
		Type:       TypeAudit,
		EventID:    event.ID,
		Kind:       string(event.Kind),
		UserID:     event.UserID,
		Username:   event.Username,
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func (m Message) Values() map[string]any {
	values := map[string]any{"type": m.Type}
	put := func(key, value string) {
		if value != "" {
			values[key] = value
		}
	}
	put("eventId", m.EventID)
	put("kind", m.Kind)
	put("userId", m.UserID)
	put("username", m.Username)
	put("ip", m.IPAddress)
	put("userAgent", m.UserAgent)
	put("occurredAt", m.OccurredAt)
	return values
}

func Decode(values map[string]any) (Message, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("message without type")
	}
	return msg, nil
}

func (m Message) Audit() (models.AuditEvent, error) {
	if m.Type != TypeAudit {
		return models.AuditEvent{}, fmt.Errorf("message type %q is not an audit event", m.Type)
	}
	if m.EventID == "" || m.Kind == "" {
		return models.AuditEvent{}, fmt.Errorf("audit event missing id or kind")
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, m.OccurredAt)
	if err != nil {
		return models.AuditEvent{}, fmt.Errorf("parse occurredAt: %w", err)
	}
	return models.AuditEvent{
		ID:         m.EventID,
		Kind:       models.AuditKind(m.Kind),
		UserID:     m.UserID,
		Username:   m.Username,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
		OccurredAt: occurredAt,
	}, nil
}
