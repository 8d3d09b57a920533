package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"condo/internal/core"
)

// ClockEventMessage is the wire form of a core.ClockEvent. The date travels as
// a calendar day so consumers never reinterpret it in their own timezone.
type ClockEventMessage struct {
	EventID    string    `json:"event_id"`
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Transition string    `json:"transition"`
	At         string    `json:"at"`
	Timestamp  time.Time `json:"timestamp"`
}

var errIncompleteMessage = errors.New("incomplete clock event message")

// NewClockEventMessage converts an event for publishing
func NewClockEventMessage(ev core.ClockEvent) *ClockEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ClockEventMessage{
		EventID:    ev.ID,
		EmployeeID: ev.EmployeeID,
		Date:       ev.Date.Format(time.DateOnly),
		Transition: string(ev.Transition),
		At:         ev.At,
		Timestamp:  ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ClockEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClockEventMessageFromJSON decodes and checks the required fields.
func ClockEventMessageFromJSON(data []byte) (*ClockEventMessage, error) {
	var msg ClockEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" || msg.EmployeeID == "" || msg.Date == "" {
		return nil, errIncompleteMessage
	}
	return &msg, nil
}

// Event converts the message back into the domain type.
func (m *ClockEventMessage) Event() (core.ClockEvent, error) {
	d, err := time.Parse(time.DateOnly, m.Date)
	if err != nil {
		return core.ClockEvent{}, fmt.Errorf("parse event date: %w", err)
	}
	return core.ClockEvent{
		ID:         m.EventID,
		EmployeeID: m.EmployeeID,
		Date:       d,
		Transition: core.ClockTransition(m.Transition),
		At:         m.At,
		Timestamp:  m.Timestamp,
	}, nil
}
