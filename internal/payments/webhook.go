// Package payments handles payment gateway webhooks and checkout orders.
package payments

import (
	"encoding/json"
	"errors"
)

// ErrInvalidPayload means a webhook body was not a JSON object.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// Events that settle a payment and are forwarded to the backend.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// Entity is the part of a payment or order entity that gets logged.
type Entity struct {
	OrderID string      `json:"order_id"`
	ID      string      `json:"id"`
	Amount  json.Number `json:"amount"`
}

type entityWrapper struct {
	Entity *Entity `json:"entity"`
}

// Event is a parsed webhook. Raw is the body as received, which is what gets
// forwarded.
type Event struct {
	Payload struct {
		Payment *entityWrapper `json:"payment"`
		Order   *entityWrapper `json:"order"`
	} `json:"payload"`
	Name string `json:"event"`
	Raw  []byte `json:"-"`
}

// ParseEvent decodes a webhook body. Unknown fields are ignored.
func ParseEvent(body []byte) (*Event, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil || probe == nil {
		return nil, ErrInvalidPayload
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		// a well-formed object with unexpected field types still counts as an
		// event; only its name is needed to route it
		event = Event{}
		if raw, ok := probe["event"]; ok {
			_ = json.Unmarshal(raw, &event.Name)
		}
	}
	event.Raw = body
	return &event, nil
}

// Settles reports whether the event confirms a payment.
func (e *Event) Settles() bool {
	return e.Name == EventPaymentCaptured || e.Name == EventOrderPaid
}

// Entity returns the payment entity, or the order entity when there is no
// payment. It is never nil.
func (e *Event) Entity() Entity {
	if p := e.Payload.Payment; p != nil && p.Entity != nil {
		return *p.Entity
	}
	if o := e.Payload.Order; o != nil && o.Entity != nil {
		return *o.Entity
	}
	return Entity{}
}
