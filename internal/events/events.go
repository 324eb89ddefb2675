package events

import "time"

// Type identifies an order-event kind carried on the queue.
type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeReturnRequested    Type = "return.requested"
	TypeReturnResolved     Type = "return.resolved"
	TypeAuthCodeIssued     Type = "auth.code_issued"
)

// Envelope is the JSON payload sent from API -> SQS -> worker.
type Envelope struct {
	Type          Type      `json:"type"`
	OrderID       string    `json:"order_id,omitempty"`
	Email         string    `json:"email,omitempty"`
	OrderStatus   string    `json:"order_status,omitempty"`
	ItemID        string    `json:"item_id,omitempty"`
	ReturnStatus  string    `json:"return_status,omitempty"`
	Code          string    `json:"code,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
