package idempotency

import "time"

// Status values for idempotency entries.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// Record is the shape persisted in the idempotency table. ResponseBody holds
// the serialized success response so duplicate requests can be replayed
// byte-for-byte; ExpiresAt drives the DynamoDB TTL.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         Status    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// NewRecord builds an IN_PROGRESS record for a fresh create request.
func NewRecord(key, orderID string, now time.Time, ttlWindow time.Duration) *Record {
	return &Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		OrderID:        orderID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(ttlWindow).Unix(),
	}
}
