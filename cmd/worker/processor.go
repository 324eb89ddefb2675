package main

import (
	"context"
	"encoding/json"
	"fmt"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	appevents "github.com/estore-labs/go-estore-orders/internal/events"
	"github.com/estore-labs/go-estore-orders/internal/metrics"
)

// Processor fans order events out as notifications. It never mutates order
// state: the API is the only writer, the worker only observes.
type Processor struct {
	notifier Notifier
	metrics  *metrics.Emitter
	log      *zap.Logger
}

// NewProcessor creates a worker processor. metrics may be nil.
func NewProcessor(notifier Notifier, emitter *metrics.Emitter, log *zap.Logger) *Processor {
	return &Processor{
		notifier: notifier,
		metrics:  emitter,
		log:      log,
	}
}

// Handle processes one SQS batch. A failed record fails the batch so the
// runtime redelivers it; repeated failures land in the DLQ.
func (p *Processor) Handle(ctx context.Context, ev lambdaevents.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec lambdaevents.SQSMessage) error {
	var ev appevents.Envelope
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.log.Info("received event",
		zap.String("event_type", string(ev.Type)),
		zap.String("order_id", ev.OrderID),
		zap.String("correlation_id", ev.CorrelationID))

	n, ok := buildNotification(ev)
	if !ok {
		// Unknown event types are dropped, not retried: redelivery cannot
		// make them routable.
		p.log.Warn("dropping unroutable event", zap.String("event_type", string(ev.Type)))
		return nil
	}

	if err := p.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", n.To, err)
	}
	if p.metrics != nil {
		p.metrics.Count(ctx, metrics.MetricNotificationsSent)
	}
	return nil
}

// buildNotification maps an event to the message its recipient should see.
func buildNotification(ev appevents.Envelope) (Notification, bool) {
	switch ev.Type {
	case appevents.TypeOrderCreated:
		return Notification{
			To:      ev.Email,
			Subject: "Your order has been placed",
			Body:    fmt.Sprintf("Order %s was received and is now being processed.", ev.OrderID),
		}, true
	case appevents.TypeOrderStatusChanged:
		return Notification{
			To:      ev.Email,
			Subject: "Order update",
			Body:    fmt.Sprintf("Order %s is now %s.", ev.OrderID, ev.OrderStatus),
		}, true
	case appevents.TypeReturnRequested:
		return Notification{
			To:      ev.Email,
			Subject: "Return request received",
			Body:    fmt.Sprintf("We received your return request for an item in order %s.", ev.OrderID),
		}, true
	case appevents.TypeReturnResolved:
		return Notification{
			To:      ev.Email,
			Subject: "Return request decision",
			Body:    fmt.Sprintf("An item in order %s is now %s.", ev.OrderID, ev.ReturnStatus),
		}, true
	case appevents.TypeAuthCodeIssued:
		return Notification{
			To:      ev.Email,
			Subject: "Your login code",
			Body:    fmt.Sprintf("Your one-time login code is %s.", ev.Code),
		}, true
	default:
		return Notification{}, false
	}
}
