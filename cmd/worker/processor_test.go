package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	appevents "github.com/estore-labs/go-estore-orders/internal/events"
)

type fakeNotifier struct {
	sent []Notification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func sqsRecord(t *testing.T, ev appevents.Envelope) lambdaevents.SQSMessage {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return lambdaevents.SQSMessage{MessageId: "m-1", Body: string(body)}
}

func TestHandle_OrderCreated(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(notifier, nil, zap.NewNop())

	err := p.Handle(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{
			sqsRecord(t, appevents.Envelope{Type: appevents.TypeOrderCreated, OrderID: "order-1", Email: "ada@example.com"}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.To != "ada@example.com" {
		t.Fatalf("unexpected recipient %q", n.To)
	}
	if !strings.Contains(n.Body, "order-1") {
		t.Fatalf("body must reference the order: %q", n.Body)
	}
}

func TestHandle_UnknownTypeDropped(t *testing.T) {
	notifier := &fakeNotifier{}
	p := NewProcessor(notifier, nil, zap.NewNop())

	err := p.Handle(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{
			sqsRecord(t, appevents.Envelope{Type: "order.reticulated", OrderID: "order-1"}),
		},
	})
	if err != nil {
		t.Fatalf("unroutable events must be dropped without error, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.sent))
	}
}

func TestHandle_BadBodyFailsBatch(t *testing.T) {
	p := NewProcessor(&fakeNotifier{}, nil, zap.NewNop())

	err := p.Handle(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{{MessageId: "m-1", Body: "{not json"}},
	})
	if err == nil {
		t.Fatalf("expected an error for an unparseable body")
	}
}

func TestHandle_NotifierFailureFailsBatch(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	p := NewProcessor(notifier, nil, zap.NewNop())

	err := p.Handle(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{
			sqsRecord(t, appevents.Envelope{Type: appevents.TypeOrderCreated, OrderID: "order-1", Email: "ada@example.com"}),
		},
	})
	if err == nil {
		t.Fatalf("expected the batch to fail so the record is redelivered")
	}
}

func TestBuildNotification_PerType(t *testing.T) {
	cases := []struct {
		ev       appevents.Envelope
		wantBody string
	}{
		{appevents.Envelope{Type: appevents.TypeOrderStatusChanged, OrderID: "o", Email: "e", OrderStatus: "Shipped"}, "Shipped"},
		{appevents.Envelope{Type: appevents.TypeReturnRequested, OrderID: "o", Email: "e"}, "return request"},
		{appevents.Envelope{Type: appevents.TypeReturnResolved, OrderID: "o", Email: "e", ReturnStatus: "Returned"}, "Returned"},
		{appevents.Envelope{Type: appevents.TypeAuthCodeIssued, Email: "e", Code: "123456"}, "123456"},
	}
	for _, tc := range cases {
		n, ok := buildNotification(tc.ev)
		if !ok {
			t.Errorf("%s: expected a notification", tc.ev.Type)
			continue
		}
		if !strings.Contains(n.Body, tc.wantBody) {
			t.Errorf("%s: body %q missing %q", tc.ev.Type, n.Body, tc.wantBody)
		}
	}
}
