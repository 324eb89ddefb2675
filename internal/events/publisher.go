package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	internalaws "github.com/estore-labs/go-estore-orders/internal/aws"
)

// Publisher sends order events to an SQS queue for the notification worker.
type Publisher struct {
	client   internalaws.SQSAPI
	queueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(client internalaws.SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// Publish serializes the envelope and sends it with the event type, order id
// and correlation id duplicated into message attributes for filtering.
func (p *Publisher) Publish(ctx context.Context, ev Envelope) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": stringAttr(string(ev.Type)),
		},
	}
	if ev.OrderID != "" {
		input.MessageAttributes["order_id"] = stringAttr(ev.OrderID)
	}
	if ev.CorrelationID != "" {
		input.MessageAttributes["correlation_id"] = stringAttr(ev.CorrelationID)
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	dataType := "String"
	return sqstypes.MessageAttributeValue{
		DataType:    &dataType,
		StringValue: &v,
	}
}
