// Package metrics emits operational counters to CloudWatch. Emission is
// best-effort: a metrics failure is logged and never fails the request.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	internalaws "github.com/estore-labs/go-estore-orders/internal/aws"
)

// MetricNotificationsSent counts worker notification deliveries; the API's
// own metric names live with the order service.
const MetricNotificationsSent = "NotificationsSent"

// Emitter publishes counters into one CloudWatch namespace.
type Emitter struct {
	client    internalaws.CloudWatchAPI
	namespace string
	log       *zap.Logger
	nowFunc   func() time.Time
}

// NewEmitter returns an Emitter for the given namespace.
func NewEmitter(client internalaws.CloudWatchAPI, namespace string, log *zap.Logger) *Emitter {
	return &Emitter{
		client:    client,
		namespace: namespace,
		log:       log,
		nowFunc:   time.Now,
	}
}

// Count adds 1 to the named counter.
func (e *Emitter) Count(ctx context.Context, metric string) {
	now := e.nowFunc()
	one := 1.0
	name := metric
	unit := cwtypes.StandardUnitCount
	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &e.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &one,
				Unit:       unit,
				Timestamp:  &now,
			},
		},
	})
	if err != nil {
		e.log.Warn("put metric data failed", zap.String("metric", metric), zap.Error(err))
	}
}
