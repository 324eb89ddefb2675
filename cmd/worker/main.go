package main

import (
	"context"
	"log"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	internalaws "github.com/estore-labs/go-estore-orders/internal/aws"
	"github.com/estore-labs/go-estore-orders/internal/config"
	"github.com/estore-labs/go-estore-orders/internal/metrics"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	clients, err := internalaws.NewClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	processor := NewProcessor(
		&LogNotifier{Log: logger},
		metrics.NewEmitter(clients.CloudWatch, cfg.MetricsNamespace, logger),
		logger,
	)

	// RUN_LOCAL=true feeds a single simulated SQS record through the
	// processor for development; otherwise run as a Lambda consumer.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"type":"order.created","order_id":"local-order-1","email":"dev@example.com"}`
		}
		event := lambdaevents.SQSEvent{
			Records: []lambdaevents.SQSMessage{{Body: body}},
		}
		if err := processor.Handle(context.Background(), event); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(processor.Handle)
}
