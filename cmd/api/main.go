package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	internalaws "github.com/estore-labs/go-estore-orders/internal/aws"
	"github.com/estore-labs/go-estore-orders/internal/auth"
	"github.com/estore-labs/go-estore-orders/internal/config"
	appevents "github.com/estore-labs/go-estore-orders/internal/events"
	"github.com/estore-labs/go-estore-orders/internal/handlers"
	"github.com/estore-labs/go-estore-orders/internal/idempotency"
	"github.com/estore-labs/go-estore-orders/internal/metrics"
	"github.com/estore-labs/go-estore-orders/internal/orders"
	"github.com/estore-labs/go-estore-orders/internal/validation"
)

func setupRouter(cfg *config.Config, clients *internalaws.Clients, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v := validation.New()
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	publisher := appevents.NewPublisher(clients.SQS, cfg.OrderEventsQueueURL)
	emitter := metrics.NewEmitter(clients.CloudWatch, cfg.MetricsNamespace, logger)

	idemStore := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	orderStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.IdempotencyTable, cfg.BillingEmailIndex)
	service := orders.NewService(orders.ServiceConfig{
		Store:          orderStore,
		Events:         publisher,
		Metrics:        emitter,
		Logger:         logger,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	handlers.RegisterOrderRoutes(r, handlers.OrdersConfig{
		Service:     service,
		Idempotency: idemStore,
		Tokens:      tokens,
		Validator:   v,
		Logger:      logger,
	})

	handlers.RegisterAuthRoutes(r, handlers.AuthConfig{
		Codes:     auth.NewCodeStore(clients.DynamoDB, cfg.LoginCodesTable, cfg.Auth.CodeTTL),
		Tokens:    tokens,
		Events:    publisher,
		IsAdmin:   cfg.IsAdminEmail,
		Validator: v,
		Logger:    logger,
	})

	return r
}

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

	r := setupRouter(cfg, clients, logger)

	// RUN_LOCAL=true runs a plain HTTP server for development; otherwise the
	// process registers as a Lambda handler behind API Gateway.
	if os.Getenv("RUN_LOCAL") == "true" {
		logger.Info("running local server", zap.String("addr", cfg.Addr))
		if err := r.Run(cfg.Addr); err != nil {
			logger.Fatal("local server failed", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
