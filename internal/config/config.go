// Package config loads application configuration from environment variables
// (ESTORE_ prefix), flags, or a YAML file. Secrets are always injected;
// nothing sensitive has a source-code default.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
)

// Config holds the complete application configuration.
type Config struct {
	Addr string `default:":8080" usage:"API server listen address"`

	OrdersTable       string `default:"estore-orders" usage:"DynamoDB orders table" flag:"orders-table"`
	IdempotencyTable  string `default:"estore-idempotency" usage:"DynamoDB idempotency table" flag:"idempotency-table"`
	LoginCodesTable   string `default:"estore-login-codes" usage:"DynamoDB login codes table" flag:"login-codes-table"`
	BillingEmailIndex string `default:"billing_email-index" usage:"GSI for listing orders by billing email" flag:"billing-email-index"`

	OrderEventsQueueURL string `usage:"SQS queue URL for order events (ESTORE_ORDER_EVENTS_QUEUE_URL)" flag:"order-events-queue-url"`
	MetricsNamespace    string `default:"Estore/Orders" usage:"CloudWatch metrics namespace" flag:"metrics-namespace"`

	JWT  JWTConfig
	Auth AuthConfig

	IdempotencyTTL time.Duration `default:"48h" usage:"Retention window for idempotency records" flag:"idempotency-ttl"`
}

// JWTConfig controls token signing.
type JWTConfig struct {
	Secret string        `usage:"HMAC signing secret (ESTORE_JWT_SECRET)" flag:"jwt-secret"`
	TTL    time.Duration `default:"24h" usage:"Token lifetime" flag:"jwt-ttl"`
}

// AuthConfig controls the one-time login code flow.
type AuthConfig struct {
	CodeTTL     time.Duration `default:"10m" usage:"One-time login code lifetime" flag:"code-ttl"`
	AdminEmails []string      `usage:"Emails granted the admin role at login" flag:"admin-emails"`
}

// Load reads configuration and validates the required fields.
func Load() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ESTORE",
		Files:     []string{"config.yaml", "/etc/estore/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT secret is required: set ESTORE_JWT_SECRET")
	}

	return &cfg, nil
}

// IsAdminEmail reports whether the email is configured as an administrator.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.Auth.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}
