package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	internalaws "github.com/estore-labs/go-estore-orders/internal/aws"
)

// ErrCodeInvalid covers unknown, expired and already-consumed login codes.
var ErrCodeInvalid = errors.New("login code is invalid or has expired")

// codeRecord is the shape persisted in the login-codes table. One active
// code per email; expires_at drives the DynamoDB TTL.
type codeRecord struct {
	Email     string `dynamodbav:"email"` // PK
	Code      string `dynamodbav:"code"`
	CreatedAt int64  `dynamodbav:"created_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"` // TTL epoch seconds
}

// CodeStore keeps one-time login codes in DynamoDB with a TTL. Consumption
// is a conditional delete, so each code is usable exactly once even under
// concurrent attempts.
type CodeStore struct {
	client    internalaws.DynamoDBAPI
	tableName string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewCodeStore returns a CodeStore; ttl bounds how long an issued code
// stays valid.
func NewCodeStore(client internalaws.DynamoDBAPI, tableName string, ttl time.Duration) *CodeStore {
	return &CodeStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

// Issue generates a fresh 6-digit code for the email, replacing any earlier
// one, and returns it for delivery.
func (s *CodeStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}

	now := s.nowFunc()
	rec := codeRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return "", fmt.Errorf("marshal code record: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return "", fmt.Errorf("put code: %w", err)
	}
	return code, nil
}

// Consume validates and burns a code in one conditional delete. The
// condition names the expected code and its expiry, so of two concurrent
// consumers exactly one succeeds.
func (s *CodeStore) Consume(ctx context.Context, email, code string) error {
	now := s.nowFunc()
	input := &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
		ConditionExpression: awsString("code = :code AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
			":now":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
	}

	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrCodeInvalid
		}
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func awsString(s string) *string { return &s }
