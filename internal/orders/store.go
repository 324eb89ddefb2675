package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	internalaws "github.com/estore-labs/go-estore-orders/internal/aws"
	"github.com/estore-labs/go-estore-orders/internal/idempotency"
)

// Store persists orders in DynamoDB. Every mutation is a single conditional
// read-modify-write: updates carry the document version (and, for return
// transitions, the expected current return status) as a ConditionExpression,
// so a losing concurrent writer fails instead of overwriting the winner.
type Store struct {
	client           internalaws.DynamoDBAPI
	tableName        string
	idempotencyTable string
	emailIndex       string
	nowFunc          func() time.Time
}

// NewStore creates an order Store. emailIndex is the GSI keyed on
// billing_email with created_at as its sort key.
func NewStore(client internalaws.DynamoDBAPI, tableName, idempotencyTable, emailIndex string) *Store {
	return &Store{
		client:           client,
		tableName:        tableName,
		idempotencyTable: idempotencyTable,
		emailIndex:       emailIndex,
		nowFunc:          time.Now,
	}
}

// Create persists a new order atomically. When idem is non-nil the order put
// and the idempotency record put run in one TransactWriteItems call, both
// guarded by attribute_not_exists conditions: either everything lands or
// nothing does, and a replayed idempotency key cancels the whole transaction
// with ErrDuplicateRequest. A partial order never exists in the table.
func (s *Store) Create(ctx context.Context, order *Order, idem *idempotency.Record) error {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Version == 0 {
		order.Version = 1
	}

	orderItem, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	if idem == nil {
		input := &dyn.PutItemInput{
			TableName:           &s.tableName,
			Item:                orderItem,
			ConditionExpression: awsString("attribute_not_exists(order_id)"),
		}
		if _, err := s.client.PutItem(ctx, input); err != nil {
			var cf *types.ConditionalCheckFailedException
			if errors.As(err, &cf) {
				return fmt.Errorf("%w: order %s", ErrDuplicateRequest, order.OrderID)
			}
			return fmt.Errorf("put order: %w", err)
		}
		return nil
	}

	idemItem, err := attributevalue.MarshalMap(idem)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &s.idempotencyTable,
					Item:                idemItem,
					ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                orderItem,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: idempotency key %s", ErrDuplicateRequest, idem.IdempotencyKey)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// List returns every order, newest first.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		var batch []Order
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		out = append(out, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByEmail returns the orders billed to one email, newest first, using
// the billing_email GSI (created_at sort key, descending).
func (s *Store) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:              &s.tableName,
			IndexName:              &s.emailIndex,
			KeyConditionExpression: awsString("billing_email = :email"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			ScanIndexForward:  awsBool(false),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query orders by email: %w", err)
		}
		var batch []Order
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		out = append(out, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}
	return out, nil
}

// UpdateOrderStatus sets the order status, guarded by the document version.
// Any declared status may be assigned; there is no adjacency rule between
// order statuses. Returns ErrConflict when a concurrent writer got there
// first.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, next OrderStatus, expectedVersion int64) (*Order, error) {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    awsString("SET order_status = :next, updated_at = :ua, version = :nv"),
		ConditionExpression: awsString("attribute_exists(order_id) AND version = :ev"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next": &types.AttributeValueMemberS{Value: string(next)},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
			":nv":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion+1)},
			":ev":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &o, nil
}

// UpdateReturnStatus transitions one item's return lifecycle. The condition
// names both the expected current return status and the document version, so
// of two racing writers exactly one wins; the loser sees ErrConflict. Item
// positions are stable because the item list is fixed at creation.
func (s *Store) UpdateReturnStatus(ctx context.Context, orderID string, itemIndex int, expected, next ReturnStatus, reason, details string, expectedVersion int64) (*Order, error) {
	now := s.nowFunc()
	updateExpr := fmt.Sprintf(
		"SET order_items[%d].return_status = :next, order_items[%d].return_reason = :reason, order_items[%d].return_details = :details, updated_at = :ua, version = :nv",
		itemIndex, itemIndex, itemIndex)
	conditionExpr := fmt.Sprintf("order_items[%d].return_status = :expected AND version = :ev", itemIndex)

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    &updateExpr,
		ConditionExpression: &conditionExpr,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":     &types.AttributeValueMemberS{Value: string(next)},
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
			":reason":   &types.AttributeValueMemberS{Value: reason},
			":details":  &types.AttributeValueMemberS{Value: details},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
			":nv":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion+1)},
			":ev":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update return status: %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal updated order: %w", err)
	}
	return &o, nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
