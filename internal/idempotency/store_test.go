package idempotency

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo stores idempotency records in a map and honors the
// attribute_not_exists condition on puts.
type mockDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(attrs map[string]types.AttributeValue) string {
	return attrs["idempotency_key"].(*types.AttributeValueMemberS).Value
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	key := keyOf(params.Item)
	if params.ConditionExpression != nil {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[key] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	item, ok := m.items[keyOf(params.Key)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	key := keyOf(params.Key)
	item, ok := m.items[key]
	if !ok {
		item = map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		}
	}
	evs := params.ExpressionAttributeValues
	if v, ok := evs[":done"]; ok {
		item["status"] = v
		item["response_body"] = evs[":rb"]
		item["response_status"] = evs[":rs"]
	}
	if v, ok := evs[":failed"]; ok {
		item["status"] = v
		item["note"] = evs[":n"]
	}
	if v, ok := evs[":ua"]; ok {
		item["updated_at"] = v
	}
	m.items[key] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("not implemented")
}

func TestCreateIfNotExists(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "idempotency", 48*time.Hour)

	created, err := store.CreateIfNotExists(context.Background(), "key-1", "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected first write to create")
	}

	created, err = store.CreateIfNotExists(context.Background(), "key-1", "order-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected second write to lose the condition")
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(mock.items["key-1"], &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", rec.Status)
	}
	if rec.OrderID != "order-1" {
		t.Fatalf("record must keep the first writer's order id, got %s", rec.OrderID)
	}
	if rec.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("TTL must be in the future, got %d", rec.ExpiresAt)
	}
}

func TestGet_Missing(t *testing.T) {
	store := NewStore(newMockDynamo(), "idempotency", 48*time.Hour)
	rec, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestMarkDone_StoresResponseForReplay(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "idempotency", 48*time.Hour)

	if _, err := store.CreateIfNotExists(context.Background(), "key-9", "order-9"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	body := `{"orderId":"order-9"}`
	if err := store.MarkDone(context.Background(), "key-9", body, 201); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	rec, err := store.Get(context.Background(), "key-9")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Status != StatusDone {
		t.Fatalf("expected DONE, got %s", rec.Status)
	}
	if rec.ResponseBody != body {
		t.Fatalf("expected stored body %q, got %q", body, rec.ResponseBody)
	}
	if rec.ResponseStatus != 201 {
		t.Fatalf("expected stored status 201, got %d", rec.ResponseStatus)
	}
}

func TestMarkFailed(t *testing.T) {
	mock := newMockDynamo()
	store := NewStore(mock, "idempotency", 48*time.Hour)

	if _, err := store.CreateIfNotExists(context.Background(), "key-5", "order-5"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.MarkFailed(context.Background(), "key-5", "store unavailable"); err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}

	rec, err := store.Get(context.Background(), "key-5")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", rec.Status)
	}
	if rec.Note != "store unavailable" {
		t.Fatalf("expected the failure note, got %q", rec.Note)
	}
}

func TestNewRecord_TTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord("k", "o", now, 48*time.Hour)
	want := now.Add(48 * time.Hour).Unix()
	if rec.ExpiresAt != want {
		t.Fatalf("expected expires_at %s, got %s",
			strconv.FormatInt(want, 10), strconv.FormatInt(rec.ExpiresAt, 10))
	}
}
