package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockCodeTable implements the subset of DynamoDB the CodeStore touches,
// honoring the conditional delete that makes codes single-use.
type mockCodeTable struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockCodeTable() *mockCodeTable {
	return &mockCodeTable{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockCodeTable) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := params.Item["email"].(*types.AttributeValueMemberS).Value
	m.items[email] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockCodeTable) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := params.Key["email"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[email]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	wantCode := params.ExpressionAttributeValues[":code"].(*types.AttributeValueMemberS).Value
	nowSecs, _ := strconv.ParseInt(params.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value, 10, 64)
	gotCode := item["code"].(*types.AttributeValueMemberS).Value
	expires, _ := strconv.ParseInt(item["expires_at"].(*types.AttributeValueMemberN).Value, 10, 64)
	if gotCode != wantCode || expires <= nowSecs {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(m.items, email)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockCodeTable) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCodeTable) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCodeTable) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCodeTable) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCodeTable) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("not implemented")
}

func TestIssueAndConsume(t *testing.T) {
	store := NewCodeStore(newMockCodeTable(), "login_codes", 10*time.Minute)

	code, err := store.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", code)
	}

	if err := store.Consume(context.Background(), "ada@example.com", code); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// Codes are single-use.
	if err := store.Consume(context.Background(), "ada@example.com", code); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid on reuse, got %v", err)
	}
}

func TestConsume_WrongCode(t *testing.T) {
	store := NewCodeStore(newMockCodeTable(), "login_codes", 10*time.Minute)

	if _, err := store.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := store.Consume(context.Background(), "ada@example.com", "000000"); !errors.Is(err, ErrCodeInvalid) {
		// One in a million this collides with the issued code.
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
	if err := store.Consume(context.Background(), "grace@example.com", "123456"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid for an unknown email, got %v", err)
	}
}

func TestConsume_Expired(t *testing.T) {
	store := NewCodeStore(newMockCodeTable(), "login_codes", 10*time.Minute)

	issuedAt := time.Now().Add(-time.Hour)
	store.nowFunc = func() time.Time { return issuedAt }
	code, err := store.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	store.nowFunc = time.Now
	if err := store.Consume(context.Background(), "ada@example.com", code); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid for an expired code, got %v", err)
	}
}

func TestIssue_ReplacesEarlierCode(t *testing.T) {
	store := NewCodeStore(newMockCodeTable(), "login_codes", 10*time.Minute)

	first, err := store.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	second, err := store.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("reissue failed: %v", err)
	}
	if first != second {
		if err := store.Consume(context.Background(), "ada@example.com", first); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("expected the first code to be replaced, got %v", err)
		}
	}
	if err := store.Consume(context.Background(), "ada@example.com", second); err != nil {
		t.Fatalf("consuming the latest code failed: %v", err)
	}
}
