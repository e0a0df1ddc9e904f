package customrequest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory table set that understands exactly the
// condition expressions DynamoStore issues.
// Items are stored per table in a nested map: table -> pk -> item.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	// err, when set, is returned by every call.
	err error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) map[string]map[string]types.AttributeValue {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
	return m.tables[tbl]
}

// primaryKey is request_id for requests, customer_id#item_id for cart items.
func primaryKey(item map[string]types.AttributeValue) (string, error) {
	if v, ok := item["request_id"].(*types.AttributeValueMemberS); ok {
		return v.Value, nil
	}
	c, okC := item["customer_id"].(*types.AttributeValueMemberS)
	i, okI := item["item_id"].(*types.AttributeValueMemberS)
	if okC && okI {
		return c.Value + "#" + i.Value, nil
	}
	return "", errors.New("no primary key attribute")
}

func conditionHolds(existing map[string]types.AttributeValue, expr *string, values map[string]types.AttributeValue) bool {
	if expr == nil {
		return true
	}
	switch *expr {
	case conditionNewRequest, conditionNewCartItem:
		return existing == nil
	case conditionUnchanged:
		if existing == nil {
			return false
		}
		st, _ := existing["status"].(*types.AttributeValueMemberS)
		rev, _ := existing["revision"].(*types.AttributeValueMemberN)
		wantSt := values[":expected"].(*types.AttributeValueMemberS).Value
		wantRev := values[":rev"].(*types.AttributeValueMemberN).Value
		return st != nil && rev != nil && st.Value == wantSt && rev.Value == wantRev
	}
	panic("mockDynamo: unsupported condition " + *expr)
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	tbl := m.ensureTable(*params.TableName)
	pk, err := primaryKey(params.Item)
	if err != nil {
		return nil, err
	}
	if !conditionHolds(tbl[pk], params.ConditionExpression, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	tbl[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	tbl := m.ensureTable(*params.TableName)
	pk, err := primaryKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := tbl[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("mockDynamo: UpdateItem not used by DynamoStore")
}

// Query supports the customer index only: equality on customer_id, ordered by created_at.
func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	tbl := m.ensureTable(*params.TableName)
	want := params.ExpressionAttributeValues[":c"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, it := range tbl {
		if c, ok := it["customer_id"].(*types.AttributeValueMemberS); ok && c.Value == want {
			items = append(items, it)
		}
	}
	createdAt := func(it map[string]types.AttributeValue) time.Time {
		s, _ := it["created_at"].(*types.AttributeValueMemberS)
		if s == nil {
			return time.Time{}
		}
		ts, _ := time.Parse(time.RFC3339Nano, s.Value)
		return ts
	}
	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.Slice(items, func(i, j int) bool {
		if forward {
			return createdAt(items[i]).Before(createdAt(items[j]))
		}
		return createdAt(items[i]).After(createdAt(items[j]))
	})
	return &dyn.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	// First pass: verify condition expressions
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, it := range params.TransactItems {
		none := "None"
		reasons[i] = types.CancellationReason{Code: &none}
		p := it.Put
		if p == nil {
			return nil, errors.New("mockDynamo: only Put is supported in transactions")
		}
		pk, err := primaryKey(p.Item)
		if err != nil {
			return nil, err
		}
		if !conditionHolds(m.ensureTable(*p.TableName)[pk], p.ConditionExpression, p.ExpressionAttributeValues) {
			code := "ConditionalCheckFailed"
			reasons[i] = types.CancellationReason{Code: &code}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}
	// Second pass: apply all puts
	for _, it := range params.TransactItems {
		pk, _ := primaryKey(it.Put.Item)
		m.ensureTable(*it.Put.TableName)[pk] = it.Put.Item
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *mockDynamo) count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}
