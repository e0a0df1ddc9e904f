package promotion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory promotions table keyed by code. UpdateItem
// understands only the expressions DynamoStore sends.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	if v, ok := m["code"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[keyOf(params.Key)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	k := keyOf(params.Item)
	if params.ConditionExpression != nil && *params.ConditionExpression == conditionNewCode {
		if _, exists := m.items[k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	k := keyOf(params.Key)
	existing, ok := m.items[k]
	if !ok {
		// both update conditions require the item to exist
		return nil, &types.ConditionalCheckFailedException{}
	}
	var r record
	if err := attributevalue.UnmarshalMap(existing, &r); err != nil {
		return nil, err
	}
	ua, _ := time.Parse(time.RFC3339Nano, params.ExpressionAttributeValues[":ua"].(*types.AttributeValueMemberS).Value)

	switch *params.UpdateExpression {
	case updateConsume:
		if !r.Active || (r.MaxUsage != nil && r.UsageCount >= *r.MaxUsage) {
			return nil, &types.ConditionalCheckFailedException{}
		}
		r.UsageCount++
	case updateSetActive:
		r.Active = params.ExpressionAttributeValues[":active"].(*types.AttributeValueMemberBOOL).Value
	default:
		return nil, errors.New("mockDynamo: unsupported update " + *params.UpdateExpression)
	}
	r.UpdatedAt = ua

	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, err
	}
	m.items[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("mockDynamo: Query not used by promotions")
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("mockDynamo: TransactWriteItems not used by promotions")
}
