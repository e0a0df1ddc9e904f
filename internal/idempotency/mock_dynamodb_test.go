package idempotency

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for PutItem/GetItem/UpdateItem used in unit tests.
// It evaluates only the two condition expressions the Store issues.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	getCalls    int
	updateCalls int
	err         error
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func statusOf(item map[string]types.AttributeValue) string {
	if st, ok := item["status"].(*types.AttributeValueMemberS); ok {
		return st.Value
	}
	return ""
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.err != nil {
		return nil, m.err
	}
	keyAttr, ok := params.Item["idempotency_key"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	k := keyAttr.Value

	if params.ConditionExpression != nil && *params.ConditionExpression == conditionClaimable {
		if existing, ok := m.table[k]; ok {
			now, _ := strconv.ParseInt(params.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value, 10, 64)
			exp, _ := strconv.ParseInt(existing["expires_at"].(*types.AttributeValueMemberN).Value, 10, 64)
			if statusOf(existing) != StatusFailed && exp >= now {
				// simulate conditional failure
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	keyAttr := params.Key["idempotency_key"]
	if keyAttr == nil {
		return nil, errors.New("missing key")
	}
	k := keyAttr.(*types.AttributeValueMemberS).Value
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.err != nil {
		return nil, m.err
	}
	k := params.Key["idempotency_key"].(*types.AttributeValueMemberS).Value
	item, ok := m.table[k]
	if !ok || statusOf(item) != StatusInProgress {
		return nil, &types.ConditionalCheckFailedException{}
	}
	// copy so earlier Get results are not mutated
	next := make(map[string]types.AttributeValue, len(item)+3)
	for name, v := range item {
		next[name] = v
	}
	if v, ok := params.ExpressionAttributeValues[":rb"]; ok {
		next["response_body"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":rs"]; ok {
		next["response_status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":n"]; ok {
		next["note"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		next["updated_at"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":done"]; ok {
		next["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":failed"]; ok {
		next["status"] = v
	}
	m.table[k] = next
	return &dyn.UpdateItemOutput{Attributes: next}, nil
}

func (m *simpleMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("simpleMock: Query not supported")
}

func (m *simpleMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("simpleMock: TransactWriteItems not supported")
}
