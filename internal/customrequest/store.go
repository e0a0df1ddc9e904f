package customrequest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

const (
	// CustomerIndex is the GSI (customer_id, created_at) on the requests table.
	CustomerIndex = "customer_id-created_at-index"

	conditionNewRequest  = "attribute_not_exists(request_id)"
	conditionNewCartItem = "attribute_not_exists(item_id)"
	conditionUnchanged   = "#s = :expected AND #rev = :rev"
)

// DynamoStore keeps custom requests in DynamoDB and writes cart line items
// into the carts table (PK customer_id, SK item_id).
type DynamoStore struct {
	client     aws.DynamoDBAPI
	tableName  string
	cartsTable string
}

// NewDynamoStore creates a new requests Store.
func NewDynamoStore(client aws.DynamoDBAPI, tableName, cartsTable string) *DynamoStore {
	return &DynamoStore{
		client:     client,
		tableName:  tableName,
		cartsTable: cartsTable,
	}
}

// Get fetches a request by request_id with a strongly consistent read.
// Returns (nil, nil) if not found.
func (s *DynamoStore) Get(ctx context.Context, id string) (*CustomRequest, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            requestKey(id),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, aws.StoreError("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var r CustomRequest
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal custom request: %w", err)
	}
	if err := checkStatus(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListByCustomer queries the customer index newest first, following pagination.
func (s *DynamoStore) ListByCustomer(ctx context.Context, customerID string) ([]CustomRequest, error) {
	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(CustomerIndex),
		KeyConditionExpression: awsString("customer_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: customerID},
		},
		ScanIndexForward: awsBool(false),
	}

	var out []CustomRequest
	for {
		page, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, aws.StoreError("query custom requests", err)
		}
		var batch []CustomRequest
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal custom requests: %w", err)
		}
		for i := range batch {
			if err := checkStatus(&batch[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// Create puts a new request; an existing request_id is a conflict.
func (s *DynamoStore) Create(ctx context.Context, r *CustomRequest) error {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("marshal custom request: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(conditionNewRequest),
	})
	if err != nil {
		if aws.IsConditionFailed(err) {
			return fmt.Errorf("request %s already exists: %w", r.ID, domain.ErrConflict)
		}
		return aws.StoreError("put item", err)
	}
	return nil
}

// Update replaces the stored request only if status and revision still equal prev.
// Returns domain.ErrConflict if the condition failed.
func (s *DynamoStore) Update(ctx context.Context, r *CustomRequest, prev Precondition) error {
	put, err := s.conditionalPut(r, prev)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                 put.TableName,
		Item:                      put.Item,
		ConditionExpression:       put.ConditionExpression,
		ExpressionAttributeNames:  put.ExpressionAttributeNames,
		ExpressionAttributeValues: put.ExpressionAttributeValues,
	})
	if err != nil {
		if aws.IsConditionFailed(err) {
			return fmt.Errorf("request %s changed since %s/r%d: %w", r.ID, prev.Status, prev.Revision, domain.ErrConflict)
		}
		return aws.StoreError("put item", err)
	}
	return nil
}

// UpdateWithCartItem atomically writes:
//   - the request, conditioned like Update
//   - the cart line item into the carts table
func (s *DynamoStore) UpdateWithCartItem(ctx context.Context, r *CustomRequest, prev Precondition, item CartItem) error {
	put, err := s.conditionalPut(r, prev)
	if err != nil {
		return err
	}
	cartMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal cart item: %w", err)
	}
	// decimal has no attributevalue encoding; store the exact string as a number
	cartMap["price"] = &types.AttributeValueMemberN{Value: item.Price.String()}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: put},
			{
				Put: &types.Put{
					TableName:           &s.cartsTable,
					Item:                cartMap,
					ConditionExpression: awsString(conditionNewCartItem),
				},
			},
		},
	})
	if err != nil {
		if aws.IsConditionFailed(err) || aws.IsTransactionConflict(err) {
			return fmt.Errorf("transaction canceled for request %s: %w", r.ID, domain.ErrConflict)
		}
		return aws.StoreError("transact write", err)
	}
	return nil
}

func (s *DynamoStore) conditionalPut(r *CustomRequest, prev Precondition) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("marshal custom request: %w", err)
	}
	return &types.Put{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(conditionUnchanged),
		ExpressionAttributeNames: map[string]string{
			"#s":   "status",
			"#rev": "revision",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: string(prev.Status)},
			":rev":      &types.AttributeValueMemberN{Value: strconv.Itoa(prev.Revision)},
		},
	}, nil
}

// checkStatus rejects a stored row whose status is outside the state set.
func checkStatus(r *CustomRequest) error {
	st, err := ParseStatus(string(r.Status))
	if err != nil {
		return fmt.Errorf("custom request %s: %w", r.ID, err)
	}
	r.Status = st
	return nil
}

func requestKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"request_id": &types.AttributeValueMemberS{Value: id},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
