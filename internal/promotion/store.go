package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

const (
	conditionNewCode    = "attribute_not_exists(code)"
	conditionKnownCode  = "attribute_exists(code)"
	conditionCanConsume = "attribute_exists(code) AND #a = :true AND (attribute_not_exists(max_usage) OR usage_count < max_usage)"

	updateConsume   = "ADD usage_count :one SET updated_at = :ua"
	updateSetActive = "SET #a = :active, updated_at = :ua"
)

// record is the DynamoDB item layout. Money is stored as N attributes.
type record struct {
	Code              string                 `dynamodbav:"code"` // PK
	ID                string                 `dynamodbav:"promotion_id"`
	Description       string                 `dynamodbav:"description,omitempty"`
	Type              string                 `dynamodbav:"type"`
	Value             attributevalue.Number  `dynamodbav:"value"`
	StartDate         time.Time              `dynamodbav:"start_date"`
	EndDate           time.Time              `dynamodbav:"end_date"`
	MaxUsage          *int                   `dynamodbav:"max_usage,omitempty"`
	UsageCount        int                    `dynamodbav:"usage_count"`
	Active            bool                   `dynamodbav:"active"`
	CategoryID        string                 `dynamodbav:"category_id,omitempty"`
	MinPurchaseAmount *attributevalue.Number `dynamodbav:"min_purchase_amount,omitempty"`
	CreatedAt         time.Time              `dynamodbav:"created_at"`
	UpdatedAt         time.Time              `dynamodbav:"updated_at"`
}

func toRecord(p *Promotion) record {
	r := record{
		Code:        p.Code,
		ID:          p.ID,
		Description: p.Description,
		Type:        string(p.Type),
		Value:       attributevalue.Number(p.Value.String()),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		MaxUsage:    p.MaxUsage,
		UsageCount:  p.UsageCount,
		Active:      p.Active,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.MinPurchaseAmount != nil {
		n := attributevalue.Number(p.MinPurchaseAmount.String())
		r.MinPurchaseAmount = &n
	}
	return r
}

func (r record) promotion() (*Promotion, error) {
	value, err := decimal.NewFromString(string(r.Value))
	if err != nil {
		return nil, fmt.Errorf("promotion %s: bad value %q: %w", r.Code, r.Value, err)
	}
	p := &Promotion{
		ID:          r.ID,
		Code:        r.Code,
		Description: r.Description,
		Type:        Type(r.Type),
		Value:       value,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		MaxUsage:    r.MaxUsage,
		UsageCount:  r.UsageCount,
		Active:      r.Active,
		CategoryID:  r.CategoryID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.MinPurchaseAmount != nil {
		m, err := decimal.NewFromString(string(*r.MinPurchaseAmount))
		if err != nil {
			return nil, fmt.Errorf("promotion %s: bad min_purchase_amount: %w", r.Code, err)
		}
		p.MinPurchaseAmount = &m
	}
	return p, nil
}

func decodeItem(item map[string]types.AttributeValue) (*Promotion, error) {
	var r record
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal promotion: %w", err)
	}
	return r.promotion()
}

// DynamoStore keeps promotions in a DynamoDB table keyed by code.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// Get reads with strong consistency so usage counts are current.
func (s *DynamoStore) Get(ctx context.Context, code string) (*Promotion, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            codeKey(code),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, aws.StoreError("get promotion", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return decodeItem(out.Item)
}

func (s *DynamoStore) Create(ctx context.Context, p *Promotion) error {
	item, err := attributevalue.MarshalMap(toRecord(p))
	if err != nil {
		return fmt.Errorf("marshal promotion: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(conditionNewCode),
	})
	if err != nil {
		if aws.IsConditionFailed(err) {
			return fmt.Errorf("code %s already exists: %w", p.Code, domain.ErrConflict)
		}
		return aws.StoreError("put promotion", err)
	}
	return nil
}

// IncrementUsage atomically adds one use. The condition re-checks the active
// flag and the cap on the server, so no read precedes the write.
func (s *DynamoStore) IncrementUsage(ctx context.Context, code string, now time.Time) (*Promotion, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      codeKey(code),
		UpdateExpression:         awsString(updateConsume),
		ConditionExpression:      awsString(conditionCanConsume),
		ExpressionAttributeNames: map[string]string{"#a": "active"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":true": &types.AttributeValueMemberBOOL{Value: true},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if aws.IsConditionFailed(err) {
			return nil, fmt.Errorf("promotion %s cannot be consumed: %w", code, domain.ErrConflict)
		}
		return nil, aws.StoreError("increment usage", err)
	}
	return decodeItem(out.Attributes)
}

func (s *DynamoStore) SetActive(ctx context.Context, code string, active bool, now time.Time) (*Promotion, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      codeKey(code),
		UpdateExpression:         awsString(updateSetActive),
		ConditionExpression:      awsString(conditionKnownCode),
		ExpressionAttributeNames: map[string]string{"#a": "active"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberBOOL{Value: active},
			":ua":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if aws.IsConditionFailed(err) {
			return nil, fmt.Errorf("promotion %s: %w", code, domain.ErrNotFound)
		}
		return nil, aws.StoreError("set active", err)
	}
	return decodeItem(out.Attributes)
}

func codeKey(code string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"code": &types.AttributeValueMemberS{Value: code},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
