package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
)

// Template is the subset of a furniture template the workshop prices from.
type Template struct {
	ID        string
	Name      string
	BasePrice *decimal.Decimal
}

type templateItem struct {
	ID        string                 `dynamodbav:"template_id"` // PK
	Name      string                 `dynamodbav:"name"`
	BasePrice *attributevalue.Number `dynamodbav:"base_price,omitempty"`
}

// DynamoStore reads templates from the catalog table. The table is owned by
// the catalog admin screens; this service never writes to it.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// Get returns (nil, nil) for an unknown template.
func (s *DynamoStore) Get(ctx context.Context, templateID string) (*Template, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"template_id": &types.AttributeValueMemberS{Value: templateID},
		},
	})
	if err != nil {
		return nil, aws.StoreError("get template", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it templateItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}
	t := &Template{ID: it.ID, Name: it.Name}
	if it.BasePrice != nil {
		p, err := decimal.NewFromString(string(*it.BasePrice))
		if err != nil {
			return nil, fmt.Errorf("template %s: bad base_price %q: %w", it.ID, *it.BasePrice, err)
		}
		t.BasePrice = &p
	}
	return t, nil
}

// BasePrice reports ok=false when the template is unknown or unpriced.
func (s *DynamoStore) BasePrice(ctx context.Context, templateID string) (decimal.Decimal, bool, error) {
	t, err := s.Get(ctx, templateID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if t == nil || t.BasePrice == nil {
		return decimal.Zero, false, nil
	}
	return *t.BasePrice, true, nil
}
