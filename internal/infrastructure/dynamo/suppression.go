package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/ward-notify-api/internal/domain"
)

// SuppressionRepo provides typed DynamoDB operations for the per-user
// suppression-session slot. The table is keyed by user_id, so the newest
// persisted session for a user silently replaces any older one.
type SuppressionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSuppressionRepo(client *dynamodb.Client, tableName string) *SuppressionRepo {
	return &SuppressionRepo{client: client, tableName: tableName}
}

func (r *SuppressionRepo) Save(ctx context.Context, s *domain.SuppressionState) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal suppression state: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SuppressionRepo) Load(ctx context.Context, userID string) (*domain.SuppressionState, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("suppression session not found: %w", domain.ErrNotFound)
	}
	var s domain.SuppressionState
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update applies a partial field update to the user's slot.
func (r *SuppressionRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// Delete clears the user's slot (logout path).
func (r *SuppressionRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	return err
}
