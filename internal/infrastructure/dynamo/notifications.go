package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ward-notify-api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	// omitempty tags on optional fields keep unset attributes out of the item;
	// the store rejects explicit empty values on indexed attributes.
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// QueryRecentByDedupKey returns rows sharing the coarse dedup key created at
// or after since, via the dedup_key-created_at GSI. Callers check recipient
// overlap against the result.
func (r *NotificationRepo) QueryRecentByDedupKey(ctx context.Context, dedupKey string, since time.Time) ([]domain.Notification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("dedup_key-created_at-index"),
		KeyConditionExpression: aws.String("dedup_key = :dk AND created_at >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":dk":    &types.AttributeValueMemberS{Value: dedupKey},
			":since": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListByRecipient scans for rows whose delivery set contains userID.
// Recipient sets are lists, so there is no index to query; this is the
// document-store equivalent of an array-contains filter.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("contains(recipient_ids, :uid)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		notifications = append(notifications, page...)
		if out.LastEvaluatedKey == nil {
			return notifications, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// MarkRead flips the read-state entry for one recipient on one row.
// Setting an already-true entry again is a no-op, which keeps the
// operation idempotent.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET #rs.#uid = :read"),
		ConditionExpression: aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames: map[string]string{
			"#rs":  fieldReadState,
			"#uid": userID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":read": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return err
}

// Delete removes the entire row. Deleting a missing id is not an error.
func (r *NotificationRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	return err
}
