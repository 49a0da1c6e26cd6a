package sns

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/ward-notify-api/internal/config"
	"github.com/ward-notify-api/internal/domain"
)

// PushPublisher fans a created notification out to an SNS topic so mobile
// push consumers can pick it up. Delivery is best-effort; the writer logs and
// ignores failures.
type PushPublisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (PushPublisher, error) {
	if cfg.SNSTopicARN == "" {
		return nil, errors.New("SNS_TOPIC_ARN not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) Publish(ctx context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(map[string]interface{}{
		"id":            n.NotificationID,
		"type":          n.Type,
		"title":         n.Title,
		"message":       n.Message,
		"recipient_ids": n.RecipientIDs,
	})
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
	})
	return err
}
