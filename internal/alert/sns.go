package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// SNSAPI is the subset of the SNS client used by SNSSink.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink publishes alerts to an SNS topic.
type SNSSink struct {
	client   SNSAPI
	topicARN string
}

// NewSNSSink creates a new SNS alert sink.
func NewSNSSink(client SNSAPI, topicARN string) (*SNSSink, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("SNS topic ARN required")
	}
	if client == nil {
		return nil, fmt.Errorf("SNS client required")
	}
	return &SNSSink{client: client, topicARN: topicARN}, nil
}

// Name returns the sink identifier.
func (s *SNSSink) Name() string { return string(types.AlertSNS) }

// Send publishes the alert as JSON to the configured SNS topic.
func (s *SNSSink) Send(ctx context.Context, alert types.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}

	subject := fmt.Sprintf("[%s] codedeploy-cleanup", alert.Level)
	if alert.DeploymentID != "" {
		subject = fmt.Sprintf("[%s] codedeploy-cleanup %s/%s", alert.Level, alert.DeploymentGroup, alert.DeploymentID)
	}
	// SNS subjects are limited to 100 characters.
	if len(subject) > 100 {
		subject = subject[:100]
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("publishing to SNS: %w", err)
	}
	return nil
}
