// Package aws sends farmer-facing SMS through Amazon SNS.
package aws

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/metrics"
)

// maxSMSRunes keeps a message within three concatenated Unicode segments.
const maxSMSRunes = 201

// SNSService is the part of the SNS client the notifier needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SMSNotifier struct {
	client   SNSService
	senderID string
	logger   logger.Logger
}

// NewSMSNotifier loads the default AWS credential chain for region.
func NewSMSNotifier(ctx context.Context, region, senderID string, log logger.Logger) (*SMSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSMSNotifierWithClient(sns.NewFromConfig(cfg), senderID, log), nil
}

func NewSMSNotifierWithClient(client SNSService, senderID string, log logger.Logger) *SMSNotifier {
	return &SMSNotifier{client: client, senderID: senderID, logger: log}
}

// Send publishes a transactional SMS and returns the SNS message ID.
func (n *SMSNotifier) Send(ctx context.Context, phoneNumber, message string) (string, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phoneNumber),
		Message:     aws.String(truncate(message, maxSMSRunes)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if n.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(n.senderID),
		}
	}

	out, err := n.client.Publish(ctx, input)
	if err != nil {
		metrics.SMSNotifications.WithLabelValues("failed").Inc()
		n.logger.Warn("sms publish failed", map[string]interface{}{"error": err.Error()})
		return "", errors.NewNotificationSendFailedError("sms", err)
	}
	metrics.SMSNotifications.WithLabelValues("sent").Inc()

	id := aws.ToString(out.MessageId)
	n.logger.Debug("sms published", map[string]interface{}{"messageId": id})
	return id, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
