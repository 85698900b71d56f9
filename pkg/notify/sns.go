package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the subset of the SNS client used for SMS
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSGateway sends transactional SMS through Amazon SNS
type SNSGateway struct {
	client      SNSPublisher
	senderID    string
	countryCode string
}

// NewSNSGateway creates an SMS gateway
func NewSNSGateway(client SNSPublisher, senderID, countryCode string) *SNSGateway {
	return &SNSGateway{client: client, senderID: senderID, countryCode: countryCode}
}

// Send publishes body as a direct SMS to phone
func (g *SNSGateway) Send(ctx context.Context, phone, body string) error {
	to, err := Recipient(g.countryCode, phone)
	if err != nil {
		return err
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if g.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(g.senderID),
		}
	}

	_, err = g.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to publish sms: %w", err)
	}
	return nil
}
