// internal/channels/sms.go
package channels

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SMSSender sends one notification SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// SNSService is the slice of the SNS client we use, extracted for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSMSSender sends SMS through Amazon SNS.
type SNSSMSSender struct {
	client SNSService
}

// NewSNSSMSSender loads the default AWS config for the region and builds a
// sender.
func NewSNSSMSSender(ctx context.Context, region string) (*SNSSMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSSMSSender{client: sns.NewFromConfig(awsCfg)}, nil
}

// NewSNSSMSSenderWithClient builds a sender around an existing client (used
// by tests).
func NewSNSSMSSenderWithClient(client SNSService) *SNSSMSSender {
	return &SNSSMSSender{client: client}
}

func (s *SNSSMSSender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
