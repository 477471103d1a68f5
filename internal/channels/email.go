// internal/channels/email.go
package channels

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailSender sends one plain notification email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SESService is the slice of the SES client we use, extracted for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailSender sends email through Amazon SES.
type SESEmailSender struct {
	client    SESService
	fromEmail string
}

// NewSESEmailSender loads the default AWS config for the region and builds a
// sender.
func NewSESEmailSender(ctx context.Context, region, fromEmail string) (*SESEmailSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESEmailSender{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
	}, nil
}

// NewSESEmailSenderWithClient builds a sender around an existing client
// (used by tests).
func NewSESEmailSenderWithClient(client SESService, fromEmail string) *SESEmailSender {
	return &SESEmailSender{client: client, fromEmail: fromEmail}
}

func (s *SESEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	return err
}
