package services

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SmsSender delivers a text message to a phone number. The production
// implementation uses AWS SNS; outside production a logging no-op is used so
// login codes work without AWS credentials.
type SmsSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// SmsService handles sending SMS messages via AWS SNS.
type SmsService struct {
	client *sns.Client
}

// NewSmsService creates a new SMS service client.
func NewSmsService(cfg aws.Config) *SmsService {
	client := sns.NewFromConfig(cfg)
	return &SmsService{client: client}
}

// SendSMS sends a verification code to a phone number.
// The phone number must be in E.164 format (e.g., +12065550100).
func (s *SmsService) SendSMS(ctx context.Context, phoneNumber, message string) error {
	log.Printf("Attempting to send SMS to %s", phoneNumber)

	messageAttributes := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}

	input := &sns.PublishInput{
		Message:           aws.String(message),
		PhoneNumber:       aws.String(phoneNumber),
		MessageAttributes: messageAttributes,
	}

	result, err := s.client.Publish(ctx, input)
	if err != nil {
		log.Printf("Failed to send SMS to %s: %v", phoneNumber, err)
		return err
	}

	log.Printf("Successfully sent SMS. Message ID: %s", *result.MessageId)
	return nil
}

// NoopSmsService logs instead of sending. Used when ENVIRONMENT is not
// production so the login code is surfaced via the API response.
type NoopSmsService struct{}

func (NoopSmsService) SendSMS(_ context.Context, phoneNumber, message string) error {
	log.Printf("SMS suppressed (non-production) to %s: %s", phoneNumber, message)
	return nil
}
