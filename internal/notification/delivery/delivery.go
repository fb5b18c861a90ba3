// Package delivery implements the announcement sinks: email via SES,
// push via SNS, and a log sink that is always on.
package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/notification/announce"
)

// Interfaces over the AWS clients for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EmailSink forwards announcements to a configured mailbox through SES.
type EmailSink struct {
	client    SESService
	fromEmail string
	toEmail   string
	logger    logger.Logger
}

func NewEmailSink(ctx context.Context, region, fromEmail, toEmail string, log logger.Logger) (*EmailSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &EmailSink{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		logger:    log.WithFields(map[string]interface{}{"sink": "email"}),
	}, nil
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Notify(ctx context.Context, a announce.Announcement) error {
	subject := a.Title
	if a.ActorName != "" {
		subject = fmt.Sprintf("%s: %s", a.ActorName, a.Title)
	}

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(a.Body)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Debug("email delivered", map[string]interface{}{
		"notificationId": a.ID,
		"kind":           string(a.Kind),
	})
	return nil
}

// PushSink publishes announcements to an SNS topic.
type PushSink struct {
	client   SNSService
	topicARN string
	logger   logger.Logger
}

func NewPushSink(ctx context.Context, region, topicARN string, log logger.Logger) (*PushSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &PushSink{
		client:   sns.NewFromConfig(awsCfg),
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"sink": "push"}),
	}, nil
}

func (s *PushSink) Name() string { return "push" }

func (s *PushSink) Notify(ctx context.Context, a announce.Announcement) error {
	message := a.Title
	if a.Body != "" {
		message = a.Title + "\n" + a.Body
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(message),
	}
	if a.Title != "" {
		input.Subject = aws.String(a.Title)
	}

	_, err := s.client.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("publish push notification: %w", err)
	}

	s.logger.Debug("push delivered", map[string]interface{}{
		"notificationId": a.ID,
		"kind":           string(a.Kind),
	})
	return nil
}

// LogSink writes every announcement to the structured log. It is the
// default sink and never fails.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log.WithFields(map[string]interface{}{"sink": "log"})}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Notify(_ context.Context, a announce.Announcement) error {
	s.logger.Info("notification", map[string]interface{}{
		"notificationId": a.ID,
		"kind":           string(a.Kind),
		"actor":          a.ActorName,
		"title":          a.Title,
		"body":           a.Body,
		"sound":          a.Sound,
		"variant":        a.Variant,
	})
	return nil
}
