// internal/workers/telehealth/notify-quality-alert/handler.go
package notifyqualityalert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"telehealth-agent/internal/common/camunda"
	apperrors "telehealth-agent/internal/common/errors"
)

const (
	TaskType = "telehealth-notify-quality-alert"

	ChannelSNS = "sns"
	ChannelSES = "ses"

	maxResponseExcerpt = 500
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Publisher is satisfied by *aws.SNSClient.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config       *Config
	publisher    Publisher
	email        EmailSender
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler wires the alert channels. A nil publisher or sender disables
// that channel.
func NewHandler(config *Config, publisher Publisher, email EmailSender, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		publisher:    publisher,
		email:        email,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

// execute delivers the alert on every configured channel. A channel failure
// is only returned when no channel succeeded.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	output := &Output{
		AlertID:    uuid.NewString(),
		Channels:   []string{},
		MessageIDs: map[string]string{},
	}
	if !h.config.Enabled {
		h.logger.Info("quality alerts disabled, skipping", map[string]interface{}{
			"turnId": input.TurnID,
		})
		return output, nil
	}

	subject := Subject(input)
	body := Body(input)

	var firstErr error
	if h.publisher != nil && h.config.TopicARN != "" {
		res, err := h.publisher.Publish(ctx, &sns.PublishInput{
			TopicArn: awssdk.String(h.config.TopicARN),
			Subject:  awssdk.String(subject),
			Message:  awssdk.String(body),
			MessageAttributes: map[string]snstypes.MessageAttributeValue{
				"alert_id": {DataType: awssdk.String("String"), StringValue: awssdk.String(output.AlertID)},
				"outcome":  {DataType: awssdk.String("String"), StringValue: awssdk.String(input.Outcome)},
			},
		})
		if err != nil {
			firstErr = h.channelFailed(ChannelSNS, input, err, firstErr)
		} else {
			output.Channels = append(output.Channels, ChannelSNS)
			output.MessageIDs[ChannelSNS] = awssdk.ToString(res.MessageId)
		}
	}

	if h.email != nil && h.config.FromEmail != "" && len(h.config.To) > 0 {
		res, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
			Source:      awssdk.String(h.config.FromEmail),
			Destination: &sestypes.Destination{ToAddresses: h.config.To},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: awssdk.String(subject)},
				Body:    &sestypes.Body{Text: &sestypes.Content{Data: awssdk.String(body)}},
			},
		})
		if err != nil {
			firstErr = h.channelFailed(ChannelSES, input, err, firstErr)
		} else {
			output.Channels = append(output.Channels, ChannelSES)
			output.MessageIDs[ChannelSES] = awssdk.ToString(res.MessageId)
		}
	}

	if len(output.Channels) == 0 && firstErr != nil {
		return nil, firstErr
	}

	h.logger.Info("quality alert sent", map[string]interface{}{
		"alertId":  output.AlertID,
		"turnId":   input.TurnID,
		"channels": output.Channels,
	})
	return output, nil
}

func (h *Handler) channelFailed(channel string, input *Input, err error, firstErr error) error {
	h.logger.Warn("quality alert channel failed", map[string]interface{}{
		"channel": channel,
		"turnId":  input.TurnID,
		"error":   err.Error(),
	})
	if firstErr != nil {
		return firstErr
	}
	return apperrors.NewNotificationSendError(channel, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Subject is the alert headline.
func Subject(input *Input) string {
	return fmt.Sprintf("Telehealth quality alert: score %.1f", input.OverallScore)
}

// Body renders the alert text shared by every channel.
func Body(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn: %s\n", input.TurnID)
	fmt.Fprintf(&b, "Outcome: %s\n", input.Outcome)
	fmt.Fprintf(&b, "Overall score: %.1f\n", input.OverallScore)
	fmt.Fprintf(&b, "Feedback: %s\n", input.Feedback)
	if input.Response != "" {
		fmt.Fprintf(&b, "\nResponse:\n%s\n", excerpt(input.Response, maxResponseExcerpt))
	}
	return b.String()
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
