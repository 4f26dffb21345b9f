// internal/workers/telehealth/notify-quality-alert/handler_test.go
package notifyqualityalert

import (
	"context"
	"errors"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "telehealth-agent/internal/common/errors"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Mock AWS Clients
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createValidConfig() *Config {
	cfg := LoadConfig()
	cfg.TopicARN = "arn:aws:sns:us-east-1:123456789012:quality"
	cfg.FromEmail = "alerts@example.com"
	cfg.To = []string{"clinical-lead@example.com"}
	return cfg
}

func createValidInput() *Input {
	return &Input{
		TurnID:       "turn-1",
		OverallScore: 42.5,
		Feedback:     "This response needs significant improvement.",
		Response:     "Hello there.",
		Outcome:      "answered",
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_BothChannels(t *testing.T) {
	publisher := new(MockPublisher)
	sender := new(MockEmailSender)

	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return awssdk.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:123456789012:quality" &&
			awssdk.ToString(in.Subject) == "Telehealth quality alert: score 42.5" &&
			strings.Contains(awssdk.ToString(in.Message), "Turn: turn-1")
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("sns-1")}, nil)

	sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return awssdk.ToString(in.Source) == "alerts@example.com" &&
			len(in.Destination.ToAddresses) == 1
	})).Return(&ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil)

	h := NewHandler(createValidConfig(), publisher, sender, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), createValidInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.AlertID)
	assert.Equal(t, []string{ChannelSNS, ChannelSES}, out.Channels)
	assert.Equal(t, "sns-1", out.MessageIDs[ChannelSNS])
	assert.Equal(t, "ses-1", out.MessageIDs[ChannelSES])

	publisher.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandler_Execute_PartialFailureSucceeds(t *testing.T) {
	publisher := new(MockPublisher)
	sender := new(MockEmailSender)

	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil)

	h := NewHandler(createValidConfig(), publisher, sender, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), createValidInput())
	require.NoError(t, err)
	assert.Equal(t, []string{ChannelSES}, out.Channels)
}

func TestHandler_Execute_AllChannelsFail(t *testing.T) {
	publisher := new(MockPublisher)
	sender := new(MockEmailSender)

	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("unverified sender"))

	h := NewHandler(createValidConfig(), publisher, sender, &TestLogger{t: t})

	_, err := h.Execute(context.Background(), createValidInput())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
	assert.Contains(t, err.Error(), "sns")
}

func TestHandler_Execute_Disabled(t *testing.T) {
	publisher := new(MockPublisher)
	cfg := createValidConfig()
	cfg.Enabled = false

	h := NewHandler(cfg, publisher, nil, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), createValidInput())
	require.NoError(t, err)
	assert.Empty(t, out.Channels)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandler_Execute_UnconfiguredChannelsSkipped(t *testing.T) {
	publisher := new(MockPublisher)
	cfg := createValidConfig()
	cfg.TopicARN = ""

	h := NewHandler(cfg, publisher, nil, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), createValidInput())
	require.NoError(t, err)
	assert.Empty(t, out.Channels)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	h := NewHandler(createValidConfig(), nil, nil, &TestLogger{t: t})

	_, err := h.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

// ==========================
// Message Rendering
// ==========================

func TestBody_TruncatesLongResponse(t *testing.T) {
	in := createValidInput()
	in.Response = strings.Repeat("a", maxResponseExcerpt+20)

	body := Body(in)
	assert.Contains(t, body, strings.Repeat("a", maxResponseExcerpt)+"...")
	assert.NotContains(t, body, strings.Repeat("a", maxResponseExcerpt+1))
	assert.Contains(t, body, "Overall score: 42.5")
}
