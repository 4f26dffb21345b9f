// internal/workers/telehealth/extract-queries/handler_test.go
package extractqueries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

func user(content string) models.ConversationTurn {
	return models.ConversationTurn{Role: models.RoleUser, Content: content}
}

func assistant(content string) models.ConversationTurn {
	return models.ConversationTurn{Role: models.RoleAssistant, Content: content}
}

// ==========================
// Extract
// ==========================

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name    string
		turns   []models.ConversationTurn
		profile models.PatientProfile
		want    []string
	}{
		{
			name:  "pregnancy context from an earlier turn with nutrition question",
			turns: []models.ConversationTurn{user("hello, i am pregnant"), user("can i eat banana?")},
			want:  []string{"pregnancy nutrition guidelines"},
		},
		{
			name:  "pregnancy priority nutrition beats headache",
			turns: []models.ConversationTurn{user("pregnant with a headache, what food helps?")},
			want:  []string{"pregnancy nutrition guidelines"},
		},
		{
			name:  "pregnancy headache",
			turns: []models.ConversationTurn{user("I have a migraine in my second trimester")},
			want:  []string{"headache during pregnancy"},
		},
		{
			name:  "pregnancy medication",
			turns: []models.ConversationTurn{user("is this pill safe for my baby")},
			want:  []string{"pregnancy medication safety"},
		},
		{
			name:  "pregnancy activity",
			turns: []models.ConversationTurn{user("prenatal yoga ok?")},
			want:  []string{"pregnancy exercise guidelines"},
		},
		{
			name:  "pregnancy sleep",
			turns: []models.ConversationTurn{user("pregnant and always tired")},
			want:  []string{"sleep problems during pregnancy"},
		},
		{
			name:  "pregnancy fallback",
			turns: []models.ConversationTurn{user("pregnant, when is my due date")},
			want:  []string{"pregnancy health care"},
		},
		{
			name:    "pregnancy context from profile category",
			turns:   []models.ConversationTurn{user("I feel some pain")},
			profile: models.PatientProfile{Category: "Pregnancy", Raw: "Category: Pregnancy"},
			want:    []string{"pregnancy symptoms and complications"},
		},
		{
			name:    "profile rule appended in pregnancy branch",
			turns:   []models.ConversationTurn{user("i am pregnant and my skin is dry")},
			profile: models.PatientProfile{Raw: "Patient History: severe itching"},
			want:    []string{"pregnancy health care", "pregnancy itching causes and treatment"},
		},
		{
			name:    "first profile rule only",
			turns:   []models.ConversationTurn{user("pregnant, what should i eat")},
			profile: models.PatientProfile{Raw: "History: diabetes and high blood pressure"},
			want:    []string{"pregnancy nutrition guidelines", "gestational diabetes management"},
		},
		{
			name:    "profile rule ignored outside pregnancy",
			turns:   []models.ConversationTurn{user("I have a fever")},
			profile: models.PatientProfile{Raw: "History: hypertension"},
			want:    []string{"fever causes and management"},
		},
		{
			name:  "general headache beats fever",
			turns: []models.ConversationTurn{user("headache and fever since monday")},
			want:  []string{"headache causes and treatment"},
		},
		{
			name:  "general respiratory",
			turns: []models.ConversationTurn{user("bad cough at night")},
			want:  []string{"respiratory symptoms and treatment"},
		},
		{
			name:  "general pain",
			turns: []models.ConversationTurn{user("my knee has pain")},
			want:  []string{"pain causes and management"},
		},
		{
			name:  "general nutrition",
			turns: []models.ConversationTurn{user("best diet for diabetics")},
			want:  []string{"healthy diet and nutrition guidelines"},
		},
		{
			name:  "general fallback uses significant words",
			turns: []models.ConversationTurn{user("What is the best cure for eczema rash?")},
			want:  []string{"best cure eczema rash"},
		},
		{
			name:  "latest user turn drives the secondary category",
			turns: []models.ConversationTurn{user("I have a cough"), assistant("ok"), user("and a fever")},
			want:  []string{"fever causes and management"},
		},
	}

	e := NewExtractor(2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := e.Extract(tt.turns, tt.profile)
			assert.Equal(t, models.OutcomeAnswered, outcome)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_TerminalOutcomes(t *testing.T) {
	e := NewExtractor(2)

	got, outcome := e.Extract(nil, models.PatientProfile{})
	assert.Nil(t, got)
	assert.Equal(t, models.OutcomeNoUserInput, outcome)

	got, outcome = e.Extract([]models.ConversationTurn{assistant("how can I help?")}, models.PatientProfile{})
	assert.Nil(t, got)
	assert.Equal(t, models.OutcomeNoUserInput, outcome)

	got, outcome = e.Extract([]models.ConversationTurn{user("hello, how are you?")}, models.PatientProfile{})
	assert.Nil(t, got)
	assert.Equal(t, models.OutcomeNoQueriesExtracted, outcome)
}

func TestExtractor_TruncatesToMax(t *testing.T) {
	got, _ := NewExtractor(1).Extract(
		[]models.ConversationTurn{user("pregnant and hungry, what food")},
		models.PatientProfile{Raw: "itching"},
	)
	assert.Equal(t, []string{"pregnancy nutrition guidelines"}, got)
}

func TestExtractor_RoleMatchingIsCaseInsensitive(t *testing.T) {
	got, outcome := NewExtractor(2).Extract(
		[]models.ConversationTurn{{Role: "USER", Content: "fever"}},
		models.PatientProfile{},
	)
	assert.Equal(t, models.OutcomeAnswered, outcome)
	assert.Equal(t, []string{"fever causes and management"}, got)
}

// ==========================
// Handler
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{
		Messages: []models.ConversationTurn{user("hello, i am pregnant"), user("can i eat banana?")},
		Profile:  "Name: Ann\nLanguage: Hindi",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pregnancy nutrition guidelines"}, out.Queries)

	_, err = h.Execute(context.Background(), &Input{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoUserInput))

	_, err = h.Execute(context.Background(), &Input{Messages: []models.ConversationTurn{user("hi")}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoQueriesExtracted))
}
