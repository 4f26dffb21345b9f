// internal/workers/telehealth/synthesize-response/handler_test.go
package synthesizeresponse

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/models"
)

// ==========================
// Test Helpers
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

func ev(question, answer string) models.EvidenceItem {
	return models.EvidenceItem{Question: question, Answer: answer}
}

const greeting = "Hello! I'm here to help you with your pregnancy-related questions."

// ==========================
// Synthesize
// ==========================

func TestSynthesize_NutritionWithNamedHindiProfile(t *testing.T) {
	got := Synthesize(
		"can i eat banana?",
		[]models.EvidenceItem{
			ev("Coronary outcomes", "Unrelated."),
			ev("Nutrition during pregnancy: a review", "Balanced diets support fetal growth."),
		},
		models.PatientProfile{Name: "Ann", Language: "hindi"},
		nil,
	)

	want := strings.Join([]string{
		"Hello Ann! I'm here to help you with your pregnancy-related questions.",
		`You asked: "can i eat banana?"`,
		"Regarding your question about food and nutrition during pregnancy:",
		"Based on medical research: Balanced diets support fetal growth.",
		"मैं आपकी मदद के लिए यहाँ हूँ। कृपया अपने डॉक्टर से भी सलाह लें।",
		Disclaimer,
	}, " ")
	assert.Equal(t, want, got)
}

func TestSynthesize_Branches(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		evidence  []models.EvidenceItem
		want      []string
	}{
		{
			name:      "nutrition falls back to best match",
			utterance: "what food is good for iron",
			evidence:  []models.EvidenceItem{ev("Iron supplementation", "Iron rich food is good for you.")},
			want:      []string{nutritionIntro, "Based on medical research: Iron rich food is good for you."},
		},
		{
			name:      "nutrition fixed fallback",
			utterance: "what should i eat",
			evidence:  nil,
			want:      []string{nutritionIntro, nutritionFallback},
		},
		{
			name:      "symptom item by question term",
			utterance: "I have back pain",
			evidence: []models.EvidenceItem{
				ev("Exercise in pregnancy", "Walk daily."),
				ev("Pregnancy symptoms and complications review", "Back pain is common."),
			},
			want: []string{symptomIntro, "Based on medical research: Back pain is common."},
		},
		{
			name:      "symptom fixed fallback",
			utterance: "some discomfort",
			evidence:  []models.EvidenceItem{ev("Dental surgery", "Unrelated.")},
			want:      []string{symptomIntro, symptomFallback},
		},
		{
			name:      "general best match",
			utterance: "what about my sleep schedule",
			evidence: []models.EvidenceItem{
				ev("Heart surgery outcomes", "sleep after cardiac surgery"),
				ev("Sleep in pregnancy", "A regular sleep schedule helps."),
			},
			want: []string{generalResearchPrefix, "A regular sleep schedule helps."},
		},
		{
			name:      "general nothing above the floor",
			utterance: "fever chills",
			evidence:  []models.EvidenceItem{ev("fever chills", "rest")},
			want:      []string{generalFallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.utterance, tt.evidence, models.PatientProfile{}, nil)
			parts := append([]string{greeting, `You asked: "` + tt.utterance + `"`}, tt.want...)
			parts = append(parts, Disclaimer)
			assert.Equal(t, strings.Join(parts, " "), got)
		})
	}
}

func TestSynthesize_RetryFeedbackAcknowledgedFirst(t *testing.T) {
	fb := models.NewRetryFeedback(models.NewEvaluation(models.CriterionScores{}, "needs work"))
	got := Synthesize("hello", nil, models.PatientProfile{}, fb)

	assert.True(t, strings.HasPrefix(got, RetryAcknowledgment+" "+greeting))
	assert.Equal(t, 1, strings.Count(got, RetryAcknowledgment))
	assert.True(t, strings.HasSuffix(got, Disclaimer))
}

func TestSynthesize_OtherLanguagesGetNoCourtesyLine(t *testing.T) {
	got := Synthesize("hello", nil, models.PatientProfile{Language: "Bengali"}, nil)
	assert.NotContains(t, got, "मैं")
}

// ==========================
// Best match
// ==========================

func TestMatchScore(t *testing.T) {
	assert.Equal(t, -4, MatchScore("my heart races at night", ev("heart rate", "cardiac checks")))
	assert.Equal(t, 5, MatchScore("what about my sleep schedule", ev("Sleep in pregnancy", "A regular sleep schedule helps.")))
}

func TestBestMatch(t *testing.T) {
	a := ev("sleep tips", "sleep well")
	b := ev("sleep tips", "sleep better")

	got, ok := BestMatch("sleep tips please", []models.EvidenceItem{a, b})
	require.True(t, ok)
	assert.Equal(t, a, got, "ties keep the earliest item")

	_, ok = BestMatch("sleep", nil)
	assert.False(t, ok)

	_, ok = BestMatch("sleep", []models.EvidenceItem{ev("sleep", "")})
	assert.False(t, ok, "items without an answer are not cited")
}

// ==========================
// Handler
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{
		Messages: []models.ConversationTurn{
			{Role: models.RoleUser, Content: "hello, i am pregnant"},
			{Role: models.RoleUser, Content: "can i eat banana?"},
		},
		Profile: "Name: Ann\nLanguage: Hindi",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Response, "Hello Ann!")
	assert.True(t, strings.HasSuffix(out.Response, Disclaimer))

	_, err = h.Execute(context.Background(), &Input{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNoUserInput))
}
