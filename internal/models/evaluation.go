// internal/models/evaluation.go
package models

import (
	"fmt"
	"math"
)

// Criterion weights. They sum to 1.0.
const (
	WeightMedicalAccuracy = 0.40
	WeightPrecision       = 0.25
	WeightLanguageClarity = 0.20
	WeightEmpathy         = 0.15
)

// CriterionScores holds the four independently clamped scores (0-100).
type CriterionScores struct {
	MedicalAccuracy float64 `json:"medical_accuracy"`
	Precision       float64 `json:"precision"`
	LanguageClarity float64 `json:"language_clarity"`
	Empathy         float64 `json:"empathy_score"`
}

// Overall is the weighted sum of the criteria.
func (s CriterionScores) Overall() float64 {
	return s.MedicalAccuracy*WeightMedicalAccuracy +
		s.Precision*WeightPrecision +
		s.LanguageClarity*WeightLanguageClarity +
		s.Empathy*WeightEmpathy
}

// ByName exposes the scores keyed by criterion, for metrics and audit rows.
func (s CriterionScores) ByName() map[string]float64 {
	return map[string]float64{
		"medical_accuracy": s.MedicalAccuracy,
		"precision":        s.Precision,
		"language_clarity": s.LanguageClarity,
		"empathy":          s.Empathy,
	}
}

// Evaluation is a scored verdict on one response.
type Evaluation struct {
	CriterionScores
	OverallScore float64 `json:"overall_score"`
	Feedback     string  `json:"feedback"`
}

// NewEvaluation derives the overall score from the criteria.
func NewEvaluation(scores CriterionScores, feedback string) Evaluation {
	return Evaluation{
		CriterionScores: scores,
		OverallScore:    scores.Overall(),
		Feedback:        feedback,
	}
}

// Clamp bounds a raw criterion sum to [0,100].
func Clamp(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}

// RetryFeedback carries the first evaluation into a regenerated attempt.
type RetryFeedback struct {
	Scores       CriterionScores `json:"scores"`
	OverallScore float64         `json:"overall_score"`
	Feedback     string          `json:"feedback"`
}

// NewRetryFeedback captures an evaluation for a retry.
func NewRetryFeedback(ev Evaluation) *RetryFeedback {
	return &RetryFeedback{
		Scores:       ev.CriterionScores,
		OverallScore: ev.OverallScore,
		Feedback:     ev.Feedback,
	}
}

// Render formats the feedback as an instruction line.
func (f *RetryFeedback) Render() string {
	return fmt.Sprintf(
		"Previous response evaluation score: %.1f. Medical accuracy: %.1f, Precision: %.1f, Language clarity: %.1f, Empathy: %.1f. Feedback: %s",
		f.OverallScore,
		f.Scores.MedicalAccuracy, f.Scores.Precision, f.Scores.LanguageClarity, f.Scores.Empathy,
		f.Feedback,
	)
}
