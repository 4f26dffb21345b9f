// internal/workers/telehealth/process-turn/models.go
package processturn

import (
	"time"

	"telehealth-agent/internal/models"
)

type Input struct {
	TurnID   string                    `json:"turn_id,omitempty"`
	Messages []models.ConversationTurn `json:"messages"`
	Profile  string                    `json:"profile"`
}

// Output is the job result: the turn answer plus its id.
type Output struct {
	TurnID string `json:"turn_id"`
	*models.TelehealthResult
}

// Attempt labels which pass produced the kept result.
const (
	AttemptInitial = "initial"
	AttemptRetry   = "retry"
)

// AuditRecord is one row of the evaluation audit log.
type AuditRecord struct {
	ID           string
	TurnID       string
	Outcome      models.Outcome
	Scores       models.CriterionScores
	OverallScore float64
	Feedback     string
	Retried      bool
	Selected     string
	SourceCount  int
	CreatedAt    time.Time
}
