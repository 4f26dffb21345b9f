// internal/workers/telehealth/synthesize-response/models.go
package synthesizeresponse

import "telehealth-agent/internal/models"

type Input struct {
	Messages      []models.ConversationTurn `json:"messages"`
	Profile       string                    `json:"profile"`
	Evidence      []models.EvidenceItem     `json:"evidence"`
	RetryFeedback *models.RetryFeedback     `json:"retry_feedback,omitempty"`
}

type Output struct {
	Response string `json:"response"`
}
