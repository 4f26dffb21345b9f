// internal/workers/telehealth/evaluate-response/models.go
package evaluateresponse

import "telehealth-agent/internal/models"

// Input carries the conversation as turns, or as free text in Context for
// callers that only have the joined transcript. Messages win when both are set.
type Input struct {
	Response string                    `json:"response"`
	Messages []models.ConversationTurn `json:"messages,omitempty"`
	Context  string                    `json:"context,omitempty"`
	Profile  string                    `json:"profile"`
}

type Output struct {
	Evaluation models.Evaluation `json:"evaluation"`
}
