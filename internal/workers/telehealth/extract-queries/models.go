// internal/workers/telehealth/extract-queries/models.go
package extractqueries

import "telehealth-agent/internal/models"

type Input struct {
	Messages []models.ConversationTurn `json:"messages"`
	Profile  string                    `json:"profile"`
}

type Output struct {
	Queries []string `json:"queries"`
}
