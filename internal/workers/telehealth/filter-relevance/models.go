// internal/workers/telehealth/filter-relevance/models.go
package filterrelevance

import "telehealth-agent/internal/models"

type Input struct {
	Query      string                `json:"query"`
	Items      []models.EvidenceItem `json:"items"`
	Threshold  *float64              `json:"threshold,omitempty"`
	MaxResults int                   `json:"max_results"`
}

type Output struct {
	Items []models.EvidenceItem `json:"items"`
}

// Scored pairs an item with its relevance.
type Scored struct {
	Item      models.EvidenceItem `json:"item"`
	Relevance float64             `json:"relevance"`
}
