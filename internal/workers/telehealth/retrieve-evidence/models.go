// internal/workers/telehealth/retrieve-evidence/models.go
package retrieveevidence

import "telehealth-agent/internal/models"

type Input struct {
	Queries    []string `json:"queries"`
	MaxResults int      `json:"max_results"`
}

type Output struct {
	Evidence []models.EvidenceItem `json:"evidence"`
	Sources  []models.SourceRecord `json:"sources"`
}
