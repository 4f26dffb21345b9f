// internal/workers/telehealth/search-faq/models.go
package searchfaq

import "telehealth-agent/internal/models"

// Source selects which backend answers a search.
type Source string

const (
	SourcePubMed  Source = "pubmed"
	SourceRaw     Source = "raw"
	SourceCurated Source = "curated"
)

type Input struct {
	Query              string   `json:"query"`
	MaxResults         int      `json:"max_results,omitempty"`
	PopulationFilter   *string  `json:"population_filter,omitempty"`
	RelevanceThreshold *float64 `json:"relevance_threshold,omitempty"`
	Source             Source   `json:"source,omitempty"`
}

type Output struct {
	Results      []models.EvidenceItem `json:"results"`
	Query        string                `json:"query"`
	TotalResults int                   `json:"total_results"`
}
