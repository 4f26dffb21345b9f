// internal/workers/telehealth/search-faq/config.go
package searchfaq

import (
	"time"

	filterrelevance "telehealth-agent/internal/workers/telehealth/filter-relevance"
)

const (
	DefaultMaxResults = 3
	MaxResultsLimit   = 10

	// DefaultSheetURL is the published curated pregnancy FAQ sheet.
	DefaultSheetURL = "https://docs.google.com/spreadsheets/d/1jE9m65m_fCQRZcfFfTVMxifmJKaE6J4WPKY9CrRtOkg/edit?usp=sharing"
	// DefaultCSVURL is the CSV export of the FAQ tab of DefaultSheetURL.
	DefaultCSVURL = "https://docs.google.com/spreadsheets/d/1jE9m65m_fCQRZcfFfTVMxifmJKaE6J4WPKY9CrRtOkg/export?format=csv&gid=1981029180"
)

type Config struct {
	DefaultMaxResults  int
	RelevanceThreshold float64
	// CuratedCandidates bounds how many entries a store returns before ranking.
	CuratedCandidates int
	SheetURL          string
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultMaxResults:  DefaultMaxResults,
		RelevanceThreshold: filterrelevance.DefaultThreshold,
		CuratedCandidates:  50,
		SheetURL:           DefaultSheetURL,
		Timeout:            30 * time.Second,
	}
}
