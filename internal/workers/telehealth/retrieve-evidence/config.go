// internal/workers/telehealth/retrieve-evidence/config.go
package retrieveevidence

import "time"

type Config struct {
	MaxResultsPerQuery int
	QueryTimeout       time.Duration
	CacheTTL           time.Duration
	IncludeCuratedFAQs bool
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxResultsPerQuery: 2,
		QueryTimeout:       10 * time.Second,
		CacheTTL:           time.Hour,
		Timeout:            30 * time.Second,
	}
}
