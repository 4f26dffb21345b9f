// internal/workers/telehealth/filter-relevance/config.go
package filterrelevance

import "time"

const DefaultThreshold = 0.3

type Config struct {
	Threshold float64
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Timeout:   5 * time.Second,
	}
}
