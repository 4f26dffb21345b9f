// internal/workers/telehealth/extract-queries/config.go
package extractqueries

import "time"

const DefaultMaxQueries = 2

type Config struct {
	MaxQueries int
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxQueries: DefaultMaxQueries,
		Timeout:    5 * time.Second,
	}
}
