// internal/workers/telehealth/sync-curated-faqs/config.go
package synccuratedfaqs

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
