// internal/workers/telehealth/synthesize-response/config.go
package synthesizeresponse

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
