// internal/workers/telehealth/process-turn/config.go
package processturn

import "time"

const (
	DefaultRetryThreshold = 7.0
	DefaultAlertThreshold = 50.0
)

type Config struct {
	// RetryThreshold is compared against the 0-100 overall score.
	RetryThreshold float64
	AlertThreshold float64
	MaxQueries     int
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		RetryThreshold: DefaultRetryThreshold,
		AlertThreshold: DefaultAlertThreshold,
		MaxQueries:     2,
		Timeout:        60 * time.Second,
	}
}
