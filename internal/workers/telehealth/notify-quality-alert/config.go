// internal/workers/telehealth/notify-quality-alert/config.go
package notifyqualityalert

import "time"

type Config struct {
	Enabled   bool
	TopicARN  string
	FromEmail string
	To        []string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
	}
}
