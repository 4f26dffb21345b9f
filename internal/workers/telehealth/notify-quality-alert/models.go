// internal/workers/telehealth/notify-quality-alert/models.go
package notifyqualityalert

type Input struct {
	TurnID       string  `json:"turn_id"`
	OverallScore float64 `json:"overall_score"`
	Feedback     string  `json:"feedback"`
	Response     string  `json:"response"`
	Outcome      string  `json:"outcome"`
}

type Output struct {
	AlertID    string            `json:"alertId"`
	Channels   []string          `json:"channels"`
	MessageIDs map[string]string `json:"messageIds,omitempty"`
}
