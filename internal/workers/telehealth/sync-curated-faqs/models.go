// internal/workers/telehealth/sync-curated-faqs/models.go
package synccuratedfaqs

type Input struct{}

type Output struct {
	Indexed int `json:"indexed"`
}
