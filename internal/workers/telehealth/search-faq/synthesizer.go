// internal/workers/telehealth/search-faq/synthesizer.go
package searchfaq

import (
	"fmt"
	"strings"

	"telehealth-agent/internal/common/pubmed"
	"telehealth-agent/internal/models"
)

type faqTemplate struct {
	question string
	prefix   func(studies int) string
	from, to int // snippet window; to < 0 means through the end
	minItems int
}

func fixedPrefix(p string) func(int) string {
	return func(int) string { return p }
}

var faqTemplates = []faqTemplate{
	{
		question: "What is %s?",
		prefix:   func(n int) string { return fmt.Sprintf("Based on %d medical studies: ", n) },
		from:     0, to: 2, minItems: 1,
	},
	{
		question: "What are the symptoms of %s?",
		prefix:   fixedPrefix("Common symptoms and signs include: "),
		from:     1, to: 3, minItems: 2,
	},
	{
		question: "How is %s treated?",
		prefix:   fixedPrefix("Treatment and management approaches: "),
		from:     2, to: -1, minItems: 3,
	},
}

// SynthesizeFAQ folds raw literature items into up to three overview,
// symptom and treatment entries named after the first word of query. Every
// entry cites the first source of each raw item.
func SynthesizeFAQ(query string, raw []models.EvidenceItem) []models.EvidenceItem {
	if len(raw) == 0 {
		return []models.EvidenceItem{}
	}

	subject := query
	if words := strings.Fields(query); len(words) > 0 {
		subject = words[0]
	}

	snippets := make([]string, len(raw))
	sources := make([]models.SourceRecord, 0, len(raw))
	for i, item := range raw {
		snippets[i] = item.Answer
		if len(item.Sources) > 0 {
			first := item.Sources[0]
			sources = append(sources, models.SourceRecord{
				Title:      item.Question,
				ExternalID: first.ExternalID,
				URL:        first.URL,
			})
		}
	}

	faqs := make([]models.EvidenceItem, 0, len(faqTemplates))
	for i, tmpl := range faqTemplates {
		if len(raw) < tmpl.minItems {
			break
		}
		answer := tmpl.prefix(len(raw)) + strings.Join(window(snippets, tmpl.from, tmpl.to), " ")
		faqs = append(faqs, models.EvidenceItem{
			Question:        fmt.Sprintf(tmpl.question, subject),
			Answer:          pubmed.Snippet(answer),
			PublicationDate: raw[i].PublicationDate,
			Population:      raw[i].Population,
			Sources:         sources,
		})
	}
	return faqs
}

func window(items []string, from, to int) []string {
	if to < 0 || to > len(items) {
		to = len(items)
	}
	if from >= to {
		return nil
	}
	return items[from:to]
}

// FilterPopulation keeps items whose population contains filter,
// case-insensitively. An empty filter keeps everything.
func FilterPopulation(items []models.EvidenceItem, filter string) []models.EvidenceItem {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return items
	}
	kept := []models.EvidenceItem{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Population), filter) {
			kept = append(kept, item)
		}
	}
	return kept
}
