// internal/workers/telehealth/synthesize-response/synthesizer.go
package synthesizeresponse

import (
	"fmt"
	"strings"

	"telehealth-agent/internal/common/medterms"
	"telehealth-agent/internal/models"
)

const (
	sharedTermWeight   = 3
	unrelatedTermCost  = 5
	minBestMatchScore  = 2
	recognizedLanguage = "Hindi"
)

// Synthesize composes the answer for utterance. Parts are joined with single
// spaces and the disclaimer is always last.
func Synthesize(utterance string, evidence []models.EvidenceItem, profile models.PatientProfile, feedback *models.RetryFeedback) string {
	var parts []string

	if feedback != nil {
		parts = append(parts, RetryAcknowledgment)
	}

	if profile.Name != "" {
		parts = append(parts, fmt.Sprintf(greetingNamed, profile.Name))
	} else {
		parts = append(parts, greetingGeneric)
	}

	parts = append(parts, fmt.Sprintf(restatement, utterance))
	parts = append(parts, categoryParts(utterance, evidence)...)

	if strings.EqualFold(strings.TrimSpace(profile.Language), recognizedLanguage) {
		parts = append(parts, hindiCourtesy)
	}

	parts = append(parts, Disclaimer)
	return strings.Join(parts, " ")
}

func categoryParts(utterance string, evidence []models.EvidenceItem) []string {
	lowered := strings.ToLower(utterance)

	switch {
	case medterms.Nutrition.Matches(lowered):
		item, ok := firstWithQuestionTerm(evidence, "nutrition", "diet")
		if !ok {
			item, ok = BestMatch(utterance, evidence)
		}
		if !ok {
			return []string{nutritionIntro, nutritionFallback}
		}
		return []string{nutritionIntro, researchPrefix + strings.TrimSpace(item.Answer)}

	case medterms.Pain.Matches(lowered):
		item, ok := firstWithQuestionTerm(evidence, "symptom", "complication")
		if !ok {
			item, ok = BestMatch(utterance, evidence)
		}
		if !ok {
			return []string{symptomIntro, symptomFallback}
		}
		return []string{symptomIntro, researchPrefix + strings.TrimSpace(item.Answer)}

	default:
		item, ok := BestMatch(utterance, evidence)
		if !ok {
			return []string{generalFallback}
		}
		return []string{generalResearchPrefix, strings.TrimSpace(item.Answer)}
	}
}

func citeable(item models.EvidenceItem) bool {
	return strings.TrimSpace(item.Answer) != ""
}

func firstWithQuestionTerm(evidence []models.EvidenceItem, terms ...string) (models.EvidenceItem, bool) {
	for _, item := range evidence {
		if citeable(item) && medterms.ContainsAny(strings.ToLower(item.Question), terms) {
			return item, true
		}
	}
	return models.EvidenceItem{}, false
}

// MatchScore weighs an item against the user text: shared words, plus 3 per
// shared domain term, minus 5 per unrelated topic the user did not mention.
func MatchScore(utterance string, item models.EvidenceItem) int {
	u := strings.ToLower(utterance)
	c := strings.ToLower(item.Question + " " + item.Answer)

	score := medterms.Overlap(medterms.WordSet(u), medterms.WordSet(c))
	score += sharedTermWeight * medterms.CountShared(u, c, medterms.SynthesisTerms)
	for _, t := range medterms.UnrelatedTerms {
		if strings.Contains(c, t) && !strings.Contains(u, t) {
			score -= unrelatedTermCost
		}
	}
	return score
}

// BestMatch returns the highest scoring item, earliest on ties. Nothing is
// returned when the best score does not exceed 2.
func BestMatch(utterance string, evidence []models.EvidenceItem) (models.EvidenceItem, bool) {
	bestIdx, bestScore := -1, 0
	for i, item := range evidence {
		if !citeable(item) {
			continue
		}
		s := MatchScore(utterance, item)
		if bestIdx < 0 || s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestIdx < 0 || bestScore <= minBestMatchScore {
		return models.EvidenceItem{}, false
	}
	return evidence[bestIdx], true
}
