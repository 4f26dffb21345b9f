// internal/workers/telehealth/evaluate-response/evaluator.go
package evaluateresponse

import (
	"strings"
	"unicode/utf8"

	"telehealth-agent/internal/models"
	parseprofile "telehealth-agent/internal/workers/telehealth/parse-profile"
)

// hindiVowels are the Devanagari independent vowels used to detect a Hindi reply.
const hindiVowels = "अआइईउऊएऐओऔ"

var (
	accuracyPositive = []string{
		"consult with your healthcare provider",
		"medical research",
		"evidence-based",
		"scientific",
		"clinical",
		"professional medical advice",
		"healthcare professional",
	}
	accuracyNegative = []string{
		"definitely",
		"always",
		"never",
		"guaranteed",
		"cure",
		"miracle",
		"alternative medicine",
		"natural cure",
	}

	precisionTerms   = []string{"pregnancy", "nutrition", "symptom", "medication", "exercise"}
	actionableWords  = []string{"important", "essential", "recommended", "guidelines"}
	genericPhrases   = []string{"it depends", "maybe", "possibly", "could be", "might be"}
	jargon           = []string{"pathophysiology", "etiology", "prognosis", "differential diagnosis", "contraindications", "pharmacokinetics", "metabolic"}
	structureMarkers = []string{"first", "second", "finally", "additionally"}

	empathyPhrases = []string{
		"i understand",
		"i'm here to help",
		"i know this can be",
		"it's normal to feel",
		"don't worry",
		"you're not alone",
		"i'm here for you",
	}
	supportiveWords  = []string{"support", "help", "assist", "guide", "care", "comfort"}
	dismissiveWords  = []string{"just", "simply", "obviously", "clearly", "of course"}
	complexWordRunes = 12
)

// Evaluate scores a response against the conversation it answers and the
// free-text patient profile. It is deterministic and has no side effects.
func Evaluate(response string, turns []models.ConversationTurn, profile string) models.Evaluation {
	return EvaluateText(response, models.JoinContents(turns), profile)
}

// EvaluateText scores against an already joined conversation transcript.
func EvaluateText(response, conversation, profile string) models.Evaluation {
	scores := models.CriterionScores{
		MedicalAccuracy: medicalAccuracy(response),
		Precision:       precision(response, conversation),
		LanguageClarity: languageClarity(response, profile),
		Empathy:         empathy(response, profile),
	}
	return models.NewEvaluation(scores, Feedback(scores))
}

func medicalAccuracy(response string) float64 {
	lower := strings.ToLower(response)
	score := 70.0
	score += 5 * float64(countContained(lower, accuracyPositive))
	score -= 10 * float64(countContained(lower, accuracyNegative))
	if strings.Contains(lower, "educational purposes only") {
		score += 10
	}
	if strings.Contains(lower, "consult") || strings.Contains(lower, "healthcare provider") {
		score += 5
	}
	return models.Clamp(score)
}

func precision(response, context string) float64 {
	lower := strings.ToLower(response)
	contextLower := strings.ToLower(context)
	score := 60.0

	relevant, addressed := 0, 0
	for _, term := range precisionTerms {
		if !strings.Contains(contextLower, term) {
			continue
		}
		relevant++
		if strings.Contains(lower, term) {
			addressed++
		}
	}
	if relevant > 0 {
		score += float64(addressed) / float64(relevant) * 30
	}

	if countContained(lower, actionableWords) > 0 {
		score += 10
	}
	score -= 5 * float64(countContained(lower, genericPhrases))
	return models.Clamp(score)
}

func languageClarity(response, profile string) float64 {
	lower := strings.ToLower(response)
	score := 70.0

	avg := averageSentenceLength(response)
	switch {
	case avg >= 10 && avg <= 20:
		score += 15
	case avg < 10:
		score += 10
	case avg > 30:
		score -= 10
	}

	score -= 5 * float64(countContained(lower, jargon))
	if countContained(lower, structureMarkers) > 0 {
		score += 10
	}
	if strings.Contains(strings.ToLower(profile), "hindi") && strings.ContainsAny(response, hindiVowels) {
		score += 10
	}

	for _, word := range strings.Fields(response) {
		if utf8.RuneCountInString(word) > complexWordRunes {
			score -= 2
		}
	}
	return models.Clamp(score)
}

// averageSentenceLength divides the words of non-blank sentences by the
// number of "." separated segments, blank ones included.
func averageSentenceLength(response string) float64 {
	segments := strings.Split(response, ".")
	words := 0
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			continue
		}
		words += len(strings.Fields(s))
	}
	return float64(words) / float64(len(segments))
}

func empathy(response, profile string) float64 {
	lower := strings.ToLower(response)
	profileLower := strings.ToLower(profile)
	score := 60.0

	if name := parseprofile.Parse(profile).Name; name != "" && strings.Contains(lower, strings.ToLower(name)) {
		score += 15
	}
	score += 5 * float64(countContained(lower, empathyPhrases))
	score += 3 * float64(countContained(lower, supportiveWords))

	if (strings.Contains(profileLower, "india") || strings.Contains(profileLower, "hindi")) &&
		strings.ContainsAny(response, hindiVowels) {
		score += 10
	}
	score -= 5 * float64(countContained(lower, dismissiveWords))
	return models.Clamp(score)
}

// Feedback renders the band sentence, the per-criterion remarks and the
// improvement suggestions, space separated.
func Feedback(s models.CriterionScores) string {
	var parts []string

	overall := s.Overall()
	switch {
	case overall >= 85:
		parts = append(parts, "Excellent response! This is a high-quality telehealth interaction.")
	case overall >= 70:
		parts = append(parts, "Good response with room for improvement.")
	case overall >= 50:
		parts = append(parts, "Adequate response that needs enhancement.")
	default:
		parts = append(parts, "This response needs significant improvement.")
	}

	if s.MedicalAccuracy < 70 {
		parts = append(parts, "Medical accuracy could be improved by including more evidence-based information and appropriate disclaimers.")
	} else if s.MedicalAccuracy >= 85 {
		parts = append(parts, "Excellent medical accuracy with appropriate safety warnings.")
	}
	if s.Precision < 60 {
		parts = append(parts, "Response could be more precise in addressing the specific patient concerns.")
	} else if s.Precision >= 80 {
		parts = append(parts, "Response precisely addresses the patient's specific questions.")
	}
	if s.LanguageClarity < 65 {
		parts = append(parts, "Language could be clearer and more accessible to patients.")
	} else if s.LanguageClarity >= 85 {
		parts = append(parts, "Clear, accessible language that patients can easily understand.")
	}
	if s.Empathy < 60 {
		parts = append(parts, "Response could be more empathetic and personalized.")
	} else if s.Empathy >= 80 {
		parts = append(parts, "Excellent empathy and personalization in the response.")
	}

	var suggestions []string
	if s.MedicalAccuracy < 80 {
		suggestions = append(suggestions, "Include more specific medical references and safety disclaimers")
	}
	if s.Precision < 70 {
		suggestions = append(suggestions, "Address the patient's specific question more directly")
	}
	if s.LanguageClarity < 75 {
		suggestions = append(suggestions, "Use simpler language and avoid medical jargon")
	}
	if s.Empathy < 70 {
		suggestions = append(suggestions, "Add more personalized and supportive language")
	}
	if len(suggestions) > 0 {
		parts = append(parts, "Suggestions for improvement: "+strings.Join(suggestions, ", ")+".")
	}

	return strings.Join(parts, " ")
}

func countContained(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}
