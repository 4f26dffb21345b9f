// internal/workers/telehealth/synthesize-response/templates.go
package synthesizeresponse

import "telehealth-agent/internal/models"

const (
	RetryAcknowledgment = "I understand your concern, and I'm here to help with a clearer answer."

	greetingNamed   = "Hello %s! I'm here to help you with your pregnancy-related questions."
	greetingGeneric = "Hello! I'm here to help you with your pregnancy-related questions."

	restatement = "You asked: \"%s\""

	nutritionIntro    = "Regarding your question about food and nutrition during pregnancy:"
	nutritionFallback = "It's important to maintain a balanced diet during pregnancy. Consult with your healthcare provider for personalized nutrition advice."

	symptomIntro    = "Regarding your symptoms:"
	symptomFallback = "Some symptoms are normal during pregnancy, but it's important to discuss any concerns with your healthcare provider."

	researchPrefix        = "Based on medical research: "
	generalResearchPrefix = "Based on current medical research:"
	generalFallback       = "Please discuss your question with your healthcare provider for guidance specific to you."

	hindiCourtesy = "मैं आपकी मदद के लिए यहाँ हूँ। कृपया अपने डॉक्टर से भी सलाह लें।"

	Disclaimer = models.Disclaimer
)
