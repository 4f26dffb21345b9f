// internal/workers/telehealth/extract-queries/rules.go
package extractqueries

import "telehealth-agent/internal/common/medterms"

// rule maps a keyword group to a fixed query. Tables are evaluated top-down
// and the first matching rule wins.
type rule struct {
	group medterms.Group
	query string
}

const pregnancyFallbackQuery = "pregnancy health care"

var pregnancyRules = []rule{
	{medterms.Nutrition, "pregnancy nutrition guidelines"},
	{medterms.Headache, "headache during pregnancy"},
	{medterms.Pain, "pregnancy symptoms and complications"},
	{medterms.Medication, "pregnancy medication safety"},
	{medterms.Activity, "pregnancy exercise guidelines"},
	{medterms.Sleep, "sleep problems during pregnancy"},
}

var generalRules = []rule{
	{medterms.Headache, "headache causes and treatment"},
	{medterms.Fever, "fever causes and management"},
	{medterms.Respiratory, "respiratory symptoms and treatment"},
	{medterms.Pain, "pain causes and management"},
	{medterms.Nutrition, "healthy diet and nutrition guidelines"},
}

// profileRules only apply in the pregnancy branch.
var profileRules = []rule{
	{medterms.Group{Name: "itching", Keywords: []string{"itching"}}, "pregnancy itching causes and treatment"},
	{medterms.Group{Name: "diabetes", Keywords: []string{"diabetes"}}, "gestational diabetes management"},
	{medterms.Group{Name: "hypertension", Keywords: []string{"hypertension", "blood pressure"}}, "hypertension in pregnancy"},
}

const maxFallbackWords = 5

func firstMatch(rules []rule, lowered string) (string, bool) {
	for _, r := range rules {
		if r.group.Matches(lowered) {
			return r.query, true
		}
	}
	return "", false
}
