// Package medterms holds the keyword groups shared by query extraction,
// response synthesis and relevance scoring.
package medterms

import (
	"strings"
	"unicode"
)

// Group is a named set of indicator substrings.
type Group struct {
	Name     string
	Keywords []string
}

// Matches reports whether lowered contains any keyword. Callers lower-case.
func (g Group) Matches(lowered string) bool {
	return ContainsAny(lowered, g.Keywords)
}

var (
	Pregnancy   = Group{"pregnancy", []string{"pregnant", "pregnancy", "baby", "fetus", "prenatal", "trimester"}}
	Nutrition   = Group{"nutrition", []string{"eat", "food", "diet", "nutrition", "meal"}}
	Headache    = Group{"headache", []string{"headache", "migraine"}}
	Pain        = Group{"pain", []string{"pain", "symptom", "discomfort", "problem", "ache", "cramp"}}
	Medication  = Group{"medication", []string{"medicine", "medication", "drug", "pill", "tablet"}}
	Activity    = Group{"activity", []string{"exercise", "workout", "activity", "fitness", "yoga"}}
	Sleep       = Group{"sleep", []string{"sleep", "insomnia", "tired", "fatigue"}}
	Fever       = Group{"fever", []string{"fever", "temperature", "chills"}}
	Respiratory = Group{"respiratory", []string{"cough", "cold", "breath", "flu", "asthma"}}
)

// RelevanceTerms boost relevance filter scores when shared by query and candidate.
var RelevanceTerms = []string{
	"pregnancy", "pregnant", "baby", "nutrition", "diet", "headache", "pain", "symptom", "treatment",
}

// SynthesisTerms weigh best-match evidence selection.
var SynthesisTerms = append(append([]string{}, RelevanceTerms...), "medication", "exercise", "sleep")

// UnrelatedTerms penalize evidence about topics the user did not raise.
var UnrelatedTerms = []string{"cancer", "cardiac", "heart", "surgery", "pediatric", "veterinary", "dental"}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but if so of to in on at by for with from about into
		i im me my mine we our you your yours he she it its they them their this that these those
		is am are was were be been being do does did done have has had can could should would will shall may might must
		what whats how why when where which who whom whose there here then than
		some any all very just also not no yes get got please hello hi hey thanks thank ok okay`) {
		stopWords[w] = struct{}{}
	}
}

func ContainsAny(lowered string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// CountShared counts terms present by substring in both texts.
func CountShared(a, b string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(a, t) && strings.Contains(b, t) {
			n++
		}
	}
	return n
}

// WordSet splits lowered text on whitespace.
func WordSet(lowered string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(lowered) {
		set[w] = struct{}{}
	}
	return set
}

// Overlap counts words of a also present in b.
func Overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// SignificantWords returns up to limit lower-cased words of text, in order,
// skipping stop words, single characters and repeats.
func SignificantWords(text string, limit int) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var words []string
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 || seen[tok] {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		seen[tok] = true
		words = append(words, tok)
		if limit > 0 && len(words) == limit {
			break
		}
	}
	return words
}
