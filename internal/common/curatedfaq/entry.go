// Package curatedfaq reads the curated pregnancy FAQ sheet and serves it
// from either the published CSV export or an Elasticsearch index.
package curatedfaq

import (
	"context"
	"strings"

	"telehealth-agent/internal/models"
)

const (
	SourceExternalID = "niharika-faq"
	Population       = "Pregnant women"
)

// Entry is one row of the curated sheet.
type Entry struct {
	Keywords        string `json:"keywords"`
	QuestionBengali string `json:"question_bengali"`
	QuestionEnglish string `json:"question_english"`
	AnswerBengali   string `json:"answer_bengali"`
	AnswerEnglish   string `json:"answer_english"`
	SourceURL       string `json:"source_url"`
}

// Store returns candidate entries for a query. Relevance ranking is left
// to the caller.
type Store interface {
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
}

// ToEvidence maps the entry onto an evidence item using the English columns.
func (e Entry) ToEvidence() models.EvidenceItem {
	return models.EvidenceItem{
		Question:   e.QuestionEnglish,
		Answer:     e.AnswerEnglish,
		Population: Population,
		Sources: []models.SourceRecord{{
			Title:      "Niharika FAQ: " + e.Keywords,
			ExternalID: SourceExternalID,
			URL:        e.SourceURL,
			Content:    "Keywords: " + e.Keywords,
		}},
	}
}

// ToEvidenceItems maps entries in order.
func ToEvidenceItems(entries []Entry) []models.EvidenceItem {
	items := make([]models.EvidenceItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.ToEvidence())
	}
	return items
}

// BaseSheetURL strips the /edit suffix from a sheet link.
func BaseSheetURL(sheetURL string) string {
	base, _, _ := strings.Cut(sheetURL, "/edit")
	return base
}

// FallbackEntries are served when the sheet cannot be read.
func FallbackEntries(sheetURL string) []Entry {
	src := BaseSheetURL(sheetURL)
	entries := []Entry{
		{
			Keywords:        "Neck Pain + Hypertension",
			QuestionBengali: "৪ মাসের গর্ভবতী মা। ২য় গর্ভধারন। মাথার পিছনে ব্যাথা করে। ঘাড়ের রগ ধরে থাকে। সাথে পেটেও ব্যাথা করে। কি করবেন?",
			QuestionEnglish: "4 months pregnant mother. 2nd pregnancy. Back of head hurts. The jugular vein remains. It also hurts the stomach. what to do",
			AnswerEnglish: "Thanks for your question. \n\n" +
				"Headaches and varicose veins during pregnancy can be symptoms of high blood pressure, which are pregnancy risk factors. " +
				"So, visit your nearest doctor or hospital without delay and seek necessary treatment. \n\n" +
				"Abdominal pain can be reduced by following the following: \n" +
				"1. Eat a balanced diet rich in vitamins and minerals including vegetables and seasonal fruits\n" +
				"2. Eat small meals 4-6 times a day each time\n" +
				"3. Drink enough water\n" +
				"4. Get enough rest and sleep\n" +
				"5. Do not drink tea or coffee.\n\n" +
				"If the stomach pain is severe, go to the doctor or hospital. The doctor will give proper treatment and advice considering your physical condition.\n  \n" +
				"*** Follow the advice of our phone-based health education service.***",
		},
		{
			Keywords:        "Blurred Vision + Leg Swollen",
			QuestionBengali: "গর্ভবতী মায়ের পাঁচ মাস চলছে।বয়স ত্রিশ বছর।অন্য কোন সমস্যা নেই। মাঝে মাঝে চোখে মুখে অন্ধকার দেখে, বসে থাকলে পা গুলো ফুলে যায়, কি করনীয়?",
			QuestionEnglish: "The pregnant mother is five months pregnant. Age thirty years. No other problem. Sometimes I see darkness in my face, my legs swell when I sit, what should I do?",
			AnswerEnglish: "Thank you for your question.\n\n" +
				"Occasional darkening of the eyes and swollen legs during pregnancy - one of the health risks of the mother during pregnancy. " +
				"If you experience these symptoms, go to the nearest doctor or hospital without delay. " +
				"You should get blood and urine tests done quickly and get the necessary treatment.\n\n" +
				"Get prenatal care and follow your doctor's advice.\n\n" +
				"***Follow the advice of our phone-based health education service.***",
		},
		{
			Keywords:        "Preeclampsia + Leg and Hand Swollen",
			QuestionBengali: "রোগী জানতে চেয়েছেন,৮-৯ মাসের গর্ভবতী মায়ের যদি হাত পায় ফুলে আসে, পানি নামে সেক্ষেত্রে একলাম্পশিয়া হতে পারে, এটা উনি জানিয়েছেন এটা কি সঠিক ? উনি ওনার জানার জন্য জানতে চেয়েছে",
			QuestionEnglish: "The patient wants to know, if the hands of a pregnant mother of 8-9 months are swollen, it can be eclampsia. Is it correct? He wants to know for his sake",
			AnswerEnglish: "Swelling of the mother's hands and feet can be a sign of pre-eclampsia. " +
				"However, blood and urine tests are required to know if it is actually pre-eclampsia. " +
				"Please consult a doctor immediately or visit the nearest hospital for examination and necessary treatment.",
		},
	}
	for i := range entries {
		entries[i].SourceURL = src
	}
	return entries
}
