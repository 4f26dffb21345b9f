// internal/workers/telehealth/search-faq/handler_test.go
package searchfaq

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telehealth-agent/internal/common/curatedfaq"
	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Fakes
// ==========================

type fakeLiterature struct {
	items      []models.EvidenceItem
	err        error
	maxResults int
}

func (f *fakeLiterature) Search(_ context.Context, _ string, maxResults int) ([]models.EvidenceItem, error) {
	f.maxResults = maxResults
	if f.err != nil {
		return nil, f.err
	}
	if maxResults < len(f.items) {
		return f.items[:maxResults], nil
	}
	return f.items, nil
}

type fakeStore struct {
	entries []curatedfaq.Entry
	err     error
}

func (f *fakeStore) Search(_ context.Context, _ string, _ int) ([]curatedfaq.Entry, error) {
	return f.entries, f.err
}

func rawItem(id, title, answer, population string) models.EvidenceItem {
	return models.EvidenceItem{
		Question:        title,
		Answer:          answer,
		PublicationDate: "2023-0" + id + "-01",
		Population:      population,
		Sources: []models.SourceRecord{{
			Title:      title,
			ExternalID: id,
			URL:        "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
			Content:    answer,
		}},
	}
}

func rawItems() []models.EvidenceItem {
	return []models.EvidenceItem{
		rawItem("1", "Diabetes overview", "Snippet one.", "General population"),
		rawItem("2", "Gestational diabetes", "Snippet two.", "Pregnant women"),
		rawItem("3", "Diabetes therapy", "Snippet three.", "Cardiac patients"),
	}
}

func strPtr(s string) *string { return &s }

// ==========================
// SynthesizeFAQ
// ==========================

func TestSynthesizeFAQ(t *testing.T) {
	faqs := SynthesizeFAQ("diabetes management in adults", rawItems())
	require.Len(t, faqs, 3)

	assert.Equal(t, "What is diabetes?", faqs[0].Question)
	assert.Equal(t, "Based on 3 medical studies: Snippet one. Snippet two.", faqs[0].Answer)
	assert.Equal(t, "2023-01-01", faqs[0].PublicationDate)
	assert.Equal(t, "General population", faqs[0].Population)

	assert.Equal(t, "What are the symptoms of diabetes?", faqs[1].Question)
	assert.Equal(t, "Common symptoms and signs include: Snippet two. Snippet three.", faqs[1].Answer)
	assert.Equal(t, "Pregnant women", faqs[1].Population)

	assert.Equal(t, "How is diabetes treated?", faqs[2].Question)
	assert.Equal(t, "Treatment and management approaches: Snippet three.", faqs[2].Answer)
	assert.Equal(t, "Cardiac patients", faqs[2].Population)

	for _, faq := range faqs {
		require.Len(t, faq.Sources, 3)
		assert.Equal(t, "Diabetes overview", faq.Sources[0].Title)
		assert.Equal(t, "1", faq.Sources[0].ExternalID)
		assert.Empty(t, faq.Sources[0].Content)
	}
}

func TestSynthesizeFAQ_FewerItems(t *testing.T) {
	assert.Len(t, SynthesizeFAQ("asthma", rawItems()[:1]), 1)
	assert.Len(t, SynthesizeFAQ("asthma", rawItems()[:2]), 2)

	empty := SynthesizeFAQ("asthma", nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSynthesizeFAQ_TruncatesAnswer(t *testing.T) {
	long := strings.Repeat("x", 400)
	faqs := SynthesizeFAQ("anemia", []models.EvidenceItem{rawItem("1", "Anemia", long, "")})

	require.Len(t, faqs, 1)
	assert.True(t, strings.HasSuffix(faqs[0].Answer, "..."))
	assert.Equal(t, 303, utf8.RuneCountInString(faqs[0].Answer))
}

func TestFilterPopulation(t *testing.T) {
	items := rawItems()

	assert.Len(t, FilterPopulation(items, ""), 3)

	kept := FilterPopulation(items, "PREGNANT")
	require.Len(t, kept, 1)
	assert.Equal(t, "Gestational diabetes", kept[0].Question)

	assert.Empty(t, FilterPopulation(items, "pediatric"))
}

// ==========================
// Handler Execute
// ==========================

func TestHandler_Execute_Sources(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		wantCount int
		check     func(t *testing.T, out *Output)
	}{
		{
			name:      "pubmed synthesizes faqs",
			input:     &Input{Query: "diabetes care"},
			wantCount: 3,
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, "What is diabetes?", out.Results[0].Question)
			},
		},
		{
			name:      "raw returns literature items",
			input:     &Input{Query: "diabetes care", Source: SourceRaw, MaxResults: 2},
			wantCount: 2,
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, "Diabetes overview", out.Results[0].Question)
			},
		},
		{
			name:      "population filter on raw items",
			input:     &Input{Query: "diabetes care", Source: SourceRaw, PopulationFilter: strPtr("cardiac")},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(LoadConfig(), &fakeLiterature{items: rawItems()}, nil, &TestLogger{t: t})

			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Len(t, out.Results, tt.wantCount)
			assert.Equal(t, tt.wantCount, out.TotalResults)
			assert.Equal(t, tt.input.Query, out.Query)
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestHandler_Execute_DefaultMaxResults(t *testing.T) {
	lit := &fakeLiterature{items: rawItems()}
	h := NewHandler(LoadConfig(), lit, nil, &TestLogger{t: t})

	_, err := h.Execute(context.Background(), &Input{Query: "diabetes"})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxResults, lit.maxResults)
}

func TestHandler_Execute_EmptyLiterature(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeLiterature{}, nil, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{Query: "zzzz"})
	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
}

func TestHandler_Execute_LiteratureError(t *testing.T) {
	searchErr := apperrors.NewLiteratureSearchError("diabetes", errors.New("503"))
	h := NewHandler(LoadConfig(), &fakeLiterature{err: searchErr}, nil, &TestLogger{t: t})

	_, err := h.Execute(context.Background(), &Input{Query: "diabetes"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLiteratureSearchFailed))
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil", input: nil},
		{name: "blank query", input: &Input{Query: "   "}},
		{name: "too many results", input: &Input{Query: "flu", MaxResults: 11}},
		{name: "negative results", input: &Input{Query: "flu", MaxResults: -1}},
		{name: "unknown source", input: &Input{Query: "flu", Source: "bing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(LoadConfig(), &fakeLiterature{}, nil, &TestLogger{t: t})
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
		})
	}
}

// ==========================
// Curated Search
// ==========================

func TestHandler_Execute_CuratedFallback(t *testing.T) {
	stores := map[string]curatedfaq.Store{
		"no store":      nil,
		"failing store": &fakeStore{err: errors.New("sheet unreachable")},
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(LoadConfig(), &fakeLiterature{}, store, &TestLogger{t: t})

			out, err := h.Execute(context.Background(), &Input{Query: "pregnancy headache", Source: SourceCurated})
			require.NoError(t, err)

			require.Len(t, out.Results, 2)
			assert.True(t, strings.HasPrefix(out.Results[0].Question, "4 months pregnant mother"))
			assert.Equal(t, curatedfaq.Population, out.Results[0].Population)
			assert.Equal(t, curatedfaq.SourceExternalID, out.Results[0].Sources[0].ExternalID)
			assert.Equal(t, curatedfaq.BaseSheetURL(DefaultSheetURL), out.Results[0].Sources[0].URL)
		})
	}
}

func TestHandler_Execute_CuratedThresholdAndLimit(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeLiterature{}, nil, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{Query: "pregnancy headache", Source: SourceCurated, MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)

	strict := 0.95
	out, err = h.Execute(context.Background(), &Input{Query: "pregnancy headache", Source: SourceCurated, RelevanceThreshold: &strict})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
}

func TestHandler_SearchCurated_UsesStore(t *testing.T) {
	store := &fakeStore{entries: []curatedfaq.Entry{
		{
			Keywords:        "Back pain",
			QuestionBengali: "প্রশ্ন",
			QuestionEnglish: "Back pain in pregnancy",
			AnswerEnglish:   "Rest and gentle stretching help back pain during pregnancy.",
			SourceURL:       "https://example.com/sheet",
		},
		{
			Keywords:        "Vaccines",
			QuestionBengali: "প্রশ্ন",
			QuestionEnglish: "Which vaccines are due?",
			AnswerEnglish:   "Follow the immunization schedule.",
			SourceURL:       "https://example.com/sheet",
		},
	}}
	h := NewHandler(LoadConfig(), &fakeLiterature{}, store, &TestLogger{t: t})

	items, err := h.SearchCurated(context.Background(), "back pain pregnancy", 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Back pain in pregnancy", items[0].Question)
	assert.Equal(t, "https://example.com/sheet", items[0].Sources[0].URL)
}
