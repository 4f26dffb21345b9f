// internal/workers/telehealth/search-faq/handler.go
package searchfaq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"telehealth-agent/internal/common/camunda"
	"telehealth-agent/internal/common/curatedfaq"
	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/models"
	filterrelevance "telehealth-agent/internal/workers/telehealth/filter-relevance"
)

const (
	TaskType = "telehealth-search-faq"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LiteratureSearcher is satisfied by *pubmed.Client.
type LiteratureSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error)
}

type Handler struct {
	config       *Config
	literature   LiteratureSearcher
	curated      curatedfaq.Store
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler builds the FAQ search. A nil curated store serves the
// built-in entries.
func NewHandler(config *Config, literature LiteratureSearcher, curated curatedfaq.Store, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		literature:   literature,
		curated:      curated,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, apperrors.NewInvalidInputError("query is required")
	}

	maxResults := input.MaxResults
	if maxResults == 0 {
		maxResults = h.config.DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxResultsLimit {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("max_results must be between 1 and %d", MaxResultsLimit))
	}

	var (
		results []models.EvidenceItem
		err     error
	)
	switch source := input.Source; source {
	case "", SourcePubMed:
		results, err = h.searchLiterature(ctx, query, maxResults)
		if err == nil {
			results = SynthesizeFAQ(query, results)
		}
	case SourceRaw:
		results, err = h.searchLiterature(ctx, query, maxResults)
	case SourceCurated:
		threshold := h.config.RelevanceThreshold
		if input.RelevanceThreshold != nil {
			threshold = *input.RelevanceThreshold
		}
		results, err = h.searchCurated(ctx, query, maxResults, threshold)
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown source %q", source))
	}
	if err != nil {
		return nil, err
	}

	if input.PopulationFilter != nil {
		results = FilterPopulation(results, *input.PopulationFilter)
	}

	h.logger.Info("faq search completed", map[string]interface{}{
		"query":   query,
		"source":  string(input.Source),
		"results": len(results),
	})
	return &Output{
		Results:      results,
		Query:        input.Query,
		TotalResults: len(results),
	}, nil
}

func (h *Handler) searchLiterature(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error) {
	items, err := h.literature.Search(ctx, query, maxResults)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.NewRequestCancelledError(ctxErr)
		}
		return nil, err
	}
	if items == nil {
		items = []models.EvidenceItem{}
	}
	return items, nil
}

// searchCurated ranks curated entries for query. A failing store falls back
// to the built-in entries.
func (h *Handler) searchCurated(ctx context.Context, query string, maxResults int, threshold float64) ([]models.EvidenceItem, error) {
	entries, err := h.loadCurated(ctx, query)
	if err != nil {
		return nil, err
	}
	return filterrelevance.Filter(query, curatedfaq.ToEvidenceItems(entries), threshold, maxResults), nil
}

func (h *Handler) loadCurated(ctx context.Context, query string) ([]curatedfaq.Entry, error) {
	if h.curated == nil {
		return curatedfaq.FallbackEntries(h.config.SheetURL), nil
	}
	entries, err := h.curated.Search(ctx, query, h.config.CuratedCandidates)
	if err == nil {
		return entries, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, apperrors.NewRequestCancelledError(ctxErr)
	}
	h.logger.Warn("curated FAQ store failed, using built-in entries", map[string]interface{}{
		"error": err.Error(),
	})
	return curatedfaq.FallbackEntries(h.config.SheetURL), nil
}

// SearchCurated serves curated FAQ evidence to the retriever using the
// configured relevance threshold.
func (h *Handler) SearchCurated(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error) {
	return h.searchCurated(ctx, query, maxResults, h.config.RelevanceThreshold)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
