// internal/workers/telehealth/extract-queries/handler.go
package extractqueries

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"telehealth-agent/internal/common/camunda"
	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/common/medterms"
	"telehealth-agent/internal/models"
	parseprofile "telehealth-agent/internal/workers/telehealth/parse-profile"
)

const (
	TaskType = "telehealth-extract-queries"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Extractor turns a conversation into at most MaxQueries literature queries.
type Extractor struct {
	maxQueries int
}

func NewExtractor(maxQueries int) *Extractor {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	return &Extractor{maxQueries: maxQueries}
}

// Extract returns the queries and OutcomeAnswered, or no queries and the
// terminal outcome that stopped extraction.
func (e *Extractor) Extract(turns []models.ConversationTurn, profile models.PatientProfile) ([]string, models.Outcome) {
	latest, ok := models.LatestUserTurn(turns)
	if !ok {
		return nil, models.OutcomeNoUserInput
	}
	utterance := strings.ToLower(latest.Content)

	var queries []string
	if pregnancyContext(turns, profile) {
		q, ok := firstMatch(pregnancyRules, utterance)
		if !ok {
			q = pregnancyFallbackQuery
		}
		queries = append(queries, q)

		if q, ok := firstMatch(profileRules, strings.ToLower(profile.Raw)); ok {
			queries = append(queries, q)
		}
	} else if q, ok := firstMatch(generalRules, utterance); ok {
		queries = append(queries, q)
	} else if words := medterms.SignificantWords(utterance, maxFallbackWords); len(words) > 0 {
		queries = append(queries, strings.Join(words, " "))
	}

	queries = dedupe(queries)
	if len(queries) > e.maxQueries {
		queries = queries[:e.maxQueries]
	}
	if len(queries) == 0 {
		return nil, models.OutcomeNoQueriesExtracted
	}
	return queries, models.OutcomeAnswered
}

// pregnancyContext spans every user turn, not just the latest, plus the
// profile category and history.
func pregnancyContext(turns []models.ConversationTurn, profile models.PatientProfile) bool {
	for _, t := range turns {
		if t.IsUser() && medterms.Pregnancy.Matches(strings.ToLower(t.Content)) {
			return true
		}
	}
	return medterms.Pregnancy.Matches(strings.ToLower(profile.Category + " " + profile.PatientHistory))
}

func dedupe(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

type Handler struct {
	config       *Config
	extractor    *Extractor
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		extractor:    NewExtractor(config.MaxQueries),
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	queries, outcome := h.extractor.Extract(input.Messages, parseprofile.Parse(input.Profile))
	switch outcome {
	case models.OutcomeNoUserInput:
		return nil, apperrors.NewNoUserInputError()
	case models.OutcomeNoQueriesExtracted:
		latest, _ := models.LatestUserTurn(input.Messages)
		return nil, apperrors.NewNoQueriesExtractedError(latest.Content)
	}

	h.logger.Info("queries extracted", map[string]interface{}{
		"queries": queries,
	})
	return &Output{Queries: queries}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
