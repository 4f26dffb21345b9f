// internal/workers/telehealth/filter-relevance/handler.go
package filterrelevance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"telehealth-agent/internal/common/camunda"
	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/common/medterms"
	"telehealth-agent/internal/models"
)

const (
	TaskType = "telehealth-filter-relevance"

	termBoost = 0.1
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// candidateText is the lower-cased question, answer and source contents.
func candidateText(item models.EvidenceItem) string {
	parts := []string{item.Question, item.Answer}
	for _, s := range item.Sources {
		parts = append(parts, s.Content)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Score is word overlap relative to the query size plus 0.1 per domain term
// found in both texts, capped at 1.
func Score(query string, item models.EvidenceItem) float64 {
	q := strings.ToLower(query)
	c := candidateText(item)

	queryWords := medterms.WordSet(q)
	overlap := float64(medterms.Overlap(queryWords, medterms.WordSet(c))) / math.Max(float64(len(queryWords)), 1)
	boost := termBoost * float64(medterms.CountShared(q, c, medterms.RelevanceTerms))

	return math.Min(1, overlap+boost)
}

// Rank scores every candidate and keeps those at or above threshold, most
// relevant first. Equal scores keep their input order.
func Rank(query string, candidates []models.EvidenceItem, threshold float64) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, item := range candidates {
		if r := Score(query, item); r >= threshold {
			scored = append(scored, Scored{Item: item, Relevance: r})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	return scored
}

// Filter returns the relevant candidates, truncated to maxResults when it is
// positive. An empty result is valid.
func Filter(query string, candidates []models.EvidenceItem, threshold float64, maxResults int) []models.EvidenceItem {
	scored := Rank(query, candidates, threshold)
	if maxResults > 0 && len(scored) > maxResults {
		scored = scored[:maxResults]
	}
	items := make([]models.EvidenceItem, 0, len(scored))
	for _, s := range scored {
		items = append(items, s.Item)
	}
	return items
}

type Handler struct {
	config       *Config
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

	threshold := h.config.Threshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}

	items := Filter(input.Query, input.Items, threshold, input.MaxResults)
	h.logger.Info("relevance filter applied", map[string]interface{}{
		"candidates": len(input.Items),
		"kept":       len(items),
		"threshold":  threshold,
	})
	return &Output{Items: items}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
