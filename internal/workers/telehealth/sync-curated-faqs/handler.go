// internal/workers/telehealth/sync-curated-faqs/handler.go
package synccuratedfaqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"telehealth-agent/internal/common/camunda"
	"telehealth-agent/internal/common/curatedfaq"
	apperrors "telehealth-agent/internal/common/errors"
)

const (
	TaskType = "telehealth-sync-curated-faqs"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Loader is satisfied by *curatedfaq.SheetStore.
type Loader interface {
	Load(ctx context.Context) ([]curatedfaq.Entry, error)
}

// Indexer is satisfied by *curatedfaq.ElasticStore.
type Indexer interface {
	IndexAll(ctx context.Context, entries []curatedfaq.Entry) (int, error)
}

type Handler struct {
	config       *Config
	loader       Loader
	indexer      Indexer
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, loader Loader, indexer Indexer, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		loader:       loader,
		indexer:      indexer,
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
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
			return
		}
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

// execute copies the sheet into the search index. Unlike search, a
// sync never falls back to the built-in entries.
func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	entries, err := h.loader.Load(ctx)
	if err != nil {
		return nil, apperrors.NewCuratedFAQUnavailableError(err)
	}
	if len(entries) == 0 {
		h.logger.Warn("curated sheet has no rows, index left unchanged", nil)
		return &Output{Indexed: 0}, nil
	}

	indexed, err := h.indexer.IndexAll(ctx, entries)
	if err != nil {
		return nil, apperrors.NewCuratedFAQIndexError(err)
	}

	h.logger.Info("curated FAQs indexed", map[string]interface{}{
		"indexed": indexed,
	})
	return &Output{Indexed: indexed}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
