// internal/workers/telehealth/retrieve-evidence/handler.go
package retrieveevidence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"telehealth-agent/internal/common/camunda"
	apperrors "telehealth-agent/internal/common/errors"
)

const (
	TaskType = "telehealth-retrieve-evidence"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config       *Config
	retriever    *Retriever
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, literature LiteratureSearcher, log Logger, opts ...Option) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		retriever:    NewRetriever(config, literature, l, opts...),
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
	if input == nil || len(input.Queries) == 0 {
		return nil, apperrors.NewInvalidInputError("at least one query is required")
	}

	retriever := h.retriever
	if input.MaxResults > 0 && input.MaxResults != h.config.MaxResultsPerQuery {
		cfg := *h.config
		cfg.MaxResultsPerQuery = input.MaxResults
		copied := *h.retriever
		copied.config = &cfg
		retriever = &copied
	}

	output, err := retriever.Retrieve(ctx, input.Queries)
	if err != nil {
		return nil, apperrors.NewRequestCancelledError(err)
	}
	if len(output.Evidence) == 0 {
		return nil, apperrors.NewNoEvidenceFoundError(input.Queries)
	}

	h.logger.Info("evidence retrieved", map[string]interface{}{
		"queries":  len(input.Queries),
		"evidence": len(output.Evidence),
		"sources":  len(output.Sources),
	})
	return output, nil
}

// Retriever exposes the underlying retriever for in-process orchestration.
func (h *Handler) Retriever() *Retriever {
	return h.retriever
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
