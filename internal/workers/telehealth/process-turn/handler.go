// internal/workers/telehealth/process-turn/handler.go
package processturn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"telehealth-agent/internal/common/camunda"
	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/common/observability"
	"telehealth-agent/internal/models"
	evaluateresponse "telehealth-agent/internal/workers/telehealth/evaluate-response"
	extractqueries "telehealth-agent/internal/workers/telehealth/extract-queries"
)

const (
	TaskType = "telehealth-process-turn"
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
	extractor    *extractqueries.Extractor
	retriever    Retriever
	evaluator    EvaluateFunc
	audit        AuditStore
	alerts       AlertNotifier
	obs          *observability.Observability
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

type Option func(*Handler)

// WithEvaluator replaces the heuristic evaluator.
func WithEvaluator(fn EvaluateFunc) Option {
	return func(h *Handler) { h.evaluator = fn }
}

func WithAuditStore(store AuditStore) Option {
	return func(h *Handler) { h.audit = store }
}

func WithAlertNotifier(n AlertNotifier) Option {
	return func(h *Handler) { h.alerts = n }
}

func WithObservability(obs *observability.Observability) Option {
	return func(h *Handler) {
		if obs != nil {
			h.obs = obs
		}
	}
}

func NewHandler(config *Config, retriever Retriever, log Logger, opts ...Option) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	h := &Handler{
		config:       config,
		extractor:    extractqueries.NewExtractor(config.MaxQueries),
		retriever:    retriever,
		evaluator:    evaluateresponse.Evaluate,
		obs:          &observability.Observability{},
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
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

	result, err := h.execute(ctx, &input)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.NewRequestCancelledError(err)
		}
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, &Output{TurnID: input.TurnID, TelehealthResult: result}); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.TelehealthResult, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}
	if input.TurnID == "" {
		input.TurnID = uuid.NewString()
	}
	return h.process(ctx, input)
}

// Execute answers one conversation turn. Terminal outcomes are returned as
// results; the only error besides invalid input is the context's error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.TelehealthResult, error) {
	return h.execute(ctx, input)
}
