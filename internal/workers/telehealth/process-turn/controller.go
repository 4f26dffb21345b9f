// internal/workers/telehealth/process-turn/controller.go
package processturn

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"telehealth-agent/internal/common/metrics"
	"telehealth-agent/internal/models"
	notifyqualityalert "telehealth-agent/internal/workers/telehealth/notify-quality-alert"
	parseprofile "telehealth-agent/internal/workers/telehealth/parse-profile"
	retrieveevidence "telehealth-agent/internal/workers/telehealth/retrieve-evidence"
	synthesizeresponse "telehealth-agent/internal/workers/telehealth/synthesize-response"
)

// Retriever is satisfied by *retrieveevidence.Retriever.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string) (*retrieveevidence.Output, error)
}

// EvaluateFunc scores a response against the original conversation.
type EvaluateFunc func(response string, turns []models.ConversationTurn, profile string) models.Evaluation

// AlertNotifier is satisfied by *notifyqualityalert.Handler.
type AlertNotifier interface {
	Execute(ctx context.Context, input *notifyqualityalert.Input) (*notifyqualityalert.Output, error)
}

// process runs one turn: Initial, Evaluated, optionally Retrying and
// ReEvaluated, then Done. The only error it returns is ctx.Err().
func (h *Handler) process(ctx context.Context, input *Input) (*models.TelehealthResult, error) {
	start := time.Now()
	ctx, span := h.obs.StartSpan(ctx, "telehealth.process_turn",
		attribute.String("turn_id", input.TurnID),
		attribute.Int("turns", len(input.Messages)),
	)
	defer span.End()

	profile := parseprofile.Parse(input.Profile)

	initial, err := h.attempt(ctx, input.Messages, profile, nil)
	if err != nil {
		return nil, err
	}
	if initial.Outcome.IsTerminal() {
		h.finish(ctx, input, initial, false, AttemptInitial, start)
		return initial, nil
	}

	evaluation := h.evaluate(ctx, initial.Response, input)
	result := initial
	retried := false
	selected := AttemptInitial

	if evaluation.OverallScore < h.config.RetryThreshold {
		retried = true
		feedback := models.NewRetryFeedback(evaluation)
		h.logger.Info("overall score below retry threshold, regenerating", map[string]interface{}{
			"turnId":       input.TurnID,
			"overallScore": evaluation.OverallScore,
			"threshold":    h.config.RetryThreshold,
			"feedback":     feedback.Render(),
		})

		regenerated, err := h.attempt(ctx, input.Messages, profile, feedback)
		if err != nil {
			return nil, err
		}
		if !regenerated.Outcome.IsTerminal() {
			// Always scored against the caller's conversation.
			reEvaluation := h.evaluate(ctx, regenerated.Response, input)
			if reEvaluation.OverallScore > evaluation.OverallScore {
				result = regenerated
				evaluation = reEvaluation
				selected = AttemptRetry
			}
		}

		metrics.TelehealthRetries.WithLabelValues(selected).Inc()
		h.obs.RecordRetry(ctx, selected)
	}

	result.Evaluation = &evaluation
	span.SetAttributes(
		attribute.Float64("overall_score", evaluation.OverallScore),
		attribute.String("selected", selected),
	)
	h.finish(ctx, input, result, retried, selected, start)
	return result, nil
}

// attempt runs extraction, retrieval and synthesis once.
func (h *Handler) attempt(ctx context.Context, turns []models.ConversationTurn, profile models.PatientProfile, feedback *models.RetryFeedback) (*models.TelehealthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	latest, ok := models.LatestUserTurn(turns)
	if !ok {
		return models.NewTerminalResult(models.OutcomeNoUserInput), nil
	}

	queries, outcome := h.extractor.Extract(turns, profile)
	if outcome.IsTerminal() {
		return models.NewTerminalResult(outcome), nil
	}

	retrieveCtx, span := h.obs.StartSpan(ctx, "telehealth.retrieve_evidence",
		attribute.StringSlice("queries", queries),
	)
	retrieved, err := h.retriever.Retrieve(retrieveCtx, queries)
	span.End()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		h.logger.Warn("evidence retrieval failed", map[string]interface{}{
			"queries": queries,
			"error":   err.Error(),
		})
		return models.NewTerminalResult(models.OutcomeNoEvidenceFound), nil
	}
	if len(retrieved.Evidence) == 0 {
		return models.NewTerminalResult(models.OutcomeNoEvidenceFound), nil
	}

	_, span = h.obs.StartSpan(ctx, "telehealth.synthesize_response",
		attribute.Bool("retry", feedback != nil),
	)
	response := synthesizeresponse.Synthesize(latest.Content, retrieved.Evidence, profile, feedback)
	span.End()

	return &models.TelehealthResult{
		Response:     response,
		Sources:      retrieved.Sources,
		EvidenceUsed: retrieved.Evidence,
		Outcome:      models.OutcomeAnswered,
	}, nil
}

func (h *Handler) evaluate(ctx context.Context, response string, input *Input) models.Evaluation {
	_, span := h.obs.StartSpan(ctx, "telehealth.evaluate_response")
	defer span.End()
	return h.evaluator(response, input.Messages, input.Profile)
}

// finish records metrics, the audit row and, below the alert threshold, a
// quality alert. Audit and alert failures are logged and otherwise ignored.
func (h *Handler) finish(ctx context.Context, input *Input, result *models.TelehealthResult, retried bool, selected string, start time.Time) {
	outcome := string(result.Outcome)
	metrics.TelehealthTurns.WithLabelValues(outcome).Inc()
	h.obs.RecordTurn(ctx, outcome, time.Since(start))

	ev := result.Evaluation
	if ev == nil {
		h.logger.Info("turn finished without evaluation", map[string]interface{}{
			"turnId":  input.TurnID,
			"outcome": outcome,
		})
		return
	}
	metrics.ObserveEvaluation(ev.ByName(), ev.OverallScore)

	h.logger.Info("turn finished", map[string]interface{}{
		"turnId":       input.TurnID,
		"outcome":      outcome,
		"overallScore": ev.OverallScore,
		"retried":      retried,
		"selected":     selected,
		"duration":     time.Since(start).String(),
	})

	if h.audit != nil {
		err := h.audit.Record(ctx, AuditRecord{
			ID:           uuid.NewString(),
			TurnID:       input.TurnID,
			Outcome:      result.Outcome,
			Scores:       ev.CriterionScores,
			OverallScore: ev.OverallScore,
			Feedback:     ev.Feedback,
			Retried:      retried,
			Selected:     selected,
			SourceCount:  len(result.Sources),
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			h.logger.Warn("evaluation audit write failed", map[string]interface{}{
				"turnId": input.TurnID,
				"error":  err.Error(),
			})
		}
	}

	if h.alerts != nil && ev.OverallScore < h.config.AlertThreshold {
		_, err := h.alerts.Execute(ctx, &notifyqualityalert.Input{
			TurnID:       input.TurnID,
			OverallScore: ev.OverallScore,
			Feedback:     ev.Feedback,
			Response:     result.Response,
			Outcome:      outcome,
		})
		if err != nil {
			h.logger.Warn("quality alert failed", map[string]interface{}{
				"turnId": input.TurnID,
				"error":  err.Error(),
			})
		}
	}
}
