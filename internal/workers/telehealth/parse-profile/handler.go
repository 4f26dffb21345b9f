// internal/workers/telehealth/parse-profile/handler.go
package parseprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"telehealth-agent/internal/common/camunda"
	apperrors "telehealth-agent/internal/common/errors"
	"telehealth-agent/internal/models"
)

const (
	TaskType = "telehealth-parse-profile"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

var (
	nameRe     = labelPattern("Name")
	locationRe = labelPattern("Location")
	languageRe = labelPattern("Language")
	categoryRe = labelPattern("Category")
	historyRe  = labelPattern("Patient History")
)

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(label) + `:[ \t]*(.+)$`)
}

// Parse extracts the labeled fields. Labels are case-sensitive, may be
// indented, and the first occurrence wins; absent labels leave the field empty.
func Parse(raw string) models.PatientProfile {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return models.PatientProfile{
		Raw:            raw,
		Name:           firstMatch(nameRe, raw),
		Location:       firstMatch(locationRe, raw),
		Language:       firstMatch(languageRe, raw),
		Category:       firstMatch(categoryRe, raw),
		PatientHistory: firstMatch(historyRe, raw),
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
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

	profile := Parse(input.Profile)
	h.logger.Info("profile parsed", map[string]interface{}{
		"hasName":     profile.Name != "",
		"hasLanguage": profile.Language != "",
		"hasCategory": profile.Category != "",
	})
	return &Output{PatientProfile: profile}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
