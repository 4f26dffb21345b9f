// Package errors provides standardized error handling for the telehealth
// workers and their BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Terminal pipeline outcomes. These never retry; the workflow routes them
// to the apologetic answer path.
const (
	ErrCodeNoUserInput        ErrorCode = "NO_USER_INPUT"
	ErrCodeNoQueriesExtracted ErrorCode = "NO_QUERIES_EXTRACTED"
	ErrCodeNoEvidenceFound    ErrorCode = "NO_EVIDENCE_FOUND"
)

// Technical and validation failures.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeLiteratureSearchFailed  ErrorCode = "LITERATURE_SEARCH_FAILED"
	ErrCodeLiteratureSearchTimeout ErrorCode = "LITERATURE_SEARCH_TIMEOUT"
	ErrCodeCuratedFAQUnavailable   ErrorCode = "CURATED_FAQ_UNAVAILABLE"
	ErrCodeCuratedFAQIndexFailed   ErrorCode = "CURATED_FAQ_INDEX_FAILED"

	ErrCodeEvidenceCacheFailed ErrorCode = "EVIDENCE_CACHE_FAILED"
	ErrCodeAuditWriteFailed    ErrorCode = "AUDIT_WRITE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowEngineTimeout     ErrorCode = "WORKFLOW_ENGINE_TIMEOUT"
	ErrCodeWorkflowCommandRejected   ErrorCode = "WORKFLOW_COMMAND_REJECTED"

	ErrCodeRequestCancelled ErrorCode = "REQUEST_CANCELLED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoUserInputError() *StandardError {
	return newError(ErrCodeNoUserInput, "No user message found", "", false)
}

func NewNoQueriesExtractedError(utterance string) *StandardError {
	return newError(ErrCodeNoQueriesExtracted, "No medical queries identified", fmt.Sprintf("utterance: %q", utterance), false)
}

func NewNoEvidenceFoundError(queries []string) *StandardError {
	return newError(ErrCodeNoEvidenceFound, "No relevant medical information found",
		fmt.Sprintf("queries: %s", strings.Join(queries, "; ")), false)
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

// NewLiteratureSearchError creates a retryable backend error for one query.
func NewLiteratureSearchError(query string, err error) *StandardError {
	return newError(ErrCodeLiteratureSearchFailed, "Literature search failed",
		fmt.Sprintf("query: %s, error: %v", query, err), true)
}

// NewLiteratureTimeoutError creates a retryable timeout error.
func NewLiteratureTimeoutError(query string) *StandardError {
	return newError(ErrCodeLiteratureSearchTimeout, "Literature search timeout", fmt.Sprintf("query: %s", query), true)
}

func NewCuratedFAQUnavailableError(err error) *StandardError {
	return newError(ErrCodeCuratedFAQUnavailable, "Curated FAQ source unavailable", errDetails(err), true)
}

func NewCuratedFAQIndexError(err error) *StandardError {
	return newError(ErrCodeCuratedFAQIndexFailed, "Curated FAQ indexing failed", errDetails(err), true)
}

func NewEvidenceCacheError(err error) *StandardError {
	return newError(ErrCodeEvidenceCacheFailed, "Evidence cache unavailable", errDetails(err), true)
}

func NewAuditWriteError(err error) *StandardError {
	return newError(ErrCodeAuditWriteFailed, "Evaluation audit write failed", errDetails(err), true)
}

func NewNotificationSendError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Quality alert delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true)
}

// NewWorkflowEngineError classifies a failed Zeebe command.
func NewWorkflowEngineError(code ErrorCode, operation string, err error) *StandardError {
	return newError(code, fmt.Sprintf("Zeebe operation '%s' failed", operation), errDetails(err),
		code != ErrCodeWorkflowCommandRejected)
}

func NewRequestCancelledError(err error) *StandardError {
	return newError(ErrCodeRequestCancelled, "Request cancelled", errDetails(err), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught
// by boundary events in the telehealth process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoUserInput:             "NO_USER_INPUT",
	ErrCodeNoQueriesExtracted:      "NO_QUERIES_EXTRACTED",
	ErrCodeNoEvidenceFound:         "NO_EVIDENCE_FOUND",
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeLiteratureSearchFailed:  "LITERATURE_SEARCH_FAILED",
	ErrCodeLiteratureSearchTimeout: "LITERATURE_SEARCH_TIMEOUT",
	ErrCodeCuratedFAQUnavailable:   "CURATED_FAQ_UNAVAILABLE",
	ErrCodeCuratedFAQIndexFailed:   "CURATED_FAQ_INDEX_FAILED",
	ErrCodeEvidenceCacheFailed:     "EVIDENCE_CACHE_FAILED",
	ErrCodeAuditWriteFailed:        "AUDIT_WRITE_FAILED",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
	ErrCodeRequestCancelled:        "REQUEST_CANCELLED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLiteratureSearchFailed,
		ErrCodeCuratedFAQUnavailable,
		ErrCodeWorkflowEngineUnavailable,
		ErrCodeCuratedFAQIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeLiteratureSearchTimeout,
		ErrCodeAuditWriteFailed:
		return 2
	case ErrCodeEvidenceCacheFailed,
		ErrCodeWorkflowEngineTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "NO_"):
		return "OUTCOME"
	case strings.Contains(codeStr, "LITERATURE") || strings.Contains(codeStr, "CURATED"):
		return "EVIDENCE"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "AUDIT"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
