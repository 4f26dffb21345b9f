package errors

import (
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewLiteratureSearchError("pregnancy nutrition guidelines", fmt.Errorf("503"))
	stdErr.WithMetadata("query", "pregnancy nutrition guidelines")

	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "LITERATURE_SEARCH_FAILED", bpmn.Code)
	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 3, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "LITERATURE_SEARCH_FAILED", vars["errorCode"])
	assert.Equal(t, "LITERATURE_SEARCH_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "pregnancy nutrition guidelines", vars["query"])
	assert.Contains(t, vars["errorDetails"], "503")
}

func TestConvertToBPMNError_TerminalOutcomesNeverRetry(t *testing.T) {
	for _, stdErr := range []*StandardError{
		NewNoUserInputError(),
		NewNoQueriesExtractedError("hello"),
		NewNoEvidenceFoundError([]string{"fever management"}),
	} {
		bpmn := ConvertToBPMNError(stdErr)
		assert.Equal(t, 0, bpmn.Retries, stdErr.Code)
		assert.False(t, bpmn.Retryable)
		assert.Equal(t, "OUTCOME", GetErrorCategory(stdErr.Code))
	}
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeLiteratureSearchFailed, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeLiteratureSearchTimeout, 2},
		{ErrCodeAuditWriteFailed, 2},
		{ErrCodeEvidenceCacheFailed, 1},
		{ErrCodeInvalidInput, 0},
		{ErrCodeNoEvidenceFound, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "EVIDENCE", GetErrorCategory(ErrCodeCuratedFAQUnavailable))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeEvidenceCacheFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestAsStandardError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("retrieve: %w", NewNoEvidenceFoundError(nil))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoEvidenceFound, stdErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeNoEvidenceFound))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeNoEvidenceFound))
}

func TestNormalizeError(t *testing.T) {
	h := NewErrorHandler(nil)
	assert.Equal(t, ErrCodeInternal, h.normalizeError(fmt.Errorf("boom")).Code)
	assert.Equal(t, ErrCodeInvalidInput, h.normalizeError(NewInvalidInputError("x")).Code)
}

func TestRemainingRetries(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: retries}}
	}
	assert.Equal(t, int32(2), remainingRetries(job(3), 3))
	assert.Equal(t, int32(0), remainingRetries(job(1), 3))
	assert.Equal(t, int32(3), remainingRetries(job(10), 3))
}
