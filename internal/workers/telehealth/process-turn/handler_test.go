// internal/workers/telehealth/process-turn/handler_test.go
package processturn

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"telehealth-agent/internal/common/database"
	"telehealth-agent/internal/common/metrics"
	"telehealth-agent/internal/models"
	notifyqualityalert "telehealth-agent/internal/workers/telehealth/notify-quality-alert"
	retrieveevidence "telehealth-agent/internal/workers/telehealth/retrieve-evidence"
	synthesizeresponse "telehealth-agent/internal/workers/telehealth/synthesize-response"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Fakes
// ==========================

type fakeRetriever struct {
	evidence []models.EvidenceItem
	err      error
	// emptyAfter makes every call past the first n return no evidence.
	emptyAfter int
	onCall     func()
	calls      [][]string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, queries []string) (*retrieveevidence.Output, error) {
	f.calls = append(f.calls, queries)
	if f.onCall != nil {
		f.onCall()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	evidence := f.evidence
	if f.emptyAfter > 0 && len(f.calls) > f.emptyAfter {
		evidence = nil
	}
	return &retrieveevidence.Output{
		Evidence: evidence,
		Sources:  retrieveevidence.DedupeSources(evidence),
	}, nil
}

type evaluation struct {
	response string
	turns    []models.ConversationTurn
}

// scriptedEvaluator returns uniform scores in order, so each overall score
// equals the scripted value.
type scriptedEvaluator struct {
	scores []float64
	calls  []evaluation
}

func (s *scriptedEvaluator) Evaluate(response string, turns []models.ConversationTurn, _ string) models.Evaluation {
	v := s.scores[len(s.calls)]
	s.calls = append(s.calls, evaluation{response: response, turns: turns})
	return models.NewEvaluation(models.CriterionScores{
		MedicalAccuracy: v,
		Precision:       v,
		LanguageClarity: v,
		Empathy:         v,
	}, "scripted feedback")
}

type fakeNotifier struct {
	err    error
	alerts []*notifyqualityalert.Input
}

func (f *fakeNotifier) Execute(_ context.Context, input *notifyqualityalert.Input) (*notifyqualityalert.Output, error) {
	f.alerts = append(f.alerts, input)
	if f.err != nil {
		return nil, f.err
	}
	return &notifyqualityalert.Output{AlertID: "alert-1", Channels: []string{notifyqualityalert.ChannelSNS}}, nil
}

// ==========================
// Test Helpers
// ==========================

func user(content string) models.ConversationTurn {
	return models.ConversationTurn{Role: models.RoleUser, Content: content}
}

func pregnancyInput() *Input {
	return &Input{
		TurnID: "turn-1",
		Messages: []models.ConversationTurn{
			user("hello, i am pregnant"),
			user("can i eat banana?"),
		},
		Profile: "Name: Ann\nLanguage: Hindi",
	}
}

func nutritionEvidence() []models.EvidenceItem {
	return []models.EvidenceItem{
		{
			Question: "Maternal nutrition and diet quality in pregnancy",
			Answer:   "A balanced diet with fruit, iron and folate supports healthy pregnancy outcomes.",
			Sources: []models.SourceRecord{
				{Title: "Maternal nutrition", ExternalID: "111", URL: "https://pubmed.ncbi.nlm.nih.gov/111/"},
			},
		},
		{
			Question: "Fruit intake during pregnancy",
			Answer:   "Fruit intake is associated with adequate micronutrient status.",
			Sources: []models.SourceRecord{
				{Title: "Fruit intake", ExternalID: "222", URL: "https://pubmed.ncbi.nlm.nih.gov/222/"},
				{Title: "Maternal nutrition", ExternalID: "111", URL: "https://pubmed.ncbi.nlm.nih.gov/111/"},
			},
		},
	}
}

func newTestHandler(t *testing.T, retriever Retriever, opts ...Option) *Handler {
	return NewHandler(LoadConfig(), retriever, &TestLogger{t: t}, opts...)
}

// ==========================
// Scenarios
// ==========================

func TestExecute_PregnancyNutritionTurn(t *testing.T) {
	retriever := &fakeRetriever{evidence: nutritionEvidence()}
	h := newTestHandler(t, retriever)

	result, err := h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)

	require.Len(t, retriever.calls, 1)
	assert.Equal(t, []string{"pregnancy nutrition guidelines"}, retriever.calls[0])

	assert.Equal(t, models.OutcomeAnswered, result.Outcome)
	assert.Contains(t, result.Response, "Ann")
	assert.True(t, strings.HasSuffix(result.Response, synthesizeresponse.Disclaimer))
	require.NotNil(t, result.Evaluation)
	assert.Len(t, result.Sources, 2)
	assert.Len(t, result.EvidenceUsed, 2)
}

func TestExecute_NoUserInput(t *testing.T) {
	retriever := &fakeRetriever{evidence: nutritionEvidence()}
	h := newTestHandler(t, retriever)

	result, err := h.Execute(context.Background(), &Input{Profile: "Name: Ann"})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeNoUserInput, result.Outcome)
	assert.Contains(t, result.Response, "No user message found")
	assert.True(t, strings.HasSuffix(result.Response, models.Disclaimer))
	assert.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.EvidenceUsed)
	assert.Empty(t, result.EvidenceUsed)
	assert.Nil(t, result.Evaluation)
	assert.Empty(t, retriever.calls)
}

func TestExecute_NoEvidenceFound(t *testing.T) {
	retriever := &fakeRetriever{}
	h := newTestHandler(t, retriever)

	result, err := h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeNoEvidenceFound, result.Outcome)
	assert.Contains(t, result.Response, "No relevant medical information found")
	assert.True(t, strings.HasSuffix(result.Response, models.Disclaimer))
	assert.NotEqual(t, models.NewTerminalResult(models.OutcomeNoUserInput).Response, result.Response)
	assert.Nil(t, result.Evaluation)
}

func TestExecute_RetrieverErrorIsNoEvidence(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("backend down")}
	h := newTestHandler(t, retriever)

	result, err := h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoEvidenceFound, result.Outcome)
}

func TestExecute_NoQueriesExtracted(t *testing.T) {
	retriever := &fakeRetriever{evidence: nutritionEvidence()}
	h := newTestHandler(t, retriever)

	result, err := h.Execute(context.Background(), &Input{
		Messages: []models.ConversationTurn{user("?? !!")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoQueriesExtracted, result.Outcome)
	assert.True(t, strings.HasSuffix(result.Response, models.Disclaimer))
	assert.Empty(t, retriever.calls)
}

func TestExecute_HighScoreSkipsRetry(t *testing.T) {
	retriever := &fakeRetriever{evidence: nutritionEvidence()}
	evaluator := &scriptedEvaluator{scores: []float64{9.0}}
	h := newTestHandler(t, retriever, WithEvaluator(evaluator.Evaluate))

	result, err := h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)

	assert.Len(t, retriever.calls, 1)
	require.Len(t, evaluator.calls, 1)
	assert.Equal(t, evaluator.calls[0].response, result.Response)
	require.NotNil(t, result.Evaluation)
	assert.InDelta(t, 9.0, result.Evaluation.OverallScore, 1e-9)
}

func TestExecute_RetryKeepsHigherScore(t *testing.T) {
	before := testutil.ToFloat64(metrics.TelehealthRetries.WithLabelValues(AttemptRetry))

	input := pregnancyInput()
	retriever := &fakeRetriever{evidence: nutritionEvidence()}
	evaluator := &scriptedEvaluator{scores: []float64{5.0, 6.0}}
	h := newTestHandler(t, retriever, WithEvaluator(evaluator.Evaluate))

	result, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Len(t, retriever.calls, 2)
	require.Len(t, evaluator.calls, 2)

	// the regenerated response differs and is the one returned
	assert.NotEqual(t, evaluator.calls[0].response, evaluator.calls[1].response)
	assert.Equal(t, evaluator.calls[1].response, result.Response)
	require.NotNil(t, result.Evaluation)
	assert.InDelta(t, 6.0, result.Evaluation.OverallScore, 1e-9)

	// both passes are scored against the caller's conversation
	for _, call := range evaluator.calls {
		assert.Equal(t, input.Messages, call.turns)
	}

	// the feedback reaches the retried synthesis once, and only that one
	assert.NotContains(t, evaluator.calls[0].response, synthesizeresponse.RetryAcknowledgment)
	assert.Equal(t, 1, strings.Count(result.Response, synthesizeresponse.RetryAcknowledgment))
	assert.NotContains(t, result.Response, "scripted feedback")

	after := testutil.ToFloat64(metrics.TelehealthRetries.WithLabelValues(AttemptRetry))
	assert.Equal(t, 1.0, after-before)
}

func TestExecute_RetrySelection(t *testing.T) {
	tests := []struct {
		name        string
		scores      []float64
		wantOverall float64
		wantRetry   bool
	}{
		{name: "tie keeps initial", scores: []float64{5.0, 5.0}, wantOverall: 5.0},
		{name: "worse retry keeps initial", scores: []float64{5.0, 3.0}, wantOverall: 5.0},
		{name: "still below threshold is not retried again", scores: []float64{1.0, 2.0}, wantOverall: 2.0, wantRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &fakeRetriever{evidence: nutritionEvidence()}
			evaluator := &scriptedEvaluator{scores: tt.scores}
			h := newTestHandler(t, retriever, WithEvaluator(evaluator.Evaluate))

			result, err := h.Execute(context.Background(), pregnancyInput())
			require.NoError(t, err)

			require.Len(t, evaluator.calls, 2)
			require.NotNil(t, result.Evaluation)
			assert.InDelta(t, tt.wantOverall, result.Evaluation.OverallScore, 1e-9)
			assert.GreaterOrEqual(t, result.Evaluation.OverallScore+1e-9, tt.scores[0])

			if tt.wantRetry {
				assert.Equal(t, evaluator.calls[1].response, result.Response)
			} else {
				assert.Equal(t, evaluator.calls[0].response, result.Response)
			}
		})
	}
}

func TestExecute_TerminalRetryKeepsInitial(t *testing.T) {
	retriever := &fakeRetriever{evidence: nutritionEvidence(), emptyAfter: 1}
	evaluator := &scriptedEvaluator{scores: []float64{4.0}}
	h := newTestHandler(t, retriever, WithEvaluator(evaluator.Evaluate))

	result, err := h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)

	assert.Len(t, retriever.calls, 2)
	assert.Len(t, evaluator.calls, 1)
	assert.Equal(t, models.OutcomeAnswered, result.Outcome)
	assert.InDelta(t, 4.0, result.Evaluation.OverallScore, 1e-9)
}

// ==========================
// Cancellation
// ==========================

func TestExecute_CancelledBeforeStart(t *testing.T) {
	retriever := &fakeRetriever{evidence: nutritionEvidence()}
	h := newTestHandler(t, retriever)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.Execute(ctx, pregnancyInput())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Empty(t, retriever.calls)
}

func TestExecute_CancelledDuringRetrieval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retriever := &fakeRetriever{evidence: nutritionEvidence(), onCall: cancel}
	h := newTestHandler(t, retriever)

	result, err := h.Execute(ctx, pregnancyInput())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

// ==========================
// Side Effects
// ==========================

func TestExecute_WritesAuditRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO telehealth_evaluations")).
		WithArgs(
			sqlmock.AnyArg(), "turn-1", "answered",
			9.0, 9.0, 9.0, 9.0, sqlmock.AnyArg(),
			"scripted feedback", false, AttemptInitial, 2, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresAuditStore(database.NewPostgresFromDB(db))
	evaluator := &scriptedEvaluator{scores: []float64{9.0}}
	h := newTestHandler(t, &fakeRetriever{evidence: nutritionEvidence()},
		WithEvaluator(evaluator.Evaluate),
		WithAuditStore(store),
	)

	_, err = h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_AuditFailureIsBestEffort(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO telehealth_evaluations")).
		WillReturnError(errors.New("connection refused"))

	store := NewPostgresAuditStore(database.NewPostgresFromDB(db))
	h := newTestHandler(t, &fakeRetriever{evidence: nutritionEvidence()},
		WithEvaluator((&scriptedEvaluator{scores: []float64{9.0}}).Evaluate),
		WithAuditStore(store),
	)

	result, err := h.Execute(context.Background(), pregnancyInput())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAnswered, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_QualityAlert(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		notifyErr error
		wantAlert bool
	}{
		{name: "below alert threshold", score: 40, wantAlert: true},
		{name: "alert failure is ignored", score: 40, notifyErr: errors.New("sns down"), wantAlert: true},
		{name: "above alert threshold", score: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{err: tt.notifyErr}
			h := newTestHandler(t, &fakeRetriever{evidence: nutritionEvidence()},
				WithEvaluator((&scriptedEvaluator{scores: []float64{tt.score}}).Evaluate),
				WithAlertNotifier(notifier),
			)

			result, err := h.Execute(context.Background(), pregnancyInput())
			require.NoError(t, err)
			require.NotNil(t, result)

			if !tt.wantAlert {
				assert.Empty(t, notifier.alerts)
				return
			}
			require.Len(t, notifier.alerts, 1)
			assert.Equal(t, "turn-1", notifier.alerts[0].TurnID)
			assert.InDelta(t, tt.score, notifier.alerts[0].OverallScore, 1e-9)
			assert.Equal(t, "answered", notifier.alerts[0].Outcome)
		})
	}
}

func TestExecute_AssignsTurnID(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newTestHandler(t, &fakeRetriever{evidence: nutritionEvidence()},
		WithEvaluator((&scriptedEvaluator{scores: []float64{10}}).Evaluate),
		WithAlertNotifier(notifier),
	)

	input := pregnancyInput()
	input.TurnID = ""
	_, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, notifier.alerts, 1)
	assert.Len(t, notifier.alerts[0].TurnID, 36)
}

// ==========================
// Audit Store
// ==========================

func TestPostgresAuditStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS telehealth_evaluations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS telehealth_evaluations_turn_idx")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	store := NewPostgresAuditStore(database.NewPostgresFromDB(db))
	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
