// internal/bootstrap/loggers.go
package bootstrap

import (
	"telehealth-agent/internal/common/logger"
	evaluateresponse "telehealth-agent/internal/workers/telehealth/evaluate-response"
	extractqueries "telehealth-agent/internal/workers/telehealth/extract-queries"
	filterrelevance "telehealth-agent/internal/workers/telehealth/filter-relevance"
	notifyqualityalert "telehealth-agent/internal/workers/telehealth/notify-quality-alert"
	parseprofile "telehealth-agent/internal/workers/telehealth/parse-profile"
	processturn "telehealth-agent/internal/workers/telehealth/process-turn"
	retrieveevidence "telehealth-agent/internal/workers/telehealth/retrieve-evidence"
	searchfaq "telehealth-agent/internal/workers/telehealth/search-faq"
	synccuratedfaqs "telehealth-agent/internal/workers/telehealth/sync-curated-faqs"
	synthesizeresponse "telehealth-agent/internal/workers/telehealth/synthesize-response"
)

// Logger adapters for workers that declare their own Logger interfaces

type parseProfileLoggerAdapter struct {
	logger.Logger
}

func (a *parseProfileLoggerAdapter) With(fields map[string]interface{}) parseprofile.Logger {
	return &parseProfileLoggerAdapter{a.Logger.With(fields)}
}

type extractQueriesLoggerAdapter struct {
	logger.Logger
}

func (a *extractQueriesLoggerAdapter) With(fields map[string]interface{}) extractqueries.Logger {
	return &extractQueriesLoggerAdapter{a.Logger.With(fields)}
}

type retrieveEvidenceLoggerAdapter struct {
	logger.Logger
}

func (a *retrieveEvidenceLoggerAdapter) With(fields map[string]interface{}) retrieveevidence.Logger {
	return &retrieveEvidenceLoggerAdapter{a.Logger.With(fields)}
}

type filterRelevanceLoggerAdapter struct {
	logger.Logger
}

func (a *filterRelevanceLoggerAdapter) With(fields map[string]interface{}) filterrelevance.Logger {
	return &filterRelevanceLoggerAdapter{a.Logger.With(fields)}
}

type synthesizeResponseLoggerAdapter struct {
	logger.Logger
}

func (a *synthesizeResponseLoggerAdapter) With(fields map[string]interface{}) synthesizeresponse.Logger {
	return &synthesizeResponseLoggerAdapter{a.Logger.With(fields)}
}

type evaluateResponseLoggerAdapter struct {
	logger.Logger
}

func (a *evaluateResponseLoggerAdapter) With(fields map[string]interface{}) evaluateresponse.Logger {
	return &evaluateResponseLoggerAdapter{a.Logger.With(fields)}
}

type processTurnLoggerAdapter struct {
	logger.Logger
}

func (a *processTurnLoggerAdapter) With(fields map[string]interface{}) processturn.Logger {
	return &processTurnLoggerAdapter{a.Logger.With(fields)}
}

type searchFAQLoggerAdapter struct {
	logger.Logger
}

func (a *searchFAQLoggerAdapter) With(fields map[string]interface{}) searchfaq.Logger {
	return &searchFAQLoggerAdapter{a.Logger.With(fields)}
}

type syncCuratedFAQsLoggerAdapter struct {
	logger.Logger
}

func (a *syncCuratedFAQsLoggerAdapter) With(fields map[string]interface{}) synccuratedfaqs.Logger {
	return &syncCuratedFAQsLoggerAdapter{a.Logger.With(fields)}
}

type notifyQualityAlertLoggerAdapter struct {
	logger.Logger
}

func (a *notifyQualityAlertLoggerAdapter) With(fields map[string]interface{}) notifyqualityalert.Logger {
	return &notifyQualityAlertLoggerAdapter{a.Logger.With(fields)}
}
