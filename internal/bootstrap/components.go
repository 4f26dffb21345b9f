// internal/bootstrap/components.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"telehealth-agent/internal/common/aws"
	"telehealth-agent/internal/common/config"
	"telehealth-agent/internal/common/curatedfaq"
	"telehealth-agent/internal/common/database"
	"telehealth-agent/internal/common/logger"
	"telehealth-agent/internal/common/observability"
	"telehealth-agent/internal/common/pubmed"
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

// Components holds the backends and telehealth operations built from one
// configuration. Optional backends are nil when unconfigured or unreachable.
type Components struct {
	Config *config.Config
	Obs    *observability.Observability

	Literature *pubmed.Client
	Cache      *database.RedisClient
	Postgres   *database.PostgresClient
	Search     *database.ElasticsearchClient
	AWS        *aws.Clients

	Sheet   *curatedfaq.SheetStore
	Curated curatedfaq.Store

	ParseProfile       *parseprofile.Handler
	ExtractQueries     *extractqueries.Handler
	RetrieveEvidence   *retrieveevidence.Handler
	FilterRelevance    *filterrelevance.Handler
	SynthesizeResponse *synthesizeresponse.Handler
	EvaluateResponse   *evaluateresponse.Handler
	ProcessTurn        *processturn.Handler
	SearchFAQ          *searchfaq.Handler
	NotifyQualityAlert *notifyqualityalert.Handler
	// SyncCuratedFAQs is nil unless Elasticsearch is reachable.
	SyncCuratedFAQs *synccuratedfaqs.Handler

	log     logger.Logger
	closers []func() error
}

type options struct {
	connectAttempts int
	connectDelay    time.Duration
	offline         bool
}

type Option func(*options)

// WithConnectRetries retries each backend connection with exponential backoff.
func WithConnectRetries(attempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.connectAttempts = attempts
		o.connectDelay = initialDelay
	}
}

// Offline skips every optional backend (cache, audit database,
// Elasticsearch, AWS). PubMed is still used.
func Offline() Option {
	return func(o *options) { o.offline = true }
}

// New builds every component. Optional backends that fail to connect are
// logged and left out.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) *Components {
	o := options{connectAttempts: 1, connectDelay: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Components{
		Config: cfg,
		Obs:    observability.New(cfg.Observability.ServiceName, observability.WithTracing(cfg.Observability.TracingEnabled)),
		log:    log,
	}
	c.closers = append(c.closers, func() error { c.Obs.Shutdown(); return nil })

	pm := cfg.APIs.PubMed
	c.Literature = pubmed.NewClient(pubmed.Options{
		BaseURL: pm.BaseURL,
		Email:   pm.Email,
		Tool:    pm.Tool,
		Timeout: config.GetDuration(pm.Timeout),
	})

	if !o.offline {
		c.connectCache(ctx, o)
		c.connectPostgres(ctx, o)
		c.connectSearch(o)
		c.connectAWS(ctx)
	}

	faq := cfg.APIs.CuratedFAQ
	c.Sheet = curatedfaq.NewSheetStore(faq.CSVURL, faq.SheetURL, config.GetDuration(faq.Timeout))
	c.Curated = c.Sheet
	if c.Search != nil && faq.Backend == config.CuratedBackendElasticsearch {
		c.Curated = curatedfaq.NewElasticStore(c.Search, faq.Index)
	}

	c.buildHandlers(ctx)
	return c
}

func (c *Components) buildHandlers(ctx context.Context) {
	cfg := c.Config
	th := cfg.Telehealth

	c.ParseProfile = parseprofile.NewHandler(
		&parseprofile.Config{Timeout: workerTimeout(cfg, parseprofile.TaskType, 5*time.Second)},
		&parseProfileLoggerAdapter{c.log},
	)
	c.ExtractQueries = extractqueries.NewHandler(
		&extractqueries.Config{
			MaxQueries: th.MaxQueries,
			Timeout:    workerTimeout(cfg, extractqueries.TaskType, 5*time.Second),
		},
		&extractQueriesLoggerAdapter{c.log},
	)
	c.FilterRelevance = filterrelevance.NewHandler(
		&filterrelevance.Config{
			Threshold: th.RelevanceThreshold,
			Timeout:   workerTimeout(cfg, filterrelevance.TaskType, 5*time.Second),
		},
		&filterRelevanceLoggerAdapter{c.log},
	)
	c.SynthesizeResponse = synthesizeresponse.NewHandler(
		&synthesizeresponse.Config{Timeout: workerTimeout(cfg, synthesizeresponse.TaskType, 5*time.Second)},
		&synthesizeResponseLoggerAdapter{c.log},
	)
	c.EvaluateResponse = evaluateresponse.NewHandler(
		&evaluateresponse.Config{Timeout: workerTimeout(cfg, evaluateresponse.TaskType, 5*time.Second)},
		&evaluateResponseLoggerAdapter{c.log},
	)

	c.SearchFAQ = searchfaq.NewHandler(
		&searchfaq.Config{
			DefaultMaxResults:  searchfaq.DefaultMaxResults,
			RelevanceThreshold: th.RelevanceThreshold,
			CuratedCandidates:  50,
			SheetURL:           cfg.APIs.CuratedFAQ.SheetURL,
			Timeout:            workerTimeout(cfg, searchfaq.TaskType, 30*time.Second),
		},
		c.Literature, c.Curated,
		&searchFAQLoggerAdapter{c.log},
	)

	var retrieveOpts []retrieveevidence.Option
	if c.Cache != nil && th.EvidenceCacheTTL > 0 {
		retrieveOpts = append(retrieveOpts, retrieveevidence.WithCache(c.Cache))
	}
	if th.IncludeCuratedFAQs {
		retrieveOpts = append(retrieveOpts, retrieveevidence.WithCurated(c.SearchFAQ))
	}
	c.RetrieveEvidence = retrieveevidence.NewHandler(
		&retrieveevidence.Config{
			MaxResultsPerQuery: cfg.APIs.PubMed.MaxResultsPerQuery,
			QueryTimeout:       config.GetDuration(cfg.APIs.PubMed.Timeout),
			CacheTTL:           time.Duration(th.EvidenceCacheTTL) * time.Second,
			IncludeCuratedFAQs: th.IncludeCuratedFAQs,
			Timeout:            workerTimeout(cfg, retrieveevidence.TaskType, 30*time.Second),
		},
		c.Literature,
		&retrieveEvidenceLoggerAdapter{c.log},
		retrieveOpts...,
	)

	// A nil client must stay an untyped nil so the channel reads as unset.
	var (
		publisher notifyqualityalert.Publisher
		email     notifyqualityalert.EmailSender
	)
	if c.AWS != nil {
		publisher, email = c.AWS.SNS, c.AWS.SES
	}
	n := cfg.Notifications
	c.NotifyQualityAlert = notifyqualityalert.NewHandler(
		&notifyqualityalert.Config{
			Enabled:   n.Enabled,
			TopicARN:  n.SNS.TopicARN,
			FromEmail: n.Email.FromEmail,
			To:        n.Email.To,
			Timeout:   workerTimeout(cfg, notifyqualityalert.TaskType, 15*time.Second),
		},
		publisher, email,
		&notifyQualityAlertLoggerAdapter{c.log},
	)

	turnOpts := []processturn.Option{processturn.WithObservability(c.Obs)}
	if c.Postgres != nil {
		store := processturn.NewPostgresAuditStore(c.Postgres)
		if err := store.EnsureSchema(ctx); err != nil {
			c.log.Warn("audit schema unavailable, evaluations will not be recorded", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			turnOpts = append(turnOpts, processturn.WithAuditStore(store))
		}
	}
	if n.Enabled && c.AWS != nil {
		turnOpts = append(turnOpts, processturn.WithAlertNotifier(c.NotifyQualityAlert))
	}
	c.ProcessTurn = processturn.NewHandler(
		&processturn.Config{
			RetryThreshold: th.RetryThreshold,
			AlertThreshold: th.AlertThreshold,
			MaxQueries:     th.MaxQueries,
			Timeout:        workerTimeout(cfg, processturn.TaskType, 60*time.Second),
		},
		c.RetrieveEvidence.Retriever(),
		&processTurnLoggerAdapter{c.log},
		turnOpts...,
	)

	if c.Search != nil {
		c.SyncCuratedFAQs = synccuratedfaqs.NewHandler(
			&synccuratedfaqs.Config{Timeout: workerTimeout(cfg, synccuratedfaqs.TaskType, 2*time.Minute)},
			c.Sheet,
			curatedfaq.NewElasticStore(c.Search, cfg.APIs.CuratedFAQ.Index),
			&syncCuratedFAQsLoggerAdapter{c.log},
		)
	}
}

func (c *Components) connectCache(ctx context.Context, o options) {
	rc := c.Config.Database.Redis
	if rc.Address == "" {
		return
	}
	var client *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		client, err = database.NewRedis(rc)
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	}, o.connectAttempts, o.connectDelay, c.log, "Redis connection")
	if err != nil {
		c.log.Warn("evidence cache disabled", map[string]interface{}{"error": err.Error()})
		if client != nil {
			_ = client.Close()
		}
		return
	}
	c.Cache = client
	c.closers = append(c.closers, client.Close)
	c.log.Info("Redis connected successfully", nil)
}

func (c *Components) connectPostgres(ctx context.Context, o options) {
	pc := c.Config.Database.Postgres
	if !pc.Enabled() {
		return
	}
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(pc)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, o.connectAttempts, o.connectDelay, c.log, "PostgreSQL connection")
	if err != nil {
		c.log.Warn("evaluation audit disabled", map[string]interface{}{"error": err.Error()})
		if pg != nil {
			_ = pg.Close()
		}
		return
	}
	c.Postgres = pg
	c.closers = append(c.closers, pg.Close)
	c.log.Info("PostgreSQL connected successfully", nil)
}

func (c *Components) connectSearch(o options) {
	ec := c.Config.Database.Elasticsearch
	if ec.GetURL() == "" {
		return
	}
	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(ec)
		if err != nil {
			return err
		}
		return es.Ping()
	}, o.connectAttempts, o.connectDelay, c.log, "Elasticsearch connection")
	if err != nil {
		c.log.Warn("elasticsearch unavailable, curated FAQs served from the sheet", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	c.Search = es
	c.log.Info("Elasticsearch connected successfully", nil)
}

func (c *Components) connectAWS(ctx context.Context) {
	n := c.Config.Notifications
	if !n.Enabled {
		return
	}
	clients, err := aws.NewClients(ctx, n.AWS.Region)
	if err != nil {
		c.log.Warn("quality alerts disabled", map[string]interface{}{"error": err.Error()})
		return
	}
	c.AWS = clients
}

// Close releases every backend in reverse order of creation.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	c.closers = nil
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if w, ok := cfg.Workers[taskType]; ok && w.Timeout > 0 {
		return config.GetDuration(w.Timeout)
	}
	return fallback
}
