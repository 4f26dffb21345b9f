// internal/workers/telehealth/retrieve-evidence/retriever.go
package retrieveevidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telehealth-agent/internal/common/database"
	"telehealth-agent/internal/common/metrics"
	"telehealth-agent/internal/models"
)

const (
	backendLiterature = "pubmed"
	backendCurated    = "curated_faq"
	backendCache      = "redis"
)

// LiteratureSearcher is the literature backend, normally *pubmed.Client.
type LiteratureSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error)
}

// CuratedSearcher returns curated FAQ evidence for a query.
type CuratedSearcher interface {
	SearchCurated(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error)
}

// EvidenceCache is satisfied by *database.RedisClient.
type EvidenceCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Retriever runs queries one after another against the literature backend.
// A failing query is logged and skipped.
type Retriever struct {
	config     *Config
	literature LiteratureSearcher
	curated    CuratedSearcher
	cache      EvidenceCache
	logger     Logger
}

type Option func(*Retriever)

func WithCache(cache EvidenceCache) Option {
	return func(r *Retriever) { r.cache = cache }
}

func WithCurated(curated CuratedSearcher) Option {
	return func(r *Retriever) { r.curated = curated }
}

func NewRetriever(config *Config, literature LiteratureSearcher, log Logger, opts ...Option) *Retriever {
	r := &Retriever{
		config:     config,
		literature: literature,
		logger:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CacheKey is the Redis key for one literature query.
func CacheKey(maxResults int, query string) string {
	return fmt.Sprintf("telehealth:evidence:%d:%s", maxResults, query)
}

// Retrieve collects evidence for queries in order. Sources are flattened and
// deduplicated by ExternalID. If ctx ends, Retrieve returns ctx.Err() and no
// partial result.
func (r *Retriever) Retrieve(ctx context.Context, queries []string) (*Output, error) {
	maxResults := r.config.MaxResultsPerQuery
	if maxResults <= 0 {
		maxResults = 2
	}

	evidence := []models.EvidenceItem{}
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := r.searchLiterature(ctx, q, maxResults)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.BackendFailures.WithLabelValues(backendLiterature).Inc()
			r.logger.Warn("literature search failed, skipping query", map[string]interface{}{
				"query": q,
				"error": err.Error(),
			})
			continue
		}
		evidence = append(evidence, items...)
	}

	if r.config.IncludeCuratedFAQs && r.curated != nil {
		for _, q := range queries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			items, err := r.curated.SearchCurated(ctx, q, maxResults)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				metrics.BackendFailures.WithLabelValues(backendCurated).Inc()
				r.logger.Warn("curated FAQ search failed, skipping query", map[string]interface{}{
					"query": q,
					"error": err.Error(),
				})
				continue
			}
			evidence = append(evidence, items...)
		}
	}

	return &Output{
		Evidence: evidence,
		Sources:  DedupeSources(evidence),
	}, nil
}

func (r *Retriever) searchLiterature(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error) {
	key := CacheKey(maxResults, query)
	if r.cache != nil {
		var cached []models.EvidenceItem
		err := r.cache.GetJSON(ctx, key, &cached)
		switch {
		case err == nil:
			metrics.EvidenceCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		case errors.Is(err, database.ErrCacheMiss):
			metrics.EvidenceCacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.EvidenceCacheLookups.WithLabelValues("error").Inc()
			r.logger.Warn("evidence cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	callCtx := ctx
	if r.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.config.QueryTimeout)
		defer cancel()
	}

	items, err := r.literature.Search(callCtx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && len(items) > 0 {
		if err := r.cache.SetJSON(ctx, key, items, r.config.CacheTTL); err != nil {
			metrics.BackendFailures.WithLabelValues(backendCache).Inc()
			r.logger.Warn("evidence cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return items, nil
}

// DedupeSources flattens item sources in order, keeping the first record
// for each ExternalID.
func DedupeSources(items []models.EvidenceItem) []models.SourceRecord {
	seen := make(map[string]bool)
	sources := []models.SourceRecord{}
	for _, item := range items {
		for _, s := range item.Sources {
			if seen[s.ExternalID] {
				continue
			}
			seen[s.ExternalID] = true
			sources = append(sources, s)
		}
	}
	return sources
}
