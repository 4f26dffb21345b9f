package database

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"telehealth-agent/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Redis
// ==========================

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedis_JSONRoundTripAndTTL(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "telehealth:evidence:2:fever", []string{"a", "b"}, time.Minute))

	var got []string
	require.NoError(t, client.GetJSON(ctx, "telehealth:evidence:2:fever", &got))
	assert.Equal(t, []string{"a", "b"}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, client.GetJSON(ctx, "telehealth:evidence:2:fever", &got), ErrCacheMiss)
}

func TestRedis_GetJSON_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewRedisFromClient(db)

	mock.ExpectGet("k1").RedisNil()
	mock.ExpectGet("k2").SetErr(errors.New("connection reset"))
	mock.ExpectGet("k3").SetVal("{not json")

	var dest map[string]interface{}
	assert.ErrorIs(t, client.GetJSON(context.Background(), "k1", &dest), ErrCacheMiss)

	err := client.GetJSON(context.Background(), "k2", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "connection reset")

	assert.ErrorContains(t, client.GetJSON(context.Background(), "k3", &dest), "decode cached")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}


// ==========================
// Postgres
// ==========================

func TestPostgres_ExecStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pg := NewPostgresFromDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, pg.ExecStatements(context.Background(), "CREATE TABLE a", "CREATE INDEX b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExecStatements_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = NewPostgresFromDB(db).ExecStatements(context.Background(), "CREATE TABLE a")
	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch
// ==========================

type esRecorder struct {
	mu       sync.Mutex
	requests []string
}

func newFakeES(t *testing.T, indexExists bool) (*ElasticsearchClient, *esRecorder) {
	t.Helper()
	rec := &esRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.requests = append(rec.requests, r.Method+" "+r.URL.Path)
		rec.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && !indexExists:
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, rec
}

func TestElasticsearch_EnsureIndex_Creates(t *testing.T) {
	client, rec := newFakeES(t, false)

	require.NoError(t, client.EnsureIndex(context.Background(), "curated_faqs", `{"mappings":{}}`))
	assert.Equal(t, []string{"HEAD /curated_faqs", "PUT /curated_faqs"}, rec.requests)
}

func TestElasticsearch_EnsureIndex_Existing(t *testing.T) {
	client, rec := newFakeES(t, true)

	require.NoError(t, client.EnsureIndex(context.Background(), "curated_faqs", `{}`))
	assert.Equal(t, []string{"HEAD /curated_faqs"}, rec.requests)
	assert.NoError(t, client.Ping())
}
