package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/ashai", "200"))
	ObserveHTTP("/ashai", 200)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("/ashai", "200")))
}

func TestObserveEvaluation(t *testing.T) {
	ObserveEvaluation(map[string]float64{"empathy": 75}, 80)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(EvaluationScore), 2)
}
