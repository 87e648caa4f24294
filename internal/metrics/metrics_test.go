package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/dao-risk/internal/model"
)

func TestMetrics_Record(t *testing.T) {
	m := New("daorisk")

	m.ObserveSync(model.StreamVotes, ResultOK, 150*time.Millisecond)
	m.ObserveSync(model.StreamVotes, ResultFetchError, time.Millisecond)
	m.AddSaved(model.StreamVotes, 42)
	m.AddDropped(model.StreamProposals, 2)
	m.SetCursor(model.StreamProposals, "1700000000")
	m.CacheHit("treasury")
	m.CacheMiss("treasury")
	m.CacheMiss("treasury")
	m.ObserveProvider("treasury", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncCycles.WithLabelValues("votes", ResultOK)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.itemsSaved.WithLabelValues("votes")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsDropped.WithLabelValues("proposals")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.cursor.WithLabelValues("proposals")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("treasury", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("treasury", "error")))
}

func TestMetrics_NonNumericCursorIgnored(t *testing.T) {
	m := New("daorisk")
	m.SetCursor(model.StreamVotes, "100")
	m.SetCursor(model.StreamVotes, "not-a-number")
	assert.Equal(t, 100.0, testutil.ToFloat64(m.cursor.WithLabelValues("votes")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSync(model.StreamVotes, ResultOK, time.Second)
	m.AddSaved(model.StreamVotes, 1)
	m.AddDropped(model.StreamVotes, 1)
	m.SetCursor(model.StreamVotes, "1")
	m.CacheHit("x")
	m.CacheMiss("x")
	m.ObserveProvider("x", nil)
}

func TestMetrics_Handler(t *testing.T) {
	m := New("daorisk")
	m.AddSaved(model.StreamProposals, 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `daorisk_sync_items_saved_total{stream="proposals"} 3`))
}
