package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheObserver(t *testing.T) {
	var obs CacheObserver
	before := testutil.ToFloat64(ResultCacheEvents.WithLabelValues("expired"))

	obs.Expired(3)
	obs.Expired(0)

	if got := testutil.ToFloat64(ResultCacheEvents.WithLabelValues("expired")); got != before+3 {
		t.Errorf("expired = %v, want %v", got, before+3)
	}

	hits := testutil.ToFloat64(ResultCacheEvents.WithLabelValues("hit"))
	obs.Hit()
	if got := testutil.ToFloat64(ResultCacheEvents.WithLabelValues("hit")); got != hits+1 {
		t.Errorf("hit = %v, want %v", got, hits+1)
	}
}

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()
}

func TestCitationRecorder(t *testing.T) {
	var rec CitationRecorder
	before := testutil.ToFloat64(CitationsTotal.WithLabelValues("false"))

	rec.Citation("9999", false)

	if got := testutil.ToFloat64(CitationsTotal.WithLabelValues("false")); got != before+1 {
		t.Errorf("unverified = %v, want %v", got, before+1)
	}
}
