package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDictLookupTotalCountsByResult(t *testing.T) {
	DictLookupTotal.Reset()
	DictLookupTotal.WithLabelValues("dict", "hit").Inc()
	DictLookupTotal.WithLabelValues("dict", "hit").Inc()
	DictLookupTotal.WithLabelValues("dict", "miss").Inc()

	if got := testutil.ToFloat64(DictLookupTotal.WithLabelValues("dict", "hit")); got != 2 {
		t.Errorf("hit count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(DictLookupTotal.WithLabelValues("dict", "miss")); got != 1 {
		t.Errorf("miss count = %v, want 1", got)
	}
}

func TestUserDictEntriesGaugeTracksIncrements(t *testing.T) {
	UserDictEntries.Reset()
	UserDictEntries.WithLabelValues("user").Inc()
	UserDictEntries.WithLabelValues("user").Inc()
	UserDictEntries.WithLabelValues("user").Dec()

	if got := testutil.ToFloat64(UserDictEntries.WithLabelValues("user")); got != 1 {
		t.Errorf("gauge value = %v, want 1", got)
	}
}

func TestQueryLatencySecondsObservesWithoutPanicking(t *testing.T) {
	QueryLatencySeconds.WithLabelValues("script").Observe(0.002)
}
