package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHelpers(t *testing.T) {
	Init(nil, nil)

	before := testutil.ToFloat64(importBatches.WithLabelValues(ResultSuccess))
	ObserveImport("", 120*time.Millisecond)
	if got := testutil.ToFloat64(importBatches.WithLabelValues(ResultSuccess)); got != before+1 {
		t.Fatalf("expected import batch counter to grow by one, got %v -> %v", before, got)
	}

	AddImportRows("devices", "created", 3)
	AddImportRows("devices", "created", 0)
	if got := testutil.ToFloat64(importRows.WithLabelValues("devices", "created")); got < 3 {
		t.Fatalf("expected at least 3 created rows, got %v", got)
	}

	SetLifecycleCounts(map[string]int{"expired": 4})
	if got := testutil.ToFloat64(lifecycleDevices.WithLabelValues("expired")); got != 4 {
		t.Fatalf("expected expired gauge 4, got %v", got)
	}

	IncChainCache(CacheHit)
	if got := testutil.ToFloat64(chainCache.WithLabelValues(CacheHit)); got < 1 {
		t.Fatalf("expected cache hit counted, got %v", got)
	}
	ObserveChainTraversal(5)
	IncExport("xlsx", "")
}
