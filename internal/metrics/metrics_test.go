package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMask(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("Java", "ok"))
	RecordMask("Java", "ok")
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("Java", "ok"))

	if after-before != 1 {
		t.Errorf("RequestsTotal delta = %v, want 1", after-before)
	}
}

func TestRecordPlaceholders(t *testing.T) {
	before := testutil.ToFloat64(PlaceholdersIssuedTotal.WithLabelValues("method"))
	RecordPlaceholders("method", 3)
	RecordPlaceholders("method", 0)
	after := testutil.ToFloat64(PlaceholdersIssuedTotal.WithLabelValues("method"))

	if after-before != 3 {
		t.Errorf("PlaceholdersIssuedTotal delta = %v, want 3", after-before)
	}
}
