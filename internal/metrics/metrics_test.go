package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReportReconcile(t *testing.T) {
	before := testutil.ToFloat64(reconcileTotal.WithLabelValues("consolidated"))
	mergesBefore := testutil.ToFloat64(mergeTotal.WithLabelValues("min_cost"))

	ReportReconcile("consolidated", 5, "min_cost")

	if got := testutil.ToFloat64(reconcileTotal.WithLabelValues("consolidated")); got != before+1 {
		t.Errorf("reconcile_total = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(mergeTotal.WithLabelValues("min_cost")); got != mergesBefore+1 {
		t.Errorf("merge_total = %v, want %v", got, mergesBefore+1)
	}
}

func TestReportStoreError(t *testing.T) {
	before := testutil.ToFloat64(storeErrors.WithLabelValues("snapshot"))
	ReportStoreError("snapshot")
	if got := testutil.ToFloat64(storeErrors.WithLabelValues("snapshot")); got != before+1 {
		t.Errorf("store_errors_total = %v, want %v", got, before+1)
	}
}

func TestHandler(t *testing.T) {
	ReportReconcile("appended", 3, "")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rangle_reconcile_total") {
		t.Error("metrics output is missing rangle_reconcile_total")
	}
}
