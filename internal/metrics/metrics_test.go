package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_PollCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPollCycle(100*time.Millisecond, 3)
	c.RecordPollCycle(200*time.Millisecond, 5)

	if got := testutil.ToFloat64(c.pollCycles); got != 2 {
		t.Errorf("poll_cycles_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.activeMatches); got != 5 {
		t.Errorf("active_matches = %v, want 5（最新値で上書き）", got)
	}
}

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPollFailure()
	c.RecordMatchFailure("101")
	c.RecordMatchFailure("102")
	c.RecordEventsEmitted(3)
	c.RecordStatusSync("101")
	c.RecordNewsUpserted(7)

	if got := testutil.ToFloat64(c.pollFailures); got != 1 {
		t.Errorf("poll_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.matchFailures); got != 2 {
		t.Errorf("match_failures_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.eventsEmitted); got != 3 {
		t.Errorf("events_emitted_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.statusSyncs); got != 1 {
		t.Errorf("status_syncs_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.newsUpserted); got != 7 {
		t.Errorf("news_upserted_total = %v, want 7", got)
	}
}

func TestCollector_UpstreamStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(429)

	if got := testutil.ToFloat64(c.upstreamCode.WithLabelValues("200")); got != 2 {
		t.Errorf("upstream_status_total{200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.upstreamCode.WithLabelValues("429")); got != 1 {
		t.Errorf("upstream_status_total{429} = %v, want 1", got)
	}
}

func TestHandler_Scrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPollCycle(50*time.Millisecond, 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "livescore_poll_cycles_total") {
		t.Errorf("スクレイプ出力にポーリングメトリクスが含まれない:\n%s", body)
	}
}
