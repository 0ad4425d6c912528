// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はポーリングパイプラインのPrometheusメトリクスを収集する。
type Collector struct {
	pollCycles    prometheus.Counter
	pollFailures  prometheus.Counter
	pollLatency   prometheus.Histogram
	activeMatches prometheus.Gauge
	matchFailures prometheus.Counter
	eventsEmitted prometheus.Counter
	statusSyncs   prometheus.Counter
	upstreamCode  *prometheus.CounterVec
	newsUpserted  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livescore_poll_cycles_total",
			Help: "完了したポーリングサイクルの合計数",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livescore_poll_failures_total",
			Help: "上流一覧取得に失敗したポーリングサイクルの合計数",
		}),
		pollLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "livescore_poll_latency_seconds",
			Help:    "ポーリングサイクルのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		activeMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livescore_active_matches",
			Help: "直近のサイクルで処理に成功したライブ試合数",
		}),
		matchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livescore_match_failures_total",
			Help: "処理に失敗した試合の合計数",
		}),
		eventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livescore_events_emitted_total",
			Help: "検出されたイベントの合計数",
		}),
		statusSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livescore_status_syncs_total",
			Help: "永続レコードへ同期されたステータス遷移の合計数",
		}),
		upstreamCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livescore_upstream_status_total",
			Help: "上流APIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		newsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livescore_news_upserted_total",
			Help: "アップサートされたニュース記事の合計数",
		}),
	}

	reg.MustRegister(
		c.pollCycles,
		c.pollFailures,
		c.pollLatency,
		c.activeMatches,
		c.matchFailures,
		c.eventsEmitted,
		c.statusSyncs,
		c.upstreamCode,
		c.newsUpserted,
	)

	return c
}

// RecordPollCycle はポーリングサイクルの完了を記録する。
func (c *Collector) RecordPollCycle(duration time.Duration, matchCount int) {
	c.pollCycles.Inc()
	c.pollLatency.Observe(duration.Seconds())
	c.activeMatches.Set(float64(matchCount))
}

// RecordPollFailure は上流一覧取得の失敗を記録する。
func (c *Collector) RecordPollFailure() {
	c.pollFailures.Inc()
}

// RecordMatchFailure は試合単位の処理失敗を記録する。
func (c *Collector) RecordMatchFailure(matchID string) {
	c.matchFailures.Inc()
}

// RecordEventsEmitted は検出されたイベント数を記録する。
func (c *Collector) RecordEventsEmitted(count int) {
	c.eventsEmitted.Add(float64(count))
}

// RecordStatusSync はステータス遷移の同期を記録する。
func (c *Collector) RecordStatusSync(matchID string) {
	c.statusSyncs.Inc()
}

// RecordUpstreamStatus は上流APIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamCode.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordNewsUpserted はアップサートされたニュース記事数を記録する。
func (c *Collector) RecordNewsUpserted(count int) {
	c.newsUpserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
