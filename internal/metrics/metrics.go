// Package metrics はPrometheusメトリクスの収集とPushgatewayへの送信を提供する。
// バッチ実行のためスクレイプ用エンドポイントは持たず、実行終了時に
// まとめてプッシュする。プッシュ失敗はログのみで実行を失敗させない。
package metrics

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Collector はPrometheusメトリクスを収集する。
// internal/worker/fetch.Recorderを実装する。
type Collector struct {
	registry *prometheus.Registry

	fetchSuccess  prometheus.Counter
	fetchFail     *prometheus.CounterVec
	parseFail     prometheus.Counter
	httpStatus    *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	articlesTotal prometheus.Counter
	renderedItems prometheus.Gauge
	historyItems  prometheus.Gauge
	runDuration   prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、専用レジストリにメトリクスを登録する。
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticker_fetch_success_total",
			Help: "フィードフェッチ成功の合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticker_fetch_fail_total",
			Help: "フィードフェッチ失敗の理由別合計数",
		}, []string{"reason"}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticker_parse_fail_total",
			Help: "フィードパース失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticker_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticker_fetch_latency_seconds",
			Help:    "フィードフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		articlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticker_articles_fetched_total",
			Help: "正規化された記事の合計数",
		}),
		renderedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ticker_rendered_items",
			Help: "描画対象となった記事数",
		}),
		historyItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ticker_history_items",
			Help: "刈り込み後に永続化された履歴の記事数",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ticker_run_duration_seconds",
			Help: "ビルド実行全体の所要時間（秒）",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.parseFail,
		c.httpStatus,
		c.fetchLatency,
		c.articlesTotal,
		c.renderedItems,
		c.historyItems,
		c.runDuration,
	)

	return c
}

// RecordFetchSuccess はフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess(source string) {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure はフェッチ失敗を理由別に記録する。
func (c *Collector) RecordFetchFailure(source string, reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordParseFailure はパース失敗を記録する。
func (c *Collector) RecordParseFailure(source string) {
	c.parseFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordArticles は正規化された記事数を記録する。
func (c *Collector) RecordArticles(count int) {
	c.articlesTotal.Add(float64(count))
}

// RecordRunSummary は実行全体のサマリーを記録する。
func (c *Collector) RecordRunSummary(rendered, historySize int, duration time.Duration) {
	c.renderedItems.Set(float64(rendered))
	c.historyItems.Set(float64(historySize))
	c.runDuration.Set(duration.Seconds())
}

// Gatherer はレジストリをprometheus.Gathererとして返す。
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Push は収集済みメトリクスをPushgatewayへ送信する。
// gatewayURLが空の場合は何もしない。送信失敗は警告ログのみで
// エラーを返さない（メトリクスはベストエフォート）。
func (c *Collector) Push(gatewayURL, job, runID string, logger *slog.Logger) {
	if gatewayURL == "" {
		return
	}

	pusher := push.New(gatewayURL, job).
		Gatherer(c.registry).
		Grouping("run_id", runID)

	if err := pusher.Push(); err != nil {
		logger.Warn("メトリクスのプッシュに失敗しました",
			slog.String("gateway", gatewayURL),
			slog.String("error", err.Error()),
		)
		return
	}

	logger.Info("メトリクスをプッシュしました",
		slog.String("gateway", gatewayURL),
		slog.String("job", job),
	)
}
