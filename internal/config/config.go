// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DedupStrategy は重複排除キーの選択方式を表す。
type DedupStrategy string

const (
	// DedupByURL は記事URLを一意性キーとする方式（推奨デフォルト）。
	DedupByURL DedupStrategy = "url"
	// DedupByTitleDomain は (小文字タイトル, ドメイン) の組を一意性キーとする方式。
	DedupByTitleDomain DedupStrategy = "title-domain"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// モジュールスコープのグローバル設定は持たず、必要なコンポーネントへ明示的に渡す。
type Config struct {
	// Site
	SiteURL         string
	SiteTitle       string
	SiteDescription string
	SiteImage       string
	AdsensePub      string // 空の場合ads.txtを出力しない
	CNAMEDomain     string // 空の場合CNAMEを出力しない

	// Input / Output
	FeedsFile     string
	EditorialFile string // 空の場合は特集記事なし
	HistoryFile   string
	OutputDir     string

	// Fetch
	UserAgent          string
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FetchMaxConcurrent int
	PerFeedCap         int

	// 画像スクレイプ（ベストエフォート）
	ScrapeImages    bool
	ScrapeTimeout   time.Duration
	ScrapePerSecond float64

	// Normalize
	SummaryMaxLen int

	// Dedup / Ranking
	Dedup           DedupStrategy
	Retention       time.Duration
	HistoryMaxItems int
	RenderMaxItems  int
	PerSourceMax    int // 0は無制限

	// Render
	ItemsPerPage int

	// Metrics
	PushgatewayURL string // 空の場合メトリクスをプッシュしない
	MetricsJob     string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.SiteURL = strings.TrimRight(os.Getenv("SITE_URL"), "/")
	if cfg.SiteURL == "" {
		missing = append(missing, "SITE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.SiteTitle = getEnvString("SITE_TITLE", "Ticker – AI News")
	cfg.SiteDescription = getEnvString("SITE_DESC", "Automated digest of AI, machine learning and research news")
	cfg.SiteImage = getEnvString("SITE_IMAGE", cfg.SiteURL+"/assets/og.png")
	cfg.AdsensePub = getEnvString("ADSENSE_PUB", "")
	cfg.CNAMEDomain = getEnvString("CNAME_DOMAIN", "")

	cfg.FeedsFile = getEnvString("FEEDS_FILE", "feeds.yaml")
	cfg.EditorialFile = getEnvString("EDITORIAL_FILE", "")
	cfg.HistoryFile = getEnvString("HISTORY_FILE", "history.json")
	cfg.OutputDir = getEnvString("OUTPUT_DIR", "public")

	cfg.UserAgent = getEnvString("USER_AGENT", "TickerBot/1.0 (+"+cfg.SiteURL+")")
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 20*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 8)
	cfg.PerFeedCap = getEnvInt("PER_FEED_CAP", 40)

	cfg.ScrapeImages = getEnvBool("SCRAPE_IMAGES", false)
	cfg.ScrapeTimeout = getEnvDuration("SCRAPE_TIMEOUT", 5*time.Second)
	cfg.ScrapePerSecond = getEnvFloat("SCRAPE_PER_SECOND", 2.0)
	// スクレイプのタイムアウトはフェッチより厳密に短くする。
	// ワーカースロットを長時間占有しないための制約。
	if cfg.ScrapeTimeout >= cfg.FetchTimeout {
		cfg.ScrapeTimeout = cfg.FetchTimeout / 2
	}

	cfg.SummaryMaxLen = getEnvInt("SUMMARY_MAX_LEN", 280)

	switch DedupStrategy(getEnvString("DEDUP_STRATEGY", string(DedupByURL))) {
	case DedupByTitleDomain:
		cfg.Dedup = DedupByTitleDomain
	default:
		cfg.Dedup = DedupByURL
	}
	cfg.Retention = getEnvDuration("RETENTION", 7*24*time.Hour)
	cfg.HistoryMaxItems = getEnvInt("HISTORY_MAX_ITEMS", 300)
	cfg.RenderMaxItems = getEnvInt("RENDER_MAX_ITEMS", 60)
	cfg.PerSourceMax = getEnvInt("PER_SOURCE_MAX", 0)

	cfg.ItemsPerPage = getEnvInt("ITEMS_PER_PAGE", 30)

	cfg.PushgatewayURL = getEnvString("PUSHGATEWAY_URL", "")
	cfg.MetricsJob = getEnvString("METRICS_JOB", "ticker")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
