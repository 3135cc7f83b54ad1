// Package fetch はフィードの取得・正規化パイプラインを提供する。
// フェッチャー、正規化、並列プールを含む。
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/ticker/internal/model"
	"github.com/hitoshi/ticker/internal/tagging"
)

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// TextSanitizer はHTMLのプレーンテキスト化のインターフェース。
type TextSanitizer interface {
	PlainText(rawHTML string) string
}

// ImageScraper は記事ページからのベストエフォート画像取得のインターフェース。
type ImageScraper interface {
	ScrapeImage(ctx context.Context, articleURL string) string
}

// Recorder はフェッチメトリクスの記録インターフェース。
type Recorder interface {
	RecordFetchSuccess(source string)
	RecordFetchFailure(source string, reason string)
	RecordParseFailure(source string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordArticles(count int)
}

// Options はFetcherの動作設定。
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	MaxBodySize   int64
	PerFeedCap    int  // 1フィードあたりの最大エントリ数
	SummaryMaxLen int  // サマリーの最大文字数（rune単位）
	ScrapeImages  bool // 記事ページからの画像スクレイプを行うか
}

// Fetcher は個別フィードのHTTPフェッチと正規化を行う。
// あらゆる失敗はその取得元の「記事ゼロ」へ局所的に縮退し、
// 呼び出し元へエラーを伝播しない。リトライは行わない
// （失敗したフィードは次回のスケジュール実行で再試行される）。
type Fetcher struct {
	ssrfGuard  SSRFValidator
	sanitizer  TextSanitizer
	scraper    ImageScraper
	classifier *tagging.Classifier
	recorder   Recorder
	logger     *slog.Logger
	opts       Options

	// now はテストで差し替え可能な現在時刻取得関数。
	now func() time.Time
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// scraperとrecorderはnilを許容する（それぞれスクレイプなし・記録なし）。
func NewFetcher(
	ssrfGuard SSRFValidator,
	sanitizer TextSanitizer,
	scraper ImageScraper,
	classifier *tagging.Classifier,
	recorder Recorder,
	logger *slog.Logger,
	opts Options,
) *Fetcher {
	if opts.PerFeedCap <= 0 {
		opts.PerFeedCap = 40
	}
	if opts.SummaryMaxLen <= 0 {
		opts.SummaryMaxLen = 280
	}
	return &Fetcher{
		ssrfGuard:  ssrfGuard,
		sanitizer:  sanitizer,
		scraper:    scraper,
		classifier: classifier,
		recorder:   recorder,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Fetch は1つの取得元からフィードを取得し、正規化済み記事の列を返す。
// ネットワークエラー、非2xxステータス、パース失敗のいずれも
// 空の結果としてログに記録され、実行全体を中断しない。
func (f *Fetcher) Fetch(ctx context.Context, source model.Source) []model.Article {
	start := time.Now()

	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(source.URL); err != nil {
			f.logger.Error("SSRF検証に失敗しました",
				slog.String("source", source.Name),
				slog.String("url", source.URL),
				slog.String("error", err.Error()),
			)
			f.recordFailure(source.Name, "ssrf_blocked")
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		f.logger.Error("リクエスト作成に失敗しました",
			slog.String("source", source.Name),
			slog.String("error", err.Error()),
		)
		f.recordFailure(source.Name, "request_build")
		return nil
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.getHTTPClient().Do(req)
	if err != nil {
		f.logger.Error("HTTPリクエストに失敗しました",
			slog.String("source", source.Name),
			slog.String("url", source.URL),
			slog.String("error", err.Error()),
		)
		f.recordFailure(source.Name, "network")
		return nil
	}
	defer resp.Body.Close()

	if f.recorder != nil {
		f.recorder.RecordHTTPStatus(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error("フィードがエラーステータスを返しました",
			slog.String("source", source.Name),
			slog.String("url", source.URL),
			slog.Int("http_status", resp.StatusCode),
		)
		f.recordFailure(source.Name, "http_status")
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodySize))
	if err != nil {
		f.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("source", source.Name),
			slog.String("error", err.Error()),
		)
		f.recordFailure(source.Name, "body_read")
		return nil
	}

	// gofeedは寛容なパースを行い、不正なドキュメントからも
	// 救済可能なエントリを取り出す。完全に読めない場合のみエラーになる。
	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		f.logger.Error("フィードのパースに失敗しました",
			slog.String("source", source.Name),
			slog.String("url", source.URL),
			slog.String("error", err.Error()),
		)
		if f.recorder != nil {
			f.recorder.RecordParseFailure(source.Name)
		}
		return nil
	}

	articles := f.normalizeItems(ctx, source, parsedFeed.Items)

	duration := time.Since(start)
	if f.recorder != nil {
		f.recorder.RecordFetchSuccess(source.Name)
		f.recorder.RecordFetchLatency(duration)
		f.recorder.RecordArticles(len(articles))
	}

	f.logger.Info("フィードフェッチが完了しました",
		slog.String("source", source.Name),
		slog.String("url", source.URL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("entries", len(parsedFeed.Items)),
		slog.Int("articles", len(articles)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return articles
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *Fetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.opts.Timeout)
	}
	return &http.Client{Timeout: f.opts.Timeout}
}

// recordFailure はフェッチ失敗をメトリクスに記録する。
func (f *Fetcher) recordFailure(source, reason string) {
	if f.recorder != nil {
		f.recorder.RecordFetchFailure(source, reason)
	}
}
