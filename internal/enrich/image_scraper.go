// Package enrich は記事のベストエフォート付加情報取得を提供する。
// 現在は記事ページのOpen Graph / Twitterカードのメタタグからの
// 代表画像取得のみ。取得失敗は常に「画像なし」へ静かに縮退し、
// 正規化処理全体を阻害・失敗させることはない。
package enrich

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// maxPageSize はスクレイプ対象ページの最大読み込みサイズ（1MB）。
// メタタグはドキュメント先頭にあるため全文は不要。
const maxPageSize = 1 * 1024 * 1024

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// ImageScraperService は記事ページからの代表画像取得のインターフェース。
type ImageScraperService interface {
	// ScrapeImage は記事ページのog:image/twitter:imageメタタグから
	// 画像URLを取得する。いかなる失敗でも空文字列を返す（エラーは返さない）。
	ScrapeImage(ctx context.Context, articleURL string) string
}

// ImageScraper はImageScraperServiceの実装。
// スクレイプはフェッチワーカーのスロット内で同期的に実行されるため、
// タイムアウトはフィードフェッチより厳密に短く設定し、さらに
// レートリミッタで全ワーカー横断のリクエスト頻度を抑制する。
type ImageScraper struct {
	ssrfGuard SSRFValidator
	limiter   *rate.Limiter
	logger    *slog.Logger
	userAgent string
	timeout   time.Duration
}

// NewImageScraper はImageScraperの新しいインスタンスを生成する。
// perSecondが0以下の場合はレート制限を行わない。
func NewImageScraper(
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	userAgent string,
	timeout time.Duration,
	perSecond float64,
) *ImageScraper {
	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &ImageScraper{
		ssrfGuard: ssrfGuard,
		limiter:   limiter,
		logger:    logger,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// ScrapeImage は記事ページのメタタグから画像URLを取得する。
// 優先順: og:image → twitter:image。相対URLは記事URLを基準に解決する。
// ネットワークエラー、非2xx、パース失敗、メタタグなしのいずれも
// 空文字列として扱い、警告ログのみ残して処理を継続する。
func (s *ImageScraper) ScrapeImage(ctx context.Context, articleURL string) string {
	if articleURL == "" {
		return ""
	}

	if s.ssrfGuard != nil {
		if err := s.ssrfGuard.ValidateURL(articleURL); err != nil {
			s.logger.Warn("画像スクレイプ: SSRFブロック",
				slog.String("url", articleURL),
				slog.String("error", err.Error()),
			)
			return ""
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return ""
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, articleURL, nil)
	if err != nil {
		s.logger.Warn("画像スクレイプ: リクエスト作成失敗",
			slog.String("url", articleURL),
			slog.String("error", err.Error()),
		)
		return ""
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html, application/xhtml+xml, */*")

	resp, err := s.getHTTPClient().Do(req)
	if err != nil {
		s.logger.Warn("画像スクレイプ: HTTPリクエスト失敗",
			slog.String("url", articleURL),
			slog.String("error", err.Error()),
		)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("画像スクレイプ: HTTPステータス異常",
			slog.String("url", articleURL),
			slog.Int("status", resp.StatusCode),
		)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		s.logger.Warn("画像スクレイプ: HTMLパース失敗",
			slog.String("url", articleURL),
			slog.String("error", err.Error()),
		)
		return ""
	}

	return resolveImageURL(articleURL, extractMetaImage(doc))
}

// getHTTPClient はHTTPクライアントを取得する。
func (s *ImageScraper) getHTTPClient() *http.Client {
	if s.ssrfGuard != nil {
		return s.ssrfGuard.NewSafeClient(s.timeout)
	}
	return &http.Client{Timeout: s.timeout}
}

// metaImageSelectors は代表画像を探すメタタグのセレクタ。優先順。
var metaImageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// extractMetaImage はドキュメントから最初にマッチした画像メタタグの値を返す。
func extractMetaImage(doc *goquery.Document) string {
	for _, sel := range metaImageSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if v := strings.TrimSpace(content); v != "" {
				return v
			}
		}
	}
	return ""
}

// resolveImageURL は画像URLを記事URLを基準に絶対URLへ解決する。
// http(s)以外のスキームに解決される場合は空文字列を返す。
func resolveImageURL(pageURL, imageURL string) string {
	if imageURL == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// compile-time interface check
var _ ImageScraperService = (*ImageScraper)(nil)
