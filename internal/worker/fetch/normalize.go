package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/hitoshi/ticker/internal/model"
	"github.com/hitoshi/ticker/internal/tagging"
)

// untitledPlaceholder はタイトルが空のエントリに設定されるプレースホルダ。
const untitledPlaceholder = "(untitled)"

// ellipsis はサマリー切り詰め時に付与される省略記号。
const ellipsis = "…"

// maxSlugLen はスラッグの最大文字数。
const maxSlugLen = 80

// normalizeItems はgofeedのエントリ列を正規化済み記事の列へ変換する。
// 取得元ごとのハードキャップを適用し、1つの暴走フィードが
// ペイロード全体を支配しないようにする。
func (f *Fetcher) normalizeItems(ctx context.Context, source model.Source, items []*gofeed.Item) []model.Article {
	if len(items) > f.opts.PerFeedCap {
		items = items[:f.opts.PerFeedCap]
	}

	articles := make([]model.Article, 0, len(items))
	dropped := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		article, ok := f.normalizeItem(ctx, source, item)
		if !ok {
			dropped++
			continue
		}
		articles = append(articles, article)
	}

	if dropped > 0 {
		f.logger.Warn("リンクのないエントリを除外しました",
			slog.String("source", source.Name),
			slog.Int("dropped", dropped),
		)
	}

	return articles
}

// normalizeItem は1つのフィードエントリを記事へ正規化する。
// リンクのないエントリは復旧不能としてfalseを返し、除外される。
// その他の欠落フィールドは文書化されたデフォルトで補完する:
// タイトル→プレースホルダ、日時→現在時刻、サマリー→空文字列。
func (f *Fetcher) normalizeItem(ctx context.Context, source model.Source, item *gofeed.Item) (model.Article, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return model.Article{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = untitledPlaceholder
	}

	published, estimated := f.extractTimestamp(item)

	rawSummary := item.Description
	if rawSummary == "" {
		rawSummary = item.Content
	}
	summary := truncate(f.sanitizer.PlainText(rawSummary), f.opts.SummaryMaxLen)

	article := model.Article{
		ID:              model.MakeID(source.Name, title, link),
		Title:           title,
		URL:             link,
		Summary:         summary,
		Source:          source.Name,
		PublishedAt:     published,
		IsDateEstimated: estimated,
		Domain:          model.DomainOf(link),
		Image:           f.extractImage(ctx, item, link),
		Slug:            makeSlug(title, link),
		ReadingTime:     tagging.ReadingTime(summary),
	}

	// カテゴリは取得元の静的指定が優先され、なければキーワード判定。
	article.Category = source.Category
	if f.classifier != nil {
		if article.Category == "" {
			article.Category = f.classifier.Category(title, summary)
		}
		article.Tags = f.classifier.Tags(title, summary)
	}

	return article, true
}

// extractTimestamp はエントリから最良の公開日時を取り出す。
// 優先順: published → updated → 現在時刻（UTC）。
// 現在時刻フォールバックは「日時欠落でエラーにしない」という意図的な方針で、
// 日時なしエントリのソート順は取得順になる（真の時系列ではない）。
func (f *Fetcher) extractTimestamp(item *gofeed.Item) (published time.Time, estimated bool) {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC(), false
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC(), false
	}
	return f.now().UTC(), true
}

// extractImage は代表画像URLを優先チェーンで解決する。最初のヒットで打ち切る:
//  1. エントリの構造化メディアメタデータ（item image / enclosure / media:content）
//  2. Description/Content HTML中の最初の<img>タグ
//  3. （有効時のみ）記事ページ自体のog:image/twitter:imageスクレイプ
//
// スクレイプはベストエフォートで、失敗しても正規化を阻害しない。
func (f *Fetcher) extractImage(ctx context.Context, item *gofeed.Item, link string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.Contains(enc.Type, "image") && enc.URL != "" {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if url := content.Attrs["url"]; url != "" {
				return url
			}
		}
		for _, thumb := range media["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	if src := firstImgSrc(item.Description); src != "" {
		return src
	}
	if src := firstImgSrc(item.Content); src != "" {
		return src
	}

	if f.opts.ScrapeImages && f.scraper != nil {
		return f.scraper.ScrapeImage(ctx, link)
	}

	return ""
}

// firstImgSrc はHTML断片から最初の<img>タグのsrc属性を取り出す。
// パース不能な断片は空文字列を返す。
func firstImgSrc(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<img") {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return ""
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "img" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == "src" {
				src := strings.TrimSpace(attr.Val)
				if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
					return src
				}
			}
		}
	}
}

// truncate は文字列をmaxLen文字（rune単位）に切り詰め、
// 切り詰めた場合は省略記号を付与する。
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimRight(string(runes[:maxLen]), " ") + ellipsis
}

// makeSlug はタイトルからURLスラッグを生成する。
// 英数字以外はハイフンに置き換え、連続ハイフンを畳む。
// タイトルから有効なスラッグが得られない場合はリンクのハッシュを使用する。
func makeSlug(title, link string) string {
	var b strings.Builder
	prevHyphen := true // 先頭のハイフンを抑制
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return model.MakeID(link)
	}
	return slug
}
