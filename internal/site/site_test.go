package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/ticker/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		SiteURL:         "https://news.example.com",
		SiteTitle:       "Example News",
		SiteDescription: "Aggregated news about AI",
		OutputDir:       t.TempDir(),
		ItemsPerPage:    2,
	}
}

func makeArticles(n int) []model.Article {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	articles := make([]model.Article, n)
	for i := range articles {
		articles[i] = model.Article{
			ID:          fmt.Sprintf("id%04d", i),
			Title:       fmt.Sprintf("Article %d", i),
			URL:         fmt.Sprintf("https://example.com/articles/%d", i),
			Summary:     fmt.Sprintf("Summary of article %d", i),
			Source:      "Example Source",
			Domain:      "example.com",
			Slug:        fmt.Sprintf("article-%d", i),
			PublishedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return articles
}

func readOutput(t *testing.T, dir string, parts ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(append([]string{dir}, parts...)...))
	if err != nil {
		t.Fatalf("出力ファイルの読み込みに失敗: %v", err)
	}
	return string(data)
}

func TestRender_IndexAndPagination(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	if err := r.Render(makeArticles(5), nil, nil, now); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	index := readOutput(t, opts.OutputDir, "index.html")
	if !strings.Contains(index, "Article 0") {
		t.Error("1ページ目に最初の記事が含まれるべき")
	}
	if strings.Contains(index, "Article 2") {
		t.Error("1ページ目に3件目以降の記事は含まれないべき")
	}
	if !strings.Contains(index, `href="/page/2/"`) {
		t.Error("1ページ目には次ページへのリンクがあるべき")
	}

	// 5件・1ページ2件 → 3ページ
	page2 := readOutput(t, opts.OutputDir, "page", "2", "index.html")
	if !strings.Contains(page2, "Article 2") {
		t.Error("2ページ目に3件目の記事が含まれるべき")
	}
	if !strings.Contains(page2, `href="/"`) {
		t.Error("2ページ目のPrevはルートを指すべき")
	}

	page3 := readOutput(t, opts.OutputDir, "page", "3", "index.html")
	if !strings.Contains(page3, `href="/page/2/"`) {
		t.Error("3ページ目のPrevは2ページ目を指すべき")
	}
	if strings.Contains(page3, `class="next"`) {
		t.Error("最終ページにNextリンクは出ないべき")
	}
}

func TestRender_EmptyArticles(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	if err := r.Render(nil, nil, nil, time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	index := readOutput(t, opts.OutputDir, "index.html")
	if !strings.Contains(index, "No articles available") {
		t.Error("記事0件でも空状態のindex.htmlが生成されるべき")
	}
}

func TestRender_EditorialOnFirstPageOnly(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	ed := &model.Editorial{
		Title: "Weekly Feature",
		Body:  "<p>Editor's pick of the week.</p>",
	}
	if err := r.Render(makeArticles(4), ed, nil, time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	index := readOutput(t, opts.OutputDir, "index.html")
	if !strings.Contains(index, "Weekly Feature") {
		t.Error("特集記事は1ページ目に出るべき")
	}
	if !strings.Contains(index, "<p>Editor's pick of the week.</p>") {
		t.Error("特集記事本文のHTMLはエスケープされないべき")
	}

	page2 := readOutput(t, opts.OutputDir, "page", "2", "index.html")
	if strings.Contains(page2, "Weekly Feature") {
		t.Error("特集記事は2ページ目以降に出ないべき")
	}
}

func TestRender_StaticPages(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	sources := []model.Source{
		{Name: "The Verge - AI", URL: "https://www.theverge.com/rss/ai/index.xml", Category: "industry"},
	}
	if err := r.Render(makeArticles(1), nil, sources, time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, name := range []string{"about.html", "privacy.html"} {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
			t.Errorf("%s が生成されるべき: %v", name, err)
		}
	}

	src := readOutput(t, opts.OutputDir, "sources.html")
	if !strings.Contains(src, "The Verge - AI") {
		t.Error("sources.htmlにソース名が含まれるべき")
	}
}

func TestRender_Sitemap(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	if err := r.Render(makeArticles(5), nil, nil, now); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	sitemap := readOutput(t, opts.OutputDir, "sitemap.xml")
	for _, want := range []string{
		"<loc>https://news.example.com/</loc>",
		"<loc>https://news.example.com/page/2/</loc>",
		"<loc>https://news.example.com/page/3/</loc>",
		"<loc>https://news.example.com/about.html</loc>",
		"<lastmod>2026-08-30</lastmod>",
	} {
		if !strings.Contains(sitemap, want) {
			t.Errorf("sitemap.xmlに %s が含まれるべき", want)
		}
	}
	if strings.Contains(sitemap, "/page/1/") {
		t.Error("1ページ目はルートURLとしてのみ載るべき")
	}
}

func TestRender_Feed(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	if err := r.Render(makeArticles(60), nil, nil, now); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	feed := readOutput(t, opts.OutputDir, "feed.xml")
	if got := strings.Count(feed, "<item>"); got != feedMaxItems {
		t.Errorf("フィードの件数 = %d, want %d", got, feedMaxItems)
	}
	if !strings.Contains(feed, "<![CDATA[Article 0]]>") {
		t.Error("タイトルはCDATAで出力されるべき")
	}
	if !strings.Contains(feed, `isPermaLink="false">id0000<`) {
		t.Error("guidは記事IDであるべき")
	}
	if !strings.Contains(feed, "Sat, 01 Aug 2026 12:00:00 GMT") {
		t.Error("pubDateはRFC1123 GMT形式であるべき")
	}
}

func TestRender_MetaFiles(t *testing.T) {
	opts := testOptions(t)
	opts.AdsensePub = "pub-1234567890"
	opts.CNAMEDomain = "news.example.com"
	r := NewRenderer(opts, testLogger())

	if err := r.Render(makeArticles(1), nil, nil, time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	robots := readOutput(t, opts.OutputDir, "robots.txt")
	if !strings.Contains(robots, "Sitemap: https://news.example.com/sitemap.xml") {
		t.Error("robots.txtにsitemapの場所が含まれるべき")
	}

	ads := readOutput(t, opts.OutputDir, "ads.txt")
	if !strings.Contains(ads, "google.com, pub-1234567890, DIRECT") {
		t.Error("ads.txtにパブリッシャーIDが含まれるべき")
	}

	cname := readOutput(t, opts.OutputDir, "CNAME")
	if strings.TrimSpace(cname) != "news.example.com" {
		t.Errorf("CNAME = %q", cname)
	}

	if _, err := os.Stat(filepath.Join(opts.OutputDir, "assets", "style.css")); err != nil {
		t.Errorf("style.cssがコピーされるべき: %v", err)
	}
}

func TestRender_MetaFilesOmittedWhenUnset(t *testing.T) {
	opts := testOptions(t)
	r := NewRenderer(opts, testLogger())

	if err := r.Render(makeArticles(1), nil, nil, time.Now()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(opts.OutputDir, "ads.txt")); !os.IsNotExist(err) {
		t.Error("パブリッシャーID未設定時にads.txtは生成されないべき")
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "CNAME")); !os.IsNotExist(err) {
		t.Error("ドメイン未設定時にCNAMEは生成されないべき")
	}
}

func TestBuildPagination(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		prev    string
		next    string
	}{
		{"単一ページ", 1, 1, "", ""},
		{"先頭ページ", 1, 3, "", "/page/2/"},
		{"2ページ目のPrevはルート", 2, 3, "/", "/page/3/"},
		{"中間ページ", 3, 5, "/page/2/", "/page/4/"},
		{"最終ページ", 3, 3, "/page/2/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPagination(tt.current, tt.total, "https://news.example.com")
			if p.Prev != tt.prev {
				t.Errorf("Prev = %q, want %q", p.Prev, tt.prev)
			}
			if p.Next != tt.next {
				t.Errorf("Next = %q, want %q", p.Next, tt.next)
			}
		})
	}
}
