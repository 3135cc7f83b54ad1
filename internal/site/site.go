// Package site は集約済み記事から静的サイト一式を生成する。
// index.html・ページネーション・静的ページ・sitemap.xml・feed.xml などを
// 出力ディレクトリへ書き出す。出力はすべて上書きで、サーバは不要。
package site

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hitoshi/ticker/internal/model"
)

//go:embed templates
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

var tmplFuncs = template.FuncMap{
	"safeHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
	"fmtDate": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"fmtISO": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}

var (
	indexTmpl   = template.Must(template.New("base.html").Funcs(tmplFuncs).ParseFS(templateFS, "templates/base.html", "templates/index.html"))
	aboutTmpl   = template.Must(template.New("base.html").Funcs(tmplFuncs).ParseFS(templateFS, "templates/base.html", "templates/about.html"))
	sourcesTmpl = template.Must(template.New("base.html").Funcs(tmplFuncs).ParseFS(templateFS, "templates/base.html", "templates/sources.html"))
	privacyTmpl = template.Must(template.New("base.html").Funcs(tmplFuncs).ParseFS(templateFS, "templates/base.html", "templates/privacy.html"))
)

// SiteRendererService は静的サイト生成のインターフェース。
type SiteRendererService interface {
	Render(articles []model.Article, editorial *model.Editorial, sources []model.Source, now time.Time) error
}

// Options はサイト生成の設定。
type Options struct {
	SiteURL         string
	SiteTitle       string
	SiteDescription string
	SiteImage       string
	AdsensePub      string
	CNAMEDomain     string
	OutputDir       string
	ItemsPerPage    int
}

// Renderer は SiteRendererService の実装。
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

var _ SiteRendererService = (*Renderer)(nil)

// NewRenderer は新しいRendererを生成する。
func NewRenderer(opts Options, logger *slog.Logger) *Renderer {
	if opts.ItemsPerPage <= 0 {
		opts.ItemsPerPage = 30
	}
	return &Renderer{
		opts:   opts,
		logger: logger,
	}
}

type siteMeta struct {
	Title       string
	Description string
	URL         string
	Image       string
	AdsensePub  string
}

// pagination はテンプレート向けの前後リンク情報。
// Prev が新しい記事側、Next が古い記事側を指す。
type pagination struct {
	Current int
	Total   int
	PageURL string
	Prev    string
	Next    string
}

type indexData struct {
	Site        siteMeta
	Items       []model.Article
	Editorial   *model.Editorial
	Pagination  pagination
	Canonical   string
	LastUpdated string
}

type staticData struct {
	Site        siteMeta
	Sources     []model.Source
	Canonical   string
	LastUpdated string
}

// Render はサイト全体を出力ディレクトリへ書き出す。
// index.html(1ページ目)・/page/N/index.html・静的ページ・sitemap.xml・
// feed.xml・robots.txt を生成し、設定がある場合のみ ads.txt と CNAME を出す。
// いずれかの書き込みに失敗した場合はエラーを返す。
func (r *Renderer) Render(articles []model.Article, editorial *model.Editorial, sources []model.Source, now time.Time) error {
	start := time.Now()

	site := siteMeta{
		Title:       r.opts.SiteTitle,
		Description: r.opts.SiteDescription,
		URL:         r.opts.SiteURL,
		Image:       r.opts.SiteImage,
		AdsensePub:  r.opts.AdsensePub,
	}
	lastUpdated := now.UTC().Format("2006-01-02 15:04 UTC")

	pages := paginate(articles, r.opts.ItemsPerPage)

	for _, p := range pages {
		pg := buildPagination(p.number, len(pages), r.opts.SiteURL)
		data := indexData{
			Site:        site,
			Items:       p.items,
			Pagination:  pg,
			Canonical:   pg.PageURL,
			LastUpdated: lastUpdated,
		}
		// 特集記事は1ページ目のみ
		if p.number == 1 {
			data.Editorial = editorial
		}

		outPath := filepath.Join(r.opts.OutputDir, "index.html")
		if p.number > 1 {
			outPath = filepath.Join(r.opts.OutputDir, "page", fmt.Sprintf("%d", p.number), "index.html")
		}
		if err := r.renderToFile(indexTmpl, outPath, data); err != nil {
			return fmt.Errorf("ページ%dの生成に失敗: %w", p.number, err)
		}
	}

	// 記事が0件でも index.html は空リストで生成する
	if len(pages) == 0 {
		data := indexData{
			Site:        site,
			Editorial:   editorial,
			Pagination:  buildPagination(1, 1, r.opts.SiteURL),
			Canonical:   r.opts.SiteURL,
			LastUpdated: lastUpdated,
		}
		if err := r.renderToFile(indexTmpl, filepath.Join(r.opts.OutputDir, "index.html"), data); err != nil {
			return fmt.Errorf("index.htmlの生成に失敗: %w", err)
		}
	}

	staticPages := []struct {
		tmpl *template.Template
		name string
	}{
		{aboutTmpl, "about.html"},
		{sourcesTmpl, "sources.html"},
		{privacyTmpl, "privacy.html"},
	}
	for _, sp := range staticPages {
		static := staticData{
			Site:        site,
			Sources:     sources,
			Canonical:   r.opts.SiteURL + "/" + sp.name,
			LastUpdated: lastUpdated,
		}
		if err := r.renderToFile(sp.tmpl, filepath.Join(r.opts.OutputDir, sp.name), static); err != nil {
			return fmt.Errorf("静的ページ%sの生成に失敗: %w", sp.name, err)
		}
	}

	if err := r.writeSitemap(len(pages), now); err != nil {
		return err
	}
	if err := r.writeFeed(articles, now); err != nil {
		return err
	}
	if err := r.writeRobots(); err != nil {
		return err
	}
	if err := r.writeAds(); err != nil {
		return err
	}
	if err := r.writeCNAME(); err != nil {
		return err
	}
	if err := r.writeAssets(); err != nil {
		return err
	}

	r.logger.Info("サイト生成が完了しました",
		slog.Int("article_count", len(articles)),
		slog.Int("page_count", max(len(pages), 1)),
		slog.String("output_dir", r.opts.OutputDir),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return nil
}

type page struct {
	number int
	items  []model.Article
}

// paginate は記事をページ単位に分割する。1ページ目が最新。
func paginate(articles []model.Article, perPage int) []page {
	var pages []page
	for start := 0; start < len(articles); start += perPage {
		end := start + perPage
		if end > len(articles) {
			end = len(articles)
		}
		pages = append(pages, page{
			number: len(pages) + 1,
			items:  articles[start:end],
		})
	}
	return pages
}

// buildPagination は前後リンクを組み立てる。
// 2ページ目のPrevはルート("/")、それ以降は /page/N-1/ を指す。
func buildPagination(current, total int, siteURL string) pagination {
	p := pagination{
		Current: current,
		Total:   total,
		PageURL: siteURL,
	}
	if current > 1 {
		p.PageURL = fmt.Sprintf("%s/page/%d/", siteURL, current)
	}

	switch {
	case current == 2:
		p.Prev = "/"
	case current > 2:
		p.Prev = fmt.Sprintf("/page/%d/", current-1)
	}
	if current < total {
		p.Next = fmt.Sprintf("/page/%d/", current+1)
	}
	return p
}

func (r *Renderer) renderToFile(tmpl *template.Template, path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.ExecuteTemplate(f, "base", data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeAssets は埋め込み済みの静的アセットを出力ディレクトリへコピーする。
func (r *Renderer) writeAssets() error {
	data, err := assetFS.ReadFile("assets/style.css")
	if err != nil {
		return fmt.Errorf("アセットの読み込みに失敗: %w", err)
	}
	if err := r.writeFile(filepath.Join("assets", "style.css"), string(data)); err != nil {
		return fmt.Errorf("アセットの書き込みに失敗: %w", err)
	}
	return nil
}

func (r *Renderer) writeFile(name, content string) error {
	path := filepath.Join(r.opts.OutputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
