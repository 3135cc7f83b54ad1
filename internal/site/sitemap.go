package site

import (
	"encoding/xml"
	"fmt"
	"time"
)

const sitemapXmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// writeSitemap はトップ・ページネーション・静的ページを含む
// sitemap.xml を生成する。
func (r *Renderer) writeSitemap(pageCount int, now time.Time) error {
	lastMod := now.UTC().Format("2006-01-02")

	urls := []sitemapURL{
		{Loc: r.opts.SiteURL + "/", LastMod: lastMod, ChangeFreq: "hourly", Priority: "1.0"},
	}
	for n := 2; n <= pageCount; n++ {
		urls = append(urls, sitemapURL{
			Loc:        fmt.Sprintf("%s/page/%d/", r.opts.SiteURL, n),
			LastMod:    lastMod,
			ChangeFreq: "hourly",
			Priority:   "0.7",
		})
	}
	for _, name := range []string{"about.html", "sources.html", "privacy.html"} {
		urls = append(urls, sitemapURL{
			Loc:        r.opts.SiteURL + "/" + name,
			ChangeFreq: "monthly",
			Priority:   "0.3",
		})
	}

	data, err := xml.MarshalIndent(sitemapURLSet{Xmlns: sitemapXmlns, URLs: urls}, "", "  ")
	if err != nil {
		return fmt.Errorf("sitemap.xmlの生成に失敗: %w", err)
	}

	if err := r.writeFile("sitemap.xml", xml.Header+string(data)+"\n"); err != nil {
		return fmt.Errorf("sitemap.xmlの書き込みに失敗: %w", err)
	}
	return nil
}
