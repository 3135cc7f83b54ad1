package site

import "fmt"

// writeRobots は robots.txt を生成する。sitemapの場所を知らせる。
func (r *Renderer) writeRobots() error {
	content := fmt.Sprintf("User-agent: *\nAllow: /\nSitemap: %s/sitemap.xml\n", r.opts.SiteURL)
	if err := r.writeFile("robots.txt", content); err != nil {
		return fmt.Errorf("robots.txtの書き込みに失敗: %w", err)
	}
	return nil
}

// writeAds はAdSense用の ads.txt を生成する。
// パブリッシャーIDが未設定の場合は何も出力しない。
func (r *Renderer) writeAds() error {
	if r.opts.AdsensePub == "" {
		return nil
	}
	content := fmt.Sprintf("google.com, %s, DIRECT, f08c47fec0942fa0\n", r.opts.AdsensePub)
	if err := r.writeFile("ads.txt", content); err != nil {
		return fmt.Errorf("ads.txtの書き込みに失敗: %w", err)
	}
	return nil
}

// writeCNAME はGitHub Pages向けの CNAME を生成する。
// カスタムドメインが未設定の場合は何も出力しない。
func (r *Renderer) writeCNAME() error {
	if r.opts.CNAMEDomain == "" {
		return nil
	}
	if err := r.writeFile("CNAME", r.opts.CNAMEDomain+"\n"); err != nil {
		return fmt.Errorf("CNAMEの書き込みに失敗: %w", err)
	}
	return nil
}
