// Package model はドメインモデルを定義する。
package model

// Source はフィード取得元を表す。
// レジストリファイル（feeds.yaml）で静的に定義され、実行中に変更されない。
// 同一性はNameで判定する。
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category,omitempty"`
}

// Editorial は手動編集の特集記事を表す。
// 外部ファイルから読み取り専用で取り込まれ、ページに無加工でマージされる。
type Editorial struct {
	Title      string `yaml:"title"`
	Body       string `yaml:"body"`
	VideoURL   string `yaml:"video_url,omitempty"`
	SourceNote string `yaml:"source_note,omitempty"`
}
