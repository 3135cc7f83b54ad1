// Package model はドメインモデルを定義する。
package model

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Article は正規化済みの記事を表す。
// フィードから取得したエントリを正規化した後の形式で、
// 重複排除・ランキング・レンダリングの全工程で共通して使用される。
type Article struct {
	ID              string     // (source, title, url) のハッシュから導出される安定ID
	Title           string     // 空の場合はプレースホルダが設定される
	URL             string     // 記事の正規リンク。空のArticleは生成されない
	Summary         string     // HTMLタグ除去・切り詰め済みのプレーンテキスト
	Source          string     // 取得元フィード名（非正規化、グルーピング用）
	Category        string     // フィード固定またはキーワード判定による分類
	PublishedAt     time.Time  // UTC。フィードに日時がない場合は取得時刻
	IsDateEstimated bool       // PublishedAtが取得時刻フォールバックかどうか
	Domain          string     // URLのホスト部（www.除去済み）
	Image           string     // 代表画像の絶対URL（なければ空）
	Slug            string     // タイトル由来のURLスラッグ
	Tags            []string   // キーワードマッチで付与されたトピックラベル
	ReadingTime     int        // サマリー語数からの読了時間推定（分）
}

// MakeID は (source, title, link) から安定した記事IDを導出する。
// sha256ダイジェストの先頭16文字の16進文字列。
// 同じ入力に対して常に同じIDを返すため、実行をまたいだ重複判定に使用できる。
func MakeID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		if p != "" {
			h.Write([]byte(p))
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// DomainOf はリンクURLからドメイン部を抽出する。
// 先頭の "www." は除去される。パース不能な場合は空文字列を返す。
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
