// Package rank は記事の重複排除・ソート・保持ポリシー適用を提供する。
// 全操作は決定的で、同一入力に対して常に同一の出力列を返す。
// ランダム性やマップ反復順への依存はない。
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/ticker/internal/config"
	"github.com/hitoshi/ticker/internal/model"
)

// KeyFunc は記事から一意性キーを導出する関数。
// 重複排除の戦略として差し替え可能。
type KeyFunc func(model.Article) string

// URLKey は記事URLを一意性キーとする（推奨デフォルト）。
// URLは構築上必ず存在し安定しているため、同名の別記事を
// 誤って統合することがない。
func URLKey(a model.Article) string {
	return a.URL
}

// TitleDomainKey は (小文字タイトル, ドメイン) の組を一意性キーとする。
// 同一サイトが同じ記事を複数URLで配信するケースを統合できるが、
// タイトルが衝突する別記事を誤統合するリスクがある。
func TitleDomainKey(a model.Article) string {
	return strings.ToLower(strings.TrimSpace(a.Title)) + "\x00" + a.Domain
}

// KeyFor は設定の戦略名に対応するKeyFuncを返す。
func KeyFor(strategy config.DedupStrategy) KeyFunc {
	if strategy == config.DedupByTitleDomain {
		return TitleDomainKey
	}
	return URLKey
}

// Engine は重複排除とランキングを行う。
type Engine struct {
	key KeyFunc
}

// NewEngine は指定のキー戦略でEngineを生成する。
func NewEngine(key KeyFunc) *Engine {
	if key == nil {
		key = URLKey
	}
	return &Engine{key: key}
}

// Merge は履歴と新規取得分を統合し、重複排除済みの新しい順の列を返す。
// 手順は順序依存を明示した畳み込み:
//  1. 履歴+新規を1つの作業集合に結合する
//  2. PublishedAt降順で安定ソートする（同時刻は挿入順を保持）
//  3. 先頭から走査し、キーごとに最初の出現（=最新）のみを残す
//
// キーごとに最も新しいメタデータを持つインスタンスが生き残る。
// 同一入力に対して冪等: Merge(Merge(h, f), nil) == Merge(h, f)。
func (e *Engine) Merge(history, fresh []model.Article) []model.Article {
	working := make([]model.Article, 0, len(history)+len(fresh))
	working = append(working, history...)
	working = append(working, fresh...)

	sort.SliceStable(working, func(i, j int) bool {
		return working[i].PublishedAt.After(working[j].PublishedAt)
	})

	seen := make(map[string]bool, len(working))
	out := working[:0]
	for _, a := range working {
		k := e.key(a)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}

	// 背後の配列を共有しないようコピーを返す
	result := make([]model.Article, len(out))
	copy(result, out)
	return result
}

// Prune は保持期間と絶対件数上限を適用する。永続化する履歴に対して使用する。
// now - retention より古い記事を除外し、残りを先頭からmaxItems件に切り詰める。
// 入力は新しい順にソート済みであることを前提とする。
func Prune(articles []model.Article, now time.Time, retention time.Duration, maxItems int) []model.Article {
	cutoff := now.Add(-retention)

	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt.Before(cutoff) {
			continue
		}
		out = append(out, a)
	}

	return Cap(out, maxItems)
}

// Cap は先頭からmax件に切り詰める。maxが0以下の場合は無制限。
func Cap(articles []model.Article, max int) []model.Article {
	if max <= 0 || len(articles) <= max {
		return articles
	}
	return articles[:max]
}

// CapPerSource は取得元ごとの最大件数を適用する。
// 描画対象の集合に取得元の多様性を保証するために使用する。
// maxが0以下の場合は無制限。順序は保持される。
func CapPerSource(articles []model.Article, max int) []model.Article {
	if max <= 0 {
		return articles
	}

	counts := make(map[string]int)
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if counts[a.Source] >= max {
			continue
		}
		counts[a.Source]++
		out = append(out, a)
	}
	return out
}
