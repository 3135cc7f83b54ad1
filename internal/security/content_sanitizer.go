// Package security はアウトバウンド通信のセキュリティ機能を提供する。
//
// ContentSanitizerService はフィード由来のHTML断片を処理する。
// サマリー生成用の全タグ除去と、特集記事本文用の許可リストベースの
// サニタイズの2系統を提供する。いずれもbluemondayライブラリを使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツの無害化機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// PlainText はHTML断片から全タグを除去した可視テキストを返す。
	// HTMLエンティティはデコードされ、連続する空白は1個のスペースに畳まれる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	PlainText(rawHTML string) string

	// SanitizeHTML は特集記事本文のHTMLをサニタイズして安全なHTMLを返す。
	// 基本的な整形タグのみを通過させ、script, iframe, style および
	// on*イベント属性を除去する。aタグにはrel="noopener noreferrer"が付与される。
	SanitizeHTML(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフに処理を行う。
type contentSanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時に2つのbluemondayポリシーを構築する:
//   - strict: 全タグ除去（サマリーのプレーンテキスト化用）
//   - rich: p, br, a, ul, ol, li, blockquote, pre, code, strong, em を許可
//     （特集記事本文用）
func NewContentSanitizer() *contentSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowRelativeURLs(false)
	rich.AllowURLSchemes("https", "http")
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// PlainText はHTML断片から全タグを除去した可視テキストを返す。
func (s *contentSanitizer) PlainText(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	// StrictPolicyは全タグを除去するがエンティティはエスケープされたまま残るため、
	// デコードしてから空白を正規化する。
	stripped := s.strict.Sanitize(rawHTML)
	decoded := html.UnescapeString(stripped)
	return strings.Join(strings.Fields(decoded), " ")
}

// SanitizeHTML は特集記事本文のHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeHTML(rawHTML string) string {
	return s.rich.Sanitize(rawHTML)
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
