// Package tagging は記事のトピックラベル付けと分類を提供する。
// タイトルとサマリーに対するキーワードマッチで判定する。
// 判定は決定的で、同一入力に対して常に同一の結果を返す。
package tagging

import (
	"strings"
)

// Rule はキーワード群から1つのラベルへのマッピングを表す。
// キーワードのいずれかが本文に含まれる場合にラベルが付与される。
type Rule struct {
	Label    string
	Keywords []string
}

// Classifier はルールベースのタグ付け・分類器。
type Classifier struct {
	tagRules      []Rule
	categoryRules []Rule
}

// DefaultTagRules は既定のトピックラベルルール。
var DefaultTagRules = []Rule{
	{Label: "llm", Keywords: []string{"llm", "gpt", "claude", "gemini", "language model", "chatbot"}},
	{Label: "research", Keywords: []string{"arxiv", "paper", "study", "benchmark", "dataset"}},
	{Label: "business", Keywords: []string{"funding", "startup", "acquisition", "revenue", "ipo", "valuation"}},
	{Label: "robotics", Keywords: []string{"robot", "humanoid", "autonomous", "self-driving"}},
	{Label: "policy", Keywords: []string{"regulation", "policy", "eu ai act", "lawsuit", "copyright"}},
	{Label: "hardware", Keywords: []string{"gpu", "chip", "nvidia", "tpu", "datacenter", "data center"}},
	{Label: "open-source", Keywords: []string{"open source", "open-source", "open weights", "hugging face"}},
}

// DefaultCategoryRules は既定のカテゴリルール。
// 最初にマッチしたルールのラベルがカテゴリとなる。
var DefaultCategoryRules = []Rule{
	{Label: "research", Keywords: []string{"arxiv", "paper", "study", "researchers"}},
	{Label: "industry", Keywords: []string{"openai", "google", "meta", "microsoft", "anthropic", "startup", "funding"}},
	{Label: "tools", Keywords: []string{"release", "launch", "api", "sdk", "open source", "open-source"}},
}

// NewClassifier は既定ルールのClassifierを生成する。
func NewClassifier() *Classifier {
	return &Classifier{
		tagRules:      DefaultTagRules,
		categoryRules: DefaultCategoryRules,
	}
}

// NewClassifierWithRules は指定ルールのClassifierを生成する。
func NewClassifierWithRules(tagRules, categoryRules []Rule) *Classifier {
	return &Classifier{
		tagRules:      tagRules,
		categoryRules: categoryRules,
	}
}

// Tags はタイトルとサマリーにマッチする全トピックラベルを返す。
// 返却順はルール定義順で安定している。マッチがなければnilを返す。
func (c *Classifier) Tags(title, summary string) []string {
	text := normalizeText(title + " " + summary)

	var tags []string
	for _, rule := range c.tagRules {
		if matchAny(text, rule.Keywords) {
			tags = append(tags, rule.Label)
		}
	}
	return tags
}

// Category はタイトルとサマリーから記事カテゴリを判定する。
// 最初にマッチしたルールのラベルを返す。マッチがなければ空文字列を返す。
func (c *Classifier) Category(title, summary string) string {
	text := normalizeText(title + " " + summary)

	for _, rule := range c.categoryRules {
		if matchAny(text, rule.Keywords) {
			return rule.Label
		}
	}
	return ""
}

// wordsPerMinute は読了時間推定に使用する1分あたりの語数。
const wordsPerMinute = 200

// ReadingTime はサマリーの語数から読了時間（分）を推定する。
// 空のサマリーは0分、それ以外は最低1分。
func ReadingTime(summary string) int {
	words := len(strings.Fields(summary))
	if words == 0 {
		return 0
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// normalizeText はマッチ用にテキストを小文字化する。
func normalizeText(s string) string {
	return strings.ToLower(s)
}

// matchAny はキーワードのいずれかがテキストに含まれるかを判定する。
func matchAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
