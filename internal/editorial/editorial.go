// Package editorial は手動編集の特集記事の読み込みを提供する。
// 特集記事は外部で執筆されるYAMLファイルで、読み取り専用の入力として
// ページへマージされる。本システムが生成・変更することはない。
package editorial

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/ticker/internal/model"
)

// HTMLSanitizer は特集記事本文のサニタイズのインターフェース。
type HTMLSanitizer interface {
	SanitizeHTML(rawHTML string) string
}

// Load は特集記事ファイルを読み込む。
// pathが空の場合、またはファイルが存在しない場合は (nil, nil) を返す
// （特集記事は任意入力）。ファイルは存在するが読めない・不正な場合はエラー。
// 本文HTMLはsanitizerで無害化してから返す。
func Load(path string, sanitizer HTMLSanitizer) (*model.Editorial, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("特集記事ファイルの読み込みに失敗: %w", err)
	}

	var ed model.Editorial
	if err := yaml.Unmarshal(data, &ed); err != nil {
		return nil, fmt.Errorf("特集記事のYAMLパースに失敗: %w", err)
	}

	if strings.TrimSpace(ed.Title) == "" {
		return nil, fmt.Errorf("特集記事のtitleが空です")
	}

	if sanitizer != nil {
		ed.Body = sanitizer.SanitizeHTML(ed.Body)
	}

	return &ed, nil
}
