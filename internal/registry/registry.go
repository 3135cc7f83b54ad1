// Package registry はフィード取得元レジストリの読み込みを提供する。
// レジストリはYAMLファイルで静的に定義され、実行中の変更はない。
// 不正なレジストリは起動時エラーであり、ランタイム条件として扱わない。
package registry

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/ticker/internal/model"
)

// registryFile はfeeds.yamlのトップレベル構造。
type registryFile struct {
	Sources []model.Source `yaml:"sources"`
}

// Load はYAMLファイルからフィード取得元の一覧を読み込む。
// 空のレジストリ、重複した名前、不正なURLはエラーとして返す。
func Load(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("レジストリファイルの読み込みに失敗: %w", err)
	}
	return Parse(data)
}

// Parse はYAMLバイト列からフィード取得元の一覧をパース・検証する。
func Parse(data []byte) ([]model.Source, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("レジストリのYAMLパースに失敗: %w", err)
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("レジストリにフィード取得元が定義されていません")
	}

	seen := make(map[string]bool, len(file.Sources))
	for i, src := range file.Sources {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			return nil, fmt.Errorf("レジストリ %d 番目のエントリ: nameが空です", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("レジストリに重複した取得元名があります: %s", name)
		}
		seen[name] = true

		if err := validateFeedURL(src.URL); err != nil {
			return nil, fmt.Errorf("取得元 %s のURLが不正: %w", name, err)
		}
		file.Sources[i].Name = name
	}

	return file.Sources, nil
}

// validateFeedURL はフィードURLの静的検証を行う。
func validateFeedURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URLが空です")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URLのパースに失敗: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("許可されないスキーム: %s", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("ホストが空です")
	}
	return nil
}
