// Package history は描画済み記事のローリング履歴の永続化を提供する。
// 履歴はJSON配列のフラットファイルで、実行開始時に1回読み込み、
// マージ・保持期間の刈り込みの後に実行終了時に1回書き戻される。
// バッチプロセスが排他的に所有し、実行内に並行アクセスは存在しない。
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hitoshi/ticker/internal/model"
)

// storedArticle は履歴ファイル上の記事レコード。
// published_isoはISO-8601(RFC 3339)のタイムスタンプ文字列。
type storedArticle struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Summary       string   `json:"summary"`
	Source        string   `json:"source"`
	PublishedISO  string   `json:"published_iso"`
	Domain        string   `json:"domain"`
	Image         string   `json:"image,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ReadingTime   int      `json:"reading_time,omitempty"`
	Slug          string   `json:"slug,omitempty"`
	DateEstimated bool     `json:"date_estimated,omitempty"`
}

// Store は履歴ファイルの読み書きを行う。
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Load は履歴ファイルから記事一覧を読み込む。
// ファイルが存在しない・読めない・破損している場合は空の履歴として扱い、
// 警告ログを出力して処理を継続する。この場合その実行では実行間の
// 重複排除が効かないが、実行自体は中断しない。
func (s *Store) Load() []model.Article {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("履歴ファイルが存在しないため空の履歴から開始します",
				slog.String("path", s.path),
			)
		} else {
			s.logger.Warn("履歴ファイルの読み込みに失敗したため空の履歴として扱います",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var stored []storedArticle
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("履歴ファイルが破損しているため空の履歴として扱います",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return nil
	}

	articles := make([]model.Article, 0, len(stored))
	skipped := 0
	for _, rec := range stored {
		a, err := toArticle(rec)
		if err != nil {
			skipped++
			continue
		}
		articles = append(articles, a)
	}

	if skipped > 0 {
		s.logger.Warn("履歴内の不正なレコードをスキップしました",
			slog.Int("skipped", skipped),
		)
	}

	s.logger.Info("履歴を読み込みました",
		slog.String("path", s.path),
		slog.Int("count", len(articles)),
	)

	return articles
}

// Save は記事一覧を履歴ファイルへ書き戻す。
// 一時ファイルへの書き込みとリネームにより、書き込み途中の
// クラッシュで履歴が破損しないようにする。
func (s *Store) Save(articles []model.Article) error {
	stored := make([]storedArticle, 0, len(articles))
	for _, a := range articles {
		stored = append(stored, fromArticle(a))
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("履歴のJSONエンコードに失敗: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("履歴の一時ファイル作成に失敗: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("履歴の書き込みに失敗: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("履歴のクローズに失敗: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("履歴ファイルの置き換えに失敗: %w", err)
	}

	s.logger.Info("履歴を保存しました",
		slog.String("path", s.path),
		slog.Int("count", len(stored)),
	)

	return nil
}

// toArticle は履歴レコードをドメインモデルへ変換する。
// published_isoがパース不能なレコードはエラーを返し、呼び出し側でスキップされる。
func toArticle(rec storedArticle) (model.Article, error) {
	if rec.URL == "" {
		return model.Article{}, fmt.Errorf("urlが空のレコード")
	}
	published, err := time.Parse(time.RFC3339, rec.PublishedISO)
	if err != nil {
		return model.Article{}, fmt.Errorf("published_isoのパースに失敗: %w", err)
	}
	return model.Article{
		ID:              rec.ID,
		Title:           rec.Title,
		URL:             rec.URL,
		Summary:         rec.Summary,
		Source:          rec.Source,
		Category:        rec.Category,
		PublishedAt:     published.UTC(),
		IsDateEstimated: rec.DateEstimated,
		Domain:          rec.Domain,
		Image:           rec.Image,
		Slug:            rec.Slug,
		Tags:            rec.Tags,
		ReadingTime:     rec.ReadingTime,
	}, nil
}

// fromArticle はドメインモデルを履歴レコードへ変換する。
func fromArticle(a model.Article) storedArticle {
	return storedArticle{
		ID:            a.ID,
		Title:         a.Title,
		URL:           a.URL,
		Summary:       a.Summary,
		Source:        a.Source,
		PublishedISO:  a.PublishedAt.UTC().Format(time.RFC3339),
		Domain:        a.Domain,
		Image:         a.Image,
		Category:      a.Category,
		Tags:          a.Tags,
		ReadingTime:   a.ReadingTime,
		Slug:          a.Slug,
		DateEstimated: a.IsDateEstimated,
	}
}
