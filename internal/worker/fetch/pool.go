package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/ticker/internal/model"
)

// FeedFetcherService はフィードフェッチの実行インターフェース。
type FeedFetcherService interface {
	// Fetch は1つの取得元からフィードを取得し、正規化済み記事の列を返す。
	Fetch(ctx context.Context, source model.Source) []model.Article
}

// Pool はフェッチ+正規化の並列実行を調整する。
// semaphoreパターンで最大並列数を制御し、取得元ごとに1タスクを割り当てる。
// 各ワーカーはプライベートな結果スライスへ書き込むため、
// ホットパスにロックは存在しない。平坦化は全ワーカーのjoin後に単一スレッドで行う。
type Pool struct {
	fetcher        FeedFetcherService
	logger         *slog.Logger
	maxConcurrency int
}

// NewPool はPoolの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値8を使用する。
func NewPool(fetcher FeedFetcherService, logger *slog.Logger, maxConcurrency int) *Pool {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	return &Pool{
		fetcher:        fetcher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// FetchAll は全取得元のフェッチを並列実行し、結果を平坦化して返す。
// 取得元の分離は完全で、1つのフィードの失敗が他へ影響することはない。
// 全タスクの完了まで待機する（早期リターンやキャンセルモードはない）。
// 取得元間の順序保証はなく、全体の順序はランキング段階で再構築される。
func (p *Pool) FetchAll(ctx context.Context, sources []model.Source) []model.Article {
	start := time.Now()

	p.logger.Info("フェッチサイクルを開始します",
		slog.Int("source_count", len(sources)),
		slog.Int("max_concurrency", p.maxConcurrency),
	)

	// 取得元ごとのプライベートスロット。共有の可変状態はこれだけで、
	// 各ワーカーは自分のインデックスにのみ書き込む。
	results := make([][]model.Article, len(sources))

	sem := make(chan struct{}, p.maxConcurrency)
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(idx int, src model.Source) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			results[idx] = p.fetcher.Fetch(ctx, src)
		}(i, source)
	}

	wg.Wait()

	var articles []model.Article
	succeeded := 0
	for _, r := range results {
		if len(r) > 0 {
			succeeded++
		}
		articles = append(articles, r...)
	}

	duration := time.Since(start)
	p.logger.Info("フェッチサイクルが完了しました",
		slog.Int("source_count", len(sources)),
		slog.Int("sources_with_articles", succeeded),
		slog.Int("article_count", len(articles)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return articles
}
