// Package app はアプリケーションの起動とコンポーネントのワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ticker/internal/config"
	"github.com/hitoshi/ticker/internal/editorial"
	"github.com/hitoshi/ticker/internal/enrich"
	"github.com/hitoshi/ticker/internal/history"
	"github.com/hitoshi/ticker/internal/logger"
	"github.com/hitoshi/ticker/internal/metrics"
	"github.com/hitoshi/ticker/internal/rank"
	"github.com/hitoshi/ticker/internal/registry"
	"github.com/hitoshi/ticker/internal/security"
	"github.com/hitoshi/ticker/internal/site"
	"github.com/hitoshi/ticker/internal/tagging"
	fetchpkg "github.com/hitoshi/ticker/internal/worker/fetch"
)

// Init はアプリケーションの初期化を行う。
// 実行IDを採番し、JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, string, error) {
	// 1. 実行IDの採番（この1回のビルドの全ログとメトリクスに付与される）
	runID := uuid.NewString()

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, runID)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, runID, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで実行する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	cfg, runID, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("site_url", cfg.SiteURL),
		slog.String("output_dir", cfg.OutputDir),
	)

	switch cmd {
	case CommandCheck:
		return runCheck(cfg)
	case CommandBuild:
		return runBuild(cfg, runID)
	default:
		return runBuild(cfg, runID)
	}
}

// runBuild はビルドを1回実行する。
// フィード取得 → 履歴とのマージ → サイト生成 → 履歴保存 → メトリクス送信。
// 個々のフィードの失敗はベストエフォートで握りつぶすが、
// フィード定義の読み込み失敗とサイト生成の失敗はエラーとして返す。
func runBuild(cfg *config.Config, runID string) error {
	start := time.Now()
	now := time.Now().UTC()
	log := slog.Default()

	// 1. フィード定義の読み込み
	sources, err := registry.Load(cfg.FeedsFile)
	if err != nil {
		return fmt.Errorf("failed to load feed registry: %w", err)
	}

	// 2. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 3. 特集記事の読み込み（任意入力）
	ed, err := editorial.Load(cfg.EditorialFile, sanitizer)
	if err != nil {
		return fmt.Errorf("failed to load editorial: %w", err)
	}

	// 4. メトリクスコレクタの初期化
	collector := metrics.NewCollector()

	// 5. フェッチパイプラインの構築
	classifier := tagging.NewClassifier()

	var scraper fetchpkg.ImageScraper
	if cfg.ScrapeImages {
		scraper = enrich.NewImageScraper(
			ssrfGuard, log, cfg.UserAgent, cfg.ScrapeTimeout, cfg.ScrapePerSecond,
		)
	}

	fetcher := fetchpkg.NewFetcher(
		ssrfGuard, sanitizer, scraper, classifier, collector, log,
		fetchpkg.Options{
			UserAgent:     cfg.UserAgent,
			Timeout:       cfg.FetchTimeout,
			MaxBodySize:   cfg.FetchMaxSize,
			PerFeedCap:    cfg.PerFeedCap,
			SummaryMaxLen: cfg.SummaryMaxLen,
			ScrapeImages:  cfg.ScrapeImages,
		},
	)
	pool := fetchpkg.NewPool(fetcher, log, cfg.FetchMaxConcurrent)

	// SIGINT/SIGTERMで取得フェーズを中断できるようにする
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 6. 全フィードの並列取得
	fresh := pool.FetchAll(ctx, sources)

	// 7. 履歴とマージして重複排除・ソート
	store := history.NewStore(cfg.HistoryFile, log)
	engine := rank.NewEngine(rank.KeyFor(cfg.Dedup))
	merged := engine.Merge(store.Load(), fresh)

	// 8. 表示対象の絞り込み
	renderSet := rank.Cap(rank.CapPerSource(merged, cfg.PerSourceMax), cfg.RenderMaxItems)

	// 9. サイト生成（失敗時は前回の出力が残るため、エラーとして返す）
	renderer := site.NewRenderer(site.Options{
		SiteURL:         cfg.SiteURL,
		SiteTitle:       cfg.SiteTitle,
		SiteDescription: cfg.SiteDescription,
		SiteImage:       cfg.SiteImage,
		AdsensePub:      cfg.AdsensePub,
		CNAMEDomain:     cfg.CNAMEDomain,
		OutputDir:       cfg.OutputDir,
		ItemsPerPage:    cfg.ItemsPerPage,
	}, log)
	if err := renderer.Render(renderSet, ed, sources, now); err != nil {
		return fmt.Errorf("site rendering failed: %w", err)
	}

	// 10. 履歴の保存（保持期間と上限で刈り込む）
	// 保存失敗は次回実行で記事が増減するだけのため、ログのみ残して成功扱いとする
	pruned := rank.Prune(merged, now, cfg.Retention, cfg.HistoryMaxItems)
	if err := store.Save(pruned); err != nil {
		log.Error("failed to save history",
			slog.String("path", cfg.HistoryFile),
			slog.String("error", err.Error()),
		)
	}

	// 11. メトリクス送信（設定時のみ、失敗はログのみ）
	collector.RecordRunSummary(len(renderSet), len(pruned), time.Since(start))
	collector.Push(cfg.PushgatewayURL, cfg.MetricsJob, runID, log)

	slog.Info("build completed",
		slog.Int("fetched", len(fresh)),
		slog.Int("rendered", len(renderSet)),
		slog.Int("history", len(pruned)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// runCheck はフィード定義の検証のみを行う。
// 定義ファイルの構文・一意性と、各URLのSSRF検証を実施し、
// ネットワークアクセスは行わない。CIでの設定変更チェック用。
func runCheck(cfg *config.Config) error {
	sources, err := registry.Load(cfg.FeedsFile)
	if err != nil {
		return fmt.Errorf("feed registry check failed: %w", err)
	}

	ssrfGuard := security.NewSSRFGuard()
	invalid := 0
	for _, src := range sources {
		if err := ssrfGuard.ValidateURL(src.URL); err != nil {
			slog.Error("feed URL rejected",
				slog.String("source", src.Name),
				slog.String("url", src.URL),
				slog.String("error", err.Error()),
			)
			invalid++
		}
	}

	if invalid > 0 {
		return fmt.Errorf("feed registry check failed: %d of %d sources rejected", invalid, len(sources))
	}

	slog.Info("feed registry check passed", slog.Int("source_count", len(sources)))
	return nil
}

// Main はos.Argsと終了コードを扱う薄いラッパー。
func Main() {
	if err := Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
