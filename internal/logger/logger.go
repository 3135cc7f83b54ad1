// Package logger はJSON構造化ログのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// run_id属性を全レコードに付与し、スケジューラ実行単位でログを追跡可能にする。
func Setup(w io.Writer, runID string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	l := slog.New(handler)
	if runID != "" {
		l = l.With(slog.String("run_id", runID))
	}
	return l
}

// SetupDefault はJSON構造化ログをグローバルロガーとして設定する。
// バッチ実行ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer, runID string) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w, runID))
}
