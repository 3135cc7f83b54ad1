package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "run-123")

	l.Info("テストメッセージ", "source", "example")

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("ログ出力がJSONではない: %v (出力: %s)", err, line)
	}

	if record["msg"] != "テストメッセージ" {
		t.Errorf("msg = %v, want テストメッセージ", record["msg"])
	}
	if record["source"] != "example" {
		t.Errorf("source = %v, want example", record["source"])
	}
	if record["run_id"] != "run-123" {
		t.Errorf("run_id = %v, want run-123", record["run_id"])
	}
}

func TestSetup_WithoutRunID(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "")

	l.Info("no run id")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("JSONパース失敗: %v", err)
	}
	if _, ok := record["run_id"]; ok {
		t.Error("runID未指定の場合、run_id属性は付与されないべき")
	}
}

func TestSetup_DebugIsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "")

	l.Debug("デバッグメッセージ")

	if buf.Len() != 0 {
		t.Errorf("InfoレベルのロガーはDebugを出力してはならない: %s", buf.String())
	}
}
