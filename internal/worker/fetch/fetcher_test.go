package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/ticker/internal/model"
	"github.com/hitoshi/ticker/internal/security"
	"github.com/hitoshi/ticker/internal/tagging"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestFetcher はhttptest用のFetcherを生成する。
// ssrfGuard=nilでプレーンなHTTPクライアントを使用する。
func newTestFetcher() *Fetcher {
	return NewFetcher(
		nil,
		security.NewContentSanitizer(),
		nil,
		tagging.NewClassifier(),
		nil,
		newTestLogger(),
		Options{
			UserAgent:     "TickerBot/1.0",
			Timeout:       5 * time.Second,
			MaxBodySize:   5 * 1024 * 1024,
			PerFeedCap:    40,
			SummaryMaxLen: 280,
		},
	)
}

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>First article</title>
      <link>https://example.com/articles/1</link>
      <description>&lt;p&gt;Summary of the first article.&lt;/p&gt;</description>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second article</title>
      <link>https://example.com/articles/2</link>
      <description>Summary of the second article.</description>
      <pubDate>Mon, 01 Jan 2024 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	f := newTestFetcher()
	articles := f.Fetch(context.Background(), model.Source{Name: "Example", URL: server.URL})

	if len(articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(articles))
	}
	if articles[0].Title != "First article" {
		t.Errorf("Title = %q", articles[0].Title)
	}
	if articles[0].URL != "https://example.com/articles/1" {
		t.Errorf("URL = %q", articles[0].URL)
	}
	if articles[0].Source != "Example" {
		t.Errorf("Source = %q", articles[0].Source)
	}
	if articles[0].Domain != "example.com" {
		t.Errorf("Domain = %q", articles[0].Domain)
	}
	if articles[0].Summary != "Summary of the first article." {
		t.Errorf("Summary = %q", articles[0].Summary)
	}
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if !articles[0].PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", articles[0].PublishedAt, want)
	}
}

func TestFetch_SetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	newTestFetcher().Fetch(context.Background(), model.Source{Name: "X", URL: server.URL})
	if gotUA != "TickerBot/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFetch_HTTP500ReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	got := newTestFetcher().Fetch(context.Background(), model.Source{Name: "X", URL: server.URL})
	if len(got) != 0 {
		t.Errorf("HTTP 500は記事ゼロへ縮退すべき: %v", got)
	}
}

func TestFetch_NetworkErrorReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 接続エラーを誘発

	got := newTestFetcher().Fetch(context.Background(), model.Source{Name: "X", URL: server.URL})
	if len(got) != 0 {
		t.Errorf("接続エラーは記事ゼロへ縮退すべき: %v", got)
	}
}

func TestFetch_UnparseableBodyReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a feed at all")
	}))
	defer server.Close()

	got := newTestFetcher().Fetch(context.Background(), model.Source{Name: "X", URL: server.URL})
	if len(got) != 0 {
		t.Errorf("パース不能なボディは記事ゼロへ縮退すべき: %v", got)
	}
}

func TestFetch_Idempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	f := newTestFetcher()
	src := model.Source{Name: "Example", URL: server.URL}

	first := f.Fetch(context.Background(), src)
	second := f.Fetch(context.Background(), src)

	if len(first) != len(second) {
		t.Fatalf("件数が一致しない: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("IDが再現しない: %q != %q", first[i].ID, second[i].ID)
		}
		if first[i].Summary != second[i].Summary {
			t.Errorf("Summaryが再現しない")
		}
	}
}

func TestFetch_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleRSS)
	}))
	defer server.Close()

	rec := &mockRecorder{}
	f := NewFetcher(nil, security.NewContentSanitizer(), nil, nil, rec, newTestLogger(), Options{
		UserAgent: "T", Timeout: 5 * time.Second, MaxBodySize: 1 << 20,
	})

	f.Fetch(context.Background(), model.Source{Name: "X", URL: server.URL})

	if rec.successes != 1 {
		t.Errorf("successes = %d, want 1", rec.successes)
	}
	if rec.articles != 2 {
		t.Errorf("articles = %d, want 2", rec.articles)
	}
	if rec.lastStatus != 200 {
		t.Errorf("lastStatus = %d, want 200", rec.lastStatus)
	}
}

// mockRecorder はRecorderのテスト用モック。
type mockRecorder struct {
	successes  int
	failures   int
	parseFails int
	articles   int
	lastStatus int
}

func (m *mockRecorder) RecordFetchSuccess(string)           { m.successes++ }
func (m *mockRecorder) RecordFetchFailure(string, string)   { m.failures++ }
func (m *mockRecorder) RecordParseFailure(string)           { m.parseFails++ }
func (m *mockRecorder) RecordHTTPStatus(code int)           { m.lastStatus = code }
func (m *mockRecorder) RecordFetchLatency(time.Duration)    {}
func (m *mockRecorder) RecordArticles(n int)                { m.articles += n }
