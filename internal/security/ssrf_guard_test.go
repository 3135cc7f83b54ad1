package security

import (
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicURL(t *testing.T) {
	g := NewSSRFGuard()

	valid := []string{
		"https://example.com/feed.xml",
		"http://news.example.org/rss",
		"https://8.8.8.8/feed",
	}
	for _, u := range valid {
		if err := g.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_BlocksDangerousURL(t *testing.T) {
	g := NewSSRFGuard()

	cases := []struct {
		name string
		url  string
	}{
		{"空URL", ""},
		{"ループバックIP", "http://127.0.0.1/feed"},
		{"プライベートIP 10系", "http://10.0.0.5/feed"},
		{"プライベートIP 192系", "http://192.168.1.1/feed"},
		{"プライベートIP 172系", "http://172.16.0.1/feed"},
		{"メタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"localhost", "http://localhost/feed"},
		{"fileスキーム", "file:///etc/passwd"},
		{"ftpスキーム", "ftp://example.com/feed"},
		{"ホストなし", "https:///path"},
		{"IPv6ループバック", "http://[::1]/feed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := g.ValidateURL(tc.url); err == nil {
				t.Errorf("ValidateURL(%q) はエラーを返すべき", tc.url)
			}
		})
	}
}

func TestNewSafeClient_ReturnsClientWithTimeout(t *testing.T) {
	g := NewSSRFGuard()

	client := g.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
}
