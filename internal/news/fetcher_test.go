package news

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// allowAllGuard はテスト用のSSRF検証（すべて許可）。
// httptestのループバックアドレスに接続するため素のクライアントを返す。
type allowAllGuard struct{}

func (allowAllGuard) ValidateURL(string) error { return nil }
func (allowAllGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// denyAllGuard はテスト用のSSRF検証（すべて拒否）。
type denyAllGuard struct{}

func (denyAllGuard) ValidateURL(string) error {
	return errors.New("blocked IP address")
}
func (denyAllGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// passthroughSanitizer はテスト用のサニタイザ（素通し）。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(s string) string { return s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Cricket Wire</title>
    <item>
      <title>Stars clinch thriller</title>
      <link>https://news.example.com/stars-clinch</link>
      <description>A last-over finish at the MCG.</description>
      <pubDate>Mon, 01 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No link article</title>
      <description>Should be skipped.</description>
    </item>
  </channel>
</rss>`

func newTestFetcher() *Fetcher {
	f := NewFetcher(allowAllGuard{}, passthroughSanitizer{}, testLogger(), 5*time.Second, 5*1024*1024)
	f.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestFetch_DirectFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, sampleRSS)
	}))
	defer srv.Close()

	articles, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// リンクのない記事はスキップされる
	if len(articles) != 1 {
		t.Fatalf("len(articles) = %d, want 1", len(articles))
	}
	a := articles[0]
	if a.Headline != "Stars clinch thriller" {
		t.Errorf("Headline = %q", a.Headline)
	}
	if a.SourceURL != "https://news.example.com/stars-clinch" {
		t.Errorf("SourceURL = %q", a.SourceURL)
	}
	if a.SourceName != "Cricket Wire" {
		t.Errorf("SourceName = %q", a.SourceName)
	}
	if a.ID == "" {
		t.Error("IDが採番されていない")
	}
	if want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC); !a.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", a.PublishedAt, want)
	}
}

func TestFetch_HTMLWithAlternateLink(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<html><head><link rel="alternate" type="application/rss+xml" href="/rss.xml"></head><body></body></html>`)
	})
	mux.HandleFunc("/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, sampleRSS)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	articles, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("len(articles) = %d, want 1", len(articles))
	}
}

func TestFetch_HTMLWithoutFeedLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<html><head><title>nope</title></head><body></body></html>`)
	}))
	defer srv.Close()

	if _, err := newTestFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("フィードリンクなしでエラーにならない")
	}
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("503でエラーにならない")
	}
}

func TestFetch_SSRFBlocked(t *testing.T) {
	f := NewFetcher(denyAllGuard{}, passthroughSanitizer{}, testLogger(), 5*time.Second, 5*1024*1024)

	_, err := f.Fetch(context.Background(), "http://169.254.169.254/feed")
	if err == nil {
		t.Fatal("SSRF検証失敗でエラーにならない")
	}
	if !strings.Contains(err.Error(), "SSRF") {
		t.Errorf("error = %v", err)
	}
}

func TestIsDirectFeed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        bool
	}{
		{"RSS Content-Type", "application/rss+xml", "", true},
		{"Atom Content-Type", "application/atom+xml; charset=utf-8", "", true},
		{"汎用XMLでRSSボディ", "text/xml", `<?xml version="1.0"?><rss version="2.0"></rss>`, true},
		{"汎用XMLでAtomボディ", "application/xml", `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`, true},
		{"汎用XMLで非フィード", "text/xml", `<?xml version="1.0"?><config></config>`, false},
		{"HTML", "text/html", "<html></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDirectFeed(tt.contentType, []byte(tt.body)); got != tt.want {
				t.Errorf("isDirectFeed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindAlternateFeedURL(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "同一ホストの相対URL",
			html: `<html><head><link rel="alternate" type="application/rss+xml" href="/rss.xml"></head></html>`,
			want: "https://news.example.com/rss.xml",
		},
		{
			name: "同一ホスト優先",
			html: `<html><head>
<link rel="alternate" type="application/rss+xml" href="https://other.example.org/rss">
<link rel="alternate" type="application/atom+xml" href="https://news.example.com/atom">
</head></html>`,
			want: "https://news.example.com/atom",
		},
		{
			name: "別ホストのみならそれを返す",
			html: `<html><head><link rel="alternate" type="application/rss+xml" href="https://other.example.org/rss"></head></html>`,
			want: "https://other.example.org/rss",
		},
		{
			name: "stylesheetリンクは無視",
			html: `<html><head><link rel="stylesheet" href="/style.css"></head></html>`,
			want: "",
		},
		{
			name: "bodyのリンクは無視",
			html: `<html><head></head><body><link rel="alternate" type="application/rss+xml" href="/rss.xml"></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findAlternateFeedURL([]byte(tt.html), "https://news.example.com/")
			if got != tt.want {
				t.Errorf("findAlternateFeedURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
