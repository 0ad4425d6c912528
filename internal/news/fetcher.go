package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/stryker/livescore/internal/model"
)

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Sanitizer はHTMLサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// Fetcher は1つのニュースソースURLのフェッチとパースを行う。
// SSRF検証 → HTTPフェッチ → フィード判定（HTMLの場合はalternateリンク
// 検出でフォールバック） → gofeedパース → サニタイズ済み記事への変換。
type Fetcher struct {
	ssrfGuard   SSRFValidator
	sanitizer   Sanitizer
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64

	// now はテストで時刻を固定するための関数。通常はtime.Now。
	now func() time.Time
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	ssrfGuard SSRFValidator,
	sanitizer Sanitizer,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		now:         time.Now,
	}
}

// Fetch はニュースソースURLから記事一覧を取得する。
// URLがHTMLページを指していた場合はheadタグのalternateリンクから
// フィードURLを検出して1回だけリダイレクトする。
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) ([]*model.NewsArticle, error) {
	body, contentType, err := f.get(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	if !isDirectFeed(contentType, body) {
		mediaType, _, _ := mime.ParseMediaType(contentType)
		if !strings.Contains(strings.ToLower(mediaType), "html") {
			return nil, fmt.Errorf("フィードでもHTMLでもないコンテンツです: %s", sourceURL)
		}

		feedURL := findAlternateFeedURL(body, sourceURL)
		if feedURL == "" {
			return nil, fmt.Errorf("フィードリンクが検出できません: %s", sourceURL)
		}
		f.logger.Info("alternateリンクからフィードURLを検出しました",
			slog.String("source_url", sourceURL),
			slog.String("feed_url", feedURL),
		)

		body, _, err = f.get(ctx, feedURL)
		if err != nil {
			return nil, err
		}
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗しました: %w", err)
	}

	return f.convertItems(parsed), nil
}

// get はSSRF検証付きでURLをGETし、ボディとContent-Typeを返す。
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.ssrfGuard.ValidateURL(rawURL); err != nil {
		return nil, "", fmt.Errorf("SSRF検証に失敗しました: %w", err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Stryker/1.0 News Aggregator")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("予期しないHTTPステータス %d: %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("レスポンスの読み取りに失敗しました: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// convertItems はgofeedの記事をサニタイズ済みのNewsArticleに変換する。
// リンクのない記事はスキップする（source_urlが自然キーのため）。
func (f *Fetcher) convertItems(parsed *gofeed.Feed) []*model.NewsArticle {
	sourceName := parsed.Title
	now := f.now()

	articles := make([]*model.NewsArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Title == "" {
			continue
		}

		link := item.Link
		if link == "" && (strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			link = item.GUID
		}
		if link == "" {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		article := &model.NewsArticle{
			ID:          uuid.New().String(),
			Headline:    f.sanitizer.Sanitize(item.Title),
			Summary:     f.sanitizer.Sanitize(summary),
			SourceName:  sourceName,
			SourceURL:   link,
			PublishedAt: now,
			CreatedAt:   now,
		}

		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			article.PublishedAt = *item.UpdatedParsed
		}

		articles = append(articles, article)
	}
	return articles
}
