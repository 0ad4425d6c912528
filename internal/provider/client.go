// Package provider は上流スコアプロバイダーへのアダプターを提供する。
// ワイヤフェッチとデシリアライズのみを責務とし、リトライ・バックオフ・
// キャッシュは行わない。失敗はUpstreamErrorとして呼び出し側に伝播する。
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// UpstreamError は上流プロバイダー呼び出しの失敗を表す。
// ネットワークエラー・タイムアウトの場合はErrに原因が入り、
// 非2xxレスポンスの場合はStatusCodeが設定される。
type UpstreamError struct {
	Op         string // "list_live", "fetch_detail", "fetch_fixtures"
	StatusCode int    // 非2xxの場合のみ設定
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

// Unwrap はerrors.Is/Asのために原因エラーを返す。
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamError はerrがUpstreamErrorかどうかを判定する。
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// UpstreamMetrics は上流レスポンスのステータスコードを記録するインターフェース。
type UpstreamMetrics interface {
	RecordUpstreamStatus(statusCode int)
}

// Client は上流スコアAPIのHTTPクライアント。
// シングルトンではなく、プロセス起動時に生成して依存として注入する。
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	metrics  UpstreamMetrics
}

// NewClient はClientを生成する。timeoutはリクエスト全体のタイムアウト。
func NewClient(baseURL, apiToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http:     &http.Client{Timeout: timeout},
	}
}

// SetMetrics は上流ステータスコードの記録先を設定する。
// 未設定の場合は記録しない。
func (c *Client) SetMetrics(m UpstreamMetrics) {
	c.metrics = m
}

// envelope は上流レスポンスの共通ラッパー（{"data": ...}）。
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// get は指定パスへGETリクエストを送り、dataフィールドを返す。
func (c *Client) get(ctx context.Context, op, path string, include string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("api_token", c.apiToken)
	if include != "" {
		q.Set("include", include)
	}

	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// ボディは読み捨てるが、コネクション再利用のためdrainする
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &UpstreamError{Op: op, Err: fmt.Errorf("レスポンスのデコードに失敗しました: %w", err)}
	}

	return env.Data, nil
}

// ListLiveMatches は現在ライブ中の試合一覧を取得する。
// 一覧ペイロードは軽量で、イニングス詳細は含まれない。
func (c *Client) ListLiveMatches(ctx context.Context) ([]RawFixture, error) {
	data, err := c.get(ctx, "list_live", "/livescores", "localteam,visitorteam")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var fixtures []RawFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, &UpstreamError{Op: "list_live", Err: fmt.Errorf("ライブ一覧のデコードに失敗しました: %w", err)}
	}
	return fixtures, nil
}

// FetchMatchDetail は1試合の完全な詳細（イニングス・会場込み）を取得する。
func (c *Client) FetchMatchDetail(ctx context.Context, matchID string) (*RawFixture, error) {
	data, err := c.get(ctx, "fetch_detail", "/fixtures/"+url.PathEscape(matchID), "localteam,visitorteam,runs,venue")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &UpstreamError{Op: "fetch_detail", Err: errors.New("レスポンスにdataフィールドがありません")}
	}

	var fixture RawFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, &UpstreamError{Op: "fetch_detail", Err: fmt.Errorf("試合詳細のデコードに失敗しました: %w", err)}
	}
	return &fixture, nil
}

// FetchFixtures はスケジュール同期用の試合一覧（スコア・リーグ込み）を取得する。
func (c *Client) FetchFixtures(ctx context.Context) ([]RawFixture, error) {
	data, err := c.get(ctx, "fetch_fixtures", "/fixtures", "localteam,visitorteam,runs,venue,league")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var fixtures []RawFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, &UpstreamError{Op: "fetch_fixtures", Err: fmt.Errorf("試合一覧のデコードに失敗しました: %w", err)}
	}
	return fixtures, nil
}
