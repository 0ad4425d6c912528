package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/stryker/livescore/internal/model"
)

// ニュース一覧の取得件数の制約。
const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	// ListLatest は公開日時の新しい順にニュース記事を返す。
	ListLatest(ctx context.Context, limit int) ([]*model.NewsArticle, error)
}

// NewsHandler はニュース記事のHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// newsArticleResponse はニュース記事のレスポンス。
type newsArticleResponse struct {
	ID          string    `json:"id"`
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	ImageURL    string    `json:"image_url,omitempty"`
	SourceName  string    `json:"source_name"`
	SourceURL   string    `json:"source_url"`
	MatchID     string    `json:"match_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// newsListResponse はニュース一覧のレスポンス。
type newsListResponse struct {
	Articles []newsArticleResponse `json:"articles"`
	Count    int                   `json:"count"`
}

// ListNews は最新ニュース記事の一覧を取得する。
// GET /api/v1/news?limit=20
func (h *NewsHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	limit := defaultNewsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > maxNewsLimit {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidLimitError(limitStr))
			return
		}
		limit = parsed
	}

	articles, err := h.service.ListLatest(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := newsListResponse{Articles: make([]newsArticleResponse, 0, len(articles))}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, newsArticleResponse{
			ID:          a.ID,
			Headline:    a.Headline,
			Summary:     a.Summary,
			ImageURL:    a.ImageURL,
			SourceName:  a.SourceName,
			SourceURL:   a.SourceURL,
			MatchID:     a.MatchID,
			PublishedAt: a.PublishedAt,
		})
	}
	resp.Count = len(resp.Articles)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
