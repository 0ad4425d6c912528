// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stryker/livescore/internal/model"
)

// MatchViewServiceInterface は試合ハンドラーが必要とするサービスインターフェース。
type MatchViewServiceInterface interface {
	// BuildLiveScores は表示ウィンドウ内の全試合のスコアカードを返す。
	BuildLiveScores(ctx context.Context) ([]model.LiveScoreCard, error)
	// BuildLiveScore は単一試合のスコアカードを返す。試合が存在しない場合はnilを返す。
	BuildLiveScore(ctx context.Context, matchID string) (*model.LiveScoreCard, error)
	// ListEvents は試合のイベントログを新しい順に返す。
	ListEvents(ctx context.Context, matchID string) ([]model.MatchEvent, error)
}

// MatchHandler はライブスコア閲覧のHTTPハンドラー。
type MatchHandler struct {
	service MatchViewServiceInterface
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service MatchViewServiceInterface) *MatchHandler {
	return &MatchHandler{service: service}
}

// --- レスポンス型 ---

// liveScoresResponse はスコアカード一覧のレスポンス。
type liveScoresResponse struct {
	Matches []model.LiveScoreCard `json:"matches"`
	Count   int                   `json:"count"`
}

// matchEventsResponse は試合イベントログのレスポンス。
type matchEventsResponse struct {
	MatchID string             `json:"match_id"`
	Events  []model.MatchEvent `json:"events"`
}

// ListLiveScores は表示ウィンドウ内の全試合のスコアカード一覧を取得する。
// GET /api/v1/matches/live
func (h *MatchHandler) ListLiveScores(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.BuildLiveScores(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if cards == nil {
		cards = []model.LiveScoreCard{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(liveScoresResponse{
		Matches: cards,
		Count:   len(cards),
	})
}

// GetLiveScore は単一試合のスコアカードを取得する。
// GET /api/v1/matches/:id/live
func (h *MatchHandler) GetLiveScore(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "id")

	card, err := h.service.BuildLiveScore(r.Context(), matchID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if card == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMatchNotFoundError(matchID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(card)
}

// ListEvents は試合のイベントログを取得する。
// ログキーの失効は異常系ではないため、空のリストを200で返す。
// GET /api/v1/matches/:id/events
func (h *MatchHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "id")

	events, err := h.service.ListEvents(r.Context(), matchID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if events == nil {
		events = []model.MatchEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(matchEventsResponse{
		MatchID: matchID,
		Events:  events,
	})
}

// --- 共通エラーハンドリング ---

// apiErrorResponse はAPIエラーレスポンスのボディ。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMatchNotFound, model.ErrCodeLiveDataNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidEmail, model.ErrCodeInvalidLimit:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateSignup:
		return http.StatusConflict
	case model.ErrCodeUpstreamFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
