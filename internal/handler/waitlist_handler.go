package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stryker/livescore/internal/model"
)

// WaitlistServiceInterface はウェイトリストハンドラーが必要とするサービスインターフェース。
type WaitlistServiceInterface interface {
	// Signup はメールアドレスをウェイトリストに登録する。
	Signup(ctx context.Context, email string) (*model.EmailSignup, error)
}

// WaitlistHandler はウェイトリスト登録のHTTPハンドラー。
type WaitlistHandler struct {
	service WaitlistServiceInterface
}

// NewWaitlistHandler はWaitlistHandlerを生成する。
func NewWaitlistHandler(service WaitlistServiceInterface) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

// signupRequest はウェイトリスト登録リクエストのボディ。
type signupRequest struct {
	Email string `json:"email"`
}

// signupResponse はウェイトリスト登録のレスポンス。
type signupResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Signup はメールアドレスをウェイトリストに登録する。
// POST /api/v1/waitlist
func (h *WaitlistHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの形式が正しくありません。",
			Category: "validation",
			Action:   "JSONで {\"email\": \"...\"} を送信してください。",
		})
		return
	}

	signup, err := h.service.Signup(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(signupResponse{
		ID:        signup.ID,
		Email:     signup.Email,
		CreatedAt: signup.CreatedAt,
	})
}
