package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stryker/livescore/internal/model"
)

// mockWaitlistService はWaitlistServiceInterfaceのモック実装。
type mockWaitlistService struct {
	signup   *model.EmailSignup
	err      error
	gotEmail string
}

func (m *mockWaitlistService) Signup(ctx context.Context, email string) (*model.EmailSignup, error) {
	m.gotEmail = email
	if m.err != nil {
		return nil, m.err
	}
	return m.signup, nil
}

func doSignupRequest(h *WaitlistHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Signup(w, req)
	return w
}

func TestSignup_Success_Returns201(t *testing.T) {
	service := &mockWaitlistService{
		signup: &model.EmailSignup{
			ID:        "a3a41183-7be9-47a1-b2d3-0f4a5c8d9e01",
			Email:     "fan@example.com",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	h := NewWaitlistHandler(service)

	w := doSignupRequest(h, `{"email": "Fan@Example.com"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if service.gotEmail != "Fan@Example.com" {
		t.Errorf("email passed to service = %q", service.gotEmail)
	}

	var resp signupResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Email != "fan@example.com" {
		t.Errorf("email = %q, want fan@example.com", resp.Email)
	}
	if resp.ID == "" {
		t.Error("id should not be empty")
	}
}

func TestSignup_MalformedBody_Returns400(t *testing.T) {
	h := NewWaitlistHandler(&mockWaitlistService{})

	w := doSignupRequest(h, `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != "INVALID_REQUEST" {
		t.Errorf("code = %q, want INVALID_REQUEST", body.Code)
	}
}

func TestSignup_InvalidEmail_Returns400(t *testing.T) {
	h := NewWaitlistHandler(&mockWaitlistService{err: model.NewInvalidEmailError()})

	w := doSignupRequest(h, `{"email": "not-an-email"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != model.ErrCodeInvalidEmail {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidEmail)
	}
}

func TestSignup_Duplicate_Returns409(t *testing.T) {
	h := NewWaitlistHandler(&mockWaitlistService{err: model.NewDuplicateSignupError()})

	w := doSignupRequest(h, `{"email": "fan@example.com"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != model.ErrCodeDuplicateSignup {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeDuplicateSignup)
	}
}
