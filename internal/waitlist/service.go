// Package waitlist はウェイトリスト登録のドメインロジックを提供する。
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	mailclient "github.com/stryker/livescore/internal/mail"
	"github.com/stryker/livescore/internal/model"
	"github.com/stryker/livescore/internal/repository"
)

// Service はウェイトリスト登録のサービス層。
// バリデーション → 保存 → 登録完了メール送信のフローを統括する。
type Service struct {
	repo   repository.SignupRepository
	mailer mailclient.Mailer
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.SignupRepository, mailer mailclient.Mailer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		logger: logger,
	}
}

// Signup はメールアドレスをウェイトリストに登録する。
// 形式が無効な場合はINVALID_EMAIL、重複の場合はDUPLICATE_SIGNUPを返す。
// 登録完了メールの送信はベストエフォートで、失敗しても登録は成功扱い。
func (s *Service) Signup(ctx context.Context, email string) (*model.EmailSignup, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, model.NewInvalidEmailError()
	}

	signup := &model.EmailSignup{
		ID:        uuid.New().String(),
		Email:     normalized,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, signup); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateSignupError()
		}
		return nil, fmt.Errorf("ウェイトリスト登録の保存に失敗しました: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, normalized); err != nil {
		s.logger.Warn("登録完了メールの送信に失敗しました",
			slog.String("signup_id", signup.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("ウェイトリストに登録しました",
		slog.String("signup_id", signup.ID),
	)
	return signup, nil
}

// normalizeEmail はメールアドレスを検証し、小文字に正規化して返す。
func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", fmt.Errorf("メールアドレスが空です")
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("メールアドレスの形式が不正です: %w", err)
	}
	// 表示名付き（"Name <a@b>"）は受け付けない
	if addr.Address != trimmed {
		return "", fmt.Errorf("メールアドレスの形式が不正です")
	}
	return strings.ToLower(addr.Address), nil
}
