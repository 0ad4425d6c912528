package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/stryker/livescore/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反エラーコード。
const uniqueViolation = "23505"

// PostgresSignupRepo はPostgreSQLを使用したウェイトリスト登録リポジトリ。
type PostgresSignupRepo struct {
	db *sql.DB
}

// NewPostgresSignupRepo はPostgresSignupRepoを生成する。
func NewPostgresSignupRepo(db *sql.DB) *PostgresSignupRepo {
	return &PostgresSignupRepo{db: db}
}

// Create は登録を作成する。メールアドレスが重複している場合はErrDuplicateEmailを返す。
func (r *PostgresSignupRepo) Create(ctx context.Context, signup *model.EmailSignup) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_signups (id, email, created_at) VALUES ($1, $2, $3)`,
		signup.ID, signup.Email, signup.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("ウェイトリスト登録の作成に失敗しました: %w", err)
	}
	return nil
}
