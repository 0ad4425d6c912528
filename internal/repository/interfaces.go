// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stryker/livescore/internal/model"
)

// ErrDuplicateEmail は一意制約違反（メールアドレス重複）を表す。
var ErrDuplicateEmail = errors.New("email already registered")

// MatchRepository は試合の永続レコードのリポジトリインターフェース。
type MatchRepository interface {
	// FindByMatchID は自然キーmatch_idで試合を取得する。見つからない場合はnilを返す。
	FindByMatchID(ctx context.Context, matchID string) (*model.Match, error)

	// Upsert はmatch_idをキーに試合レコードを作成または更新する。冪等。
	Upsert(ctx context.Context, m *model.Match) error

	// UpsertAll は複数の試合レコードを同一トランザクションでUPSERTする。
	// 途中で失敗した場合は全体をロールバックする（部分コミットを避ける）。
	UpsertAll(ctx context.Context, matches []*model.Match) error

	// UpdateStatus は指定試合のstatusフィールドのみを更新する。
	// ポーラーがステータス遷移を検出したときに呼ばれる唯一の書き込み。
	UpdateStatus(ctx context.Context, matchID, status string) error

	// ListInWindow はstart_timeが[from, to]に収まる試合を取得する。
	// excludeStatusに一致するステータスの試合は除外し、start_time昇順で返す。
	ListInWindow(ctx context.Context, from, to time.Time, excludeStatus string) ([]*model.Match, error)
}

// NewsRepository はニュース記事のリポジトリインターフェース。
type NewsRepository interface {
	// Upsert はsource_urlをキーに記事を作成または更新する。冪等。
	Upsert(ctx context.Context, article *model.NewsArticle) error

	// ListLatest は公開日時の新しい順に記事を取得する。
	ListLatest(ctx context.Context, limit int) ([]*model.NewsArticle, error)
}

// SignupRepository はウェイトリスト登録のリポジトリインターフェース。
type SignupRepository interface {
	// Create は登録を作成する。メールアドレスが重複している場合は
	// ErrDuplicateEmailを返す。
	Create(ctx context.Context, signup *model.EmailSignup) error
}
