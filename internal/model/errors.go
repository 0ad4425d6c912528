// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, match, news, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMatchNotFound    = "MATCH_NOT_FOUND"
	ErrCodeLiveDataNotFound = "LIVE_DATA_NOT_FOUND"
	ErrCodeInvalidEmail     = "INVALID_EMAIL"
	ErrCodeDuplicateSignup  = "DUPLICATE_SIGNUP"
	ErrCodeInvalidLimit     = "INVALID_LIMIT"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
)

// NewMatchNotFoundError は試合未検出エラーを生成する。
func NewMatchNotFoundError(matchID string) *APIError {
	return &APIError{
		Code:     ErrCodeMatchNotFound,
		Message:  fmt.Sprintf("指定された試合が見つかりません: %s", matchID),
		Category: "match",
		Action:   "試合IDを確認してください。",
	}
}

// NewLiveDataNotFoundError はライブ状態未検出エラーを生成する。
// キャッシュキーの失効は異常系ではないため、ハンドラーは404で返す。
func NewLiveDataNotFoundError(matchID string) *APIError {
	return &APIError{
		Code:     ErrCodeLiveDataNotFound,
		Message:  fmt.Sprintf("試合のライブ情報は現在ありません: %s", matchID),
		Category: "match",
		Action:   "試合がライブ中かどうか確認してください。",
	}
}

// NewInvalidEmailError は無効なメールアドレスエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "user@example.com のような形式で入力してください。",
	}
}

// NewDuplicateSignupError は重複登録エラーを生成する。
func NewDuplicateSignupError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSignup,
		Message:  "このメールアドレスは既にウェイトリストに登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスで登録してください。",
	}
}

// NewInvalidLimitError は無効な件数指定エラーを生成する。
func NewInvalidLimitError(limit string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLimit,
		Message:  fmt.Sprintf("無効な件数指定です: %s", limit),
		Category: "validation",
		Action:   "limitには1以上100以下の整数を指定してください。",
	}
}

// NewUpstreamFailedError は上流プロバイダー障害エラーを生成する。
func NewUpstreamFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  "上流プロバイダーからのデータ取得に失敗しました。",
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
