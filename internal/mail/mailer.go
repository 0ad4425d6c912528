// Package mail はトランザクションメールの送信を提供する。
package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Mailer はメール送信のインターフェース。
type Mailer interface {
	// SendWelcome はウェイトリスト登録完了メールを送信する。
	SendWelcome(ctx context.Context, to string) error
}

// ResendMailer はResend APIを使うMailerの実装。
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer はResendMailerの新しいインスタンスを生成する。
// fromは "Stryker <onboarding@resend.dev>" のような表示名付きアドレス。
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// SendWelcome はウェイトリスト登録完了メールを送信する。
func (m *ResendMailer) SendWelcome(ctx context.Context, to string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "You're on the Stryker waitlist",
		Html: `<p>Thanks for signing up!</p>
<p>We'll let you know as soon as live scores, ball-by-ball events and match alerts are ready for you.</p>`,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("登録完了メールの送信に失敗しました: %w", err)
	}
	return nil
}

// NoopMailer は何も送信しないMailerの実装。
// APIキーが設定されていない環境で使う。
type NoopMailer struct{}

// SendWelcome は何もしない。
func (NoopMailer) SendWelcome(context.Context, string) error { return nil }
