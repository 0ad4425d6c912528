// Package model はドメインモデルを定義する。
package model

import "time"

// EmailSignup はウェイトリストへの登録を表す。emailで一意。
type EmailSignup struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
