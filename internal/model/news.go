// Package model はドメインモデルを定義する。
package model

import "time"

// NewsArticle は取り込んだニュース記事を表す。
// source_urlとの組で一意になり、再取り込み時はUPSERTされる。
type NewsArticle struct {
	ID          string
	Headline    string
	Summary     string // サニタイズ済み
	ImageURL    string
	SourceName  string
	SourceURL   string // 記事リンク（自然キー）
	MatchID     string // 関連試合が特定できた場合のみ
	PublishedAt time.Time
	CreatedAt   time.Time
}
