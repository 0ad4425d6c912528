// Package model はドメインモデルを定義する。
package model

import "time"

// EventType は差分検出が発行するイベントの種別を表す。
type EventType string

const (
	// EventWicket はウィケット（打者アウト）を表す。
	EventWicket EventType = "WICKET"
	// EventFour は4点のバウンダリーを表す。
	EventFour EventType = "FOUR"
	// EventSix は6点のバウンダリーを表す。
	EventSix EventType = "SIX"
	// EventOverEnd はオーバー完了を表す。
	EventOverEnd EventType = "OVER_END"
	// EventInningsChange はイニングス交代を表す。
	EventInningsChange EventType = "INNINGS_CHANGE"
	// EventMatchEnd は試合終了を表す。
	EventMatchEnd EventType = "MATCH_END"
)

// MatchEvent は連続する2つのライブ状態の比較から検出された
// 意味的な変化を表す。差分検出のみが生成し、生成後は不変。
// 試合ごとの上限付きログに追記されるだけのサイドチャネルで、
// 状態の再構築には使われない。
type MatchEvent struct {
	MatchID     string    `json:"match_id"`
	Type        EventType `json:"event_type"`
	Description string    `json:"description"`
	Inning      int       `json:"inning"`
	Over        float64   `json:"over"` // 検出時点のオーバー
	Timestamp   time.Time `json:"timestamp"`
}
