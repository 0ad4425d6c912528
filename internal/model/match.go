// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// MatchStatus は試合の進行状態を表す。
// 上流プロバイダーが返す自由形式の文字列をそのまま保持する。
type MatchStatus = string

const (
	// StatusNotStarted は開始前の試合を表す。
	StatusNotStarted MatchStatus = "NS"
	// StatusLive はライブ中の試合を表す。
	StatusLive MatchStatus = "Live"
	// StatusFirstInnings は第1イニングス進行中を表す。
	StatusFirstInnings MatchStatus = "1st Innings"
	// StatusSecondInnings は第2イニングス進行中を表す。
	StatusSecondInnings MatchStatus = "2nd Innings"
	// StatusInningsBreak はイニングス間の休憩を表す。
	StatusInningsBreak MatchStatus = "Innings Break"
	// StatusFinished は終了した試合を表す。
	StatusFinished MatchStatus = "Finished"
	// StatusAbandoned は中止された試合を表す。一覧ビューから除外される。
	StatusAbandoned MatchStatus = "Abandoned"
)

// liveStatuses はRedisのライブ状態を参照すべきステータスの集合。
var liveStatuses = map[string]struct{}{
	StatusLive:          {},
	StatusFirstInnings:  {},
	StatusSecondInnings: {},
	StatusInningsBreak:  {},
}

// IsLiveStatus はステータスがライブ系（キャッシュ参照対象）かを返す。
func IsLiveStatus(status string) bool {
	_, ok := liveStatuses[status]
	return ok
}

// Match は試合の永続レコードを表す。
// スケジュール同期が作成・更新し、ポーラーはstatusのみを書き換える。
// match_id（上流の自然キー）で一意。削除はされない。
type Match struct {
	ID        int64
	MatchID   string
	Title     string
	Status    string
	Type      string // "T20", "ODI" など
	StartTime time.Time

	// チーム・会場・リーグはスケジュール同期時点のスナップショットを
	// JSONのまま保持する（結合を避けるための非正規化）。
	League   json.RawMessage
	Venue    json.RawMessage
	HomeTeam json.RawMessage
	AwayTeam json.RawMessage

	// "150/3 (20.0)" 形式の確定スコア文字列。
	HomeScore string
	AwayScore string
	// "Stars won by 7 wickets" のような結果文。
	ResultNote    string
	HighlightsURL string

	UpdatedAt time.Time
}

// TeamSnapshot はMatchのJSONスナップショットに格納されるチーム情報。
type TeamSnapshot struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	ImagePath string `json:"image_path"`
}

// VenueSnapshot はMatchのJSONスナップショットに格納される会場情報。
type VenueSnapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// DecodeTeam はJSONスナップショットからTeamSnapshotを復元する。
// スナップショットが空または不正な場合はゼロ値を返す（読み取り側は失敗しない）。
func DecodeTeam(raw json.RawMessage) TeamSnapshot {
	var t TeamSnapshot
	if len(raw) == 0 {
		return t
	}
	_ = json.Unmarshal(raw, &t)
	return t
}

// DecodeVenue はJSONスナップショットからVenueSnapshotを復元する。
// スナップショットが空または不正な場合はゼロ値を返す。
func DecodeVenue(raw json.RawMessage) VenueSnapshot {
	var v VenueSnapshot
	if len(raw) == 0 {
		return v
	}
	_ = json.Unmarshal(raw, &v)
	return v
}
