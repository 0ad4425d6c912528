// Package model はドメインモデルを定義する。
package model

import "time"

// InningScore は1イニングスのスコア進行を表す。
type InningScore struct {
	Inning  int     `json:"inning"` // 1 or 2
	TeamID  int64   `json:"team_id"`
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   float64 `json:"overs"`
}

// LiveMatch は1試合の正規化済みライブ状態を表す。
// キャッシュ常駐のエフェメラルな状態で、ポーリングごとに上書きされる。
// Inningsはライブ中は追記のみで、確立済みイニングス内のRunsは
// 減少しない（新イニングス開始時の0リセットを除く）。
type LiveMatch struct {
	MatchID string `json:"match_id"`
	Status  string `json:"status"` // "Live", "2nd Innings", "Finished" など
	Note    string `json:"note"`   // "Target 115 runs" のようなコンテキスト文

	// 全イニングスを保持することで第1イニングスのスコアも参照できる。
	Innings []InningScore `json:"innings"`

	TossWonTeamID int64  `json:"toss_won_team_id,omitempty"`
	TossElected   string `json:"toss_elected,omitempty"` // "batting" or "bowling"

	// 最新のイニングスエントリに対応するチーム。
	CurrentBattingTeamID int64 `json:"current_batting_team_id,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// CurrentInning は最新のイニングスエントリを返す。
// イニングスが存在しない場合はnilを返す。
func (m *LiveMatch) CurrentInning() *InningScore {
	if len(m.Innings) == 0 {
		return nil
	}
	return &m.Innings[len(m.Innings)-1]
}

// InningByNumber は指定番号のイニングスエントリを返す。
// 見つからない場合はnilを返す。
func (m *LiveMatch) InningByNumber(inning int) *InningScore {
	for i := range m.Innings {
		if m.Innings[i].Inning == inning {
			return &m.Innings[i]
		}
	}
	return nil
}
