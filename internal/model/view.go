// Package model はドメインモデルを定義する。
package model

// InningsPhase はライブスコアカード上の試合フェーズを表す。
type InningsPhase string

const (
	// PhaseNotStarted は開始前を表す。
	PhaseNotStarted InningsPhase = "NS"
	// PhaseFirst は第1イニングス進行中を表す。
	PhaseFirst InningsPhase = "FIRST"
	// PhaseSecond は第2イニングス進行中を表す。
	PhaseSecond InningsPhase = "SECOND"
	// PhaseCompleted は試合終了を表す。
	PhaseCompleted InningsPhase = "COMPLETED"
)

// TeamView はスコアカード上のチーム表示情報。
type TeamView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Logo      string `json:"logo"`
}

// ScoreView は1イニングスの整形済みスコア表示。
type ScoreView struct {
	TeamID int64  `json:"team_id"`
	Score  string `json:"score"` // "145/3" 形式
	Overs  string `json:"overs"` // "17.3" 形式
}

// CurrentView は現在打撃中のイニングスのティッカー表示。
type CurrentView struct {
	BattingTeamID int64  `json:"batting_team_id"`
	Score         string `json:"score"`
	Overs         string `json:"overs"`
}

// TossView はトス結果の表示情報。
type TossView struct {
	WonByTeamID int64  `json:"won_by_team_id,omitempty"`
	Elected     string `json:"elected,omitempty"`
}

// VenueView は会場の表示情報。
type VenueView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// TeamsContainer は両チームの表示情報をまとめる。
type TeamsContainer struct {
	BattingFirst  TeamView `json:"batting_first"`
	BattingSecond TeamView `json:"batting_second"`
}

// ScoresContainer は各イニングスのスコア表示をまとめる。
// 未開始の試合ではすべてnilのまま返される。
type ScoresContainer struct {
	FirstInnings  *ScoreView   `json:"first_innings,omitempty"`
	SecondInnings *ScoreView   `json:"second_innings,omitempty"`
	Current       *CurrentView `json:"current,omitempty"`
}

// LiveScoreCard は永続レコードとライブ状態をマージした
// 読み取り専用のスコアカード。どこにも永続化されない派生ビュー。
type LiveScoreCard struct {
	MatchID      string          `json:"match_id"`
	MatchStatus  string          `json:"match_status"` // "LIVE", "FINISHED", "NS" など大文字
	InningsPhase InningsPhase    `json:"innings_phase"`
	StartTime    string          `json:"start_time"`
	Result       string          `json:"result,omitempty"`
	Teams        TeamsContainer  `json:"teams"`
	Scores       ScoresContainer `json:"scores"`
	Toss         TossView        `json:"toss"`
	Venue        VenueView       `json:"venue"`
}
