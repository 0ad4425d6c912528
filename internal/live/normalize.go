// Package live はライブ状態の集約パイプラインを提供する。
// 正規化、差分検出、ポーリングオーケストレーション、読み取り側の
// マージビュー構築を含む。
package live

import (
	"strconv"
	"time"

	"github.com/stryker/livescore/internal/model"
	"github.com/stryker/livescore/internal/provider"
)

// NormalizeLiveMatch は上流の生ペイロードを正規化済みライブ状態に変換する。
// 欠落フィールドは安全なデフォルトに置き換え、1試合の欠落のために
// ポーリングサイクル全体を失敗させない。同一入力に対して常に同一の
// 状態を返す（nowは呼び出し側が与える）。
func NormalizeLiveMatch(raw *provider.RawFixture, now time.Time) *model.LiveMatch {
	state := &model.LiveMatch{
		MatchID:     strconv.FormatInt(raw.ID, 10),
		Status:      raw.Status,
		Note:        raw.Note,
		LastUpdated: now,
	}
	if state.Status == "" {
		state.Status = "Unknown"
	}

	// イニングスはプロバイダーの時系列順をそのまま保持する。
	// inning番号が欠落している場合は出現順から補完する。
	state.Innings = make([]model.InningScore, 0, len(raw.Runs))
	for i, r := range raw.Runs {
		inning := r.Inning
		if inning == 0 {
			inning = i + 1
		}
		state.Innings = append(state.Innings, model.InningScore{
			Inning:  inning,
			TeamID:  r.TeamID,
			Runs:    r.Score,
			Wickets: r.Wickets,
			Overs:   r.Overs.Float64(),
		})
	}

	// 現在打撃中のチーム＝最後のイニングスエントリのチーム。
	// プロバイダーは時系列順に並べるため、末尾が進行中のイニングスになる。
	if cur := state.CurrentInning(); cur != nil {
		state.CurrentBattingTeamID = cur.TeamID
	}

	if raw.TossWon != nil {
		state.TossWonTeamID = raw.TossWon.ID
		state.TossElected = raw.Elected
	}

	return state
}

// NormalizeTeam は生チームオブジェクトを表示用スナップショットに変換する。
// nilの場合はID 0・プレースホルダー名のチームを返す。
func NormalizeTeam(raw *provider.RawTeam) model.TeamSnapshot {
	if raw == nil {
		return model.TeamSnapshot{Name: "Unknown"}
	}
	name := raw.Name
	if name == "" {
		name = "Unknown"
	}
	return model.TeamSnapshot{
		ID:        raw.ID,
		Name:      name,
		Code:      raw.Code,
		ImagePath: raw.ImagePath,
	}
}
