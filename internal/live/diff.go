package live

import (
	"fmt"

	"github.com/stryker/livescore/internal/model"
)

// DetectChanges は連続する2つのライブ状態を比較し、検出した意味的な
// 変化をイベントのリストとして返す。1回のポーリングで複数の変化が
// 同時に起きうる（例: シックスとオーバー完了）ため、リストで返す。
//
// 比較は最新イニングスと、旧状態の同じイニングス番号のエントリの
// ペアに限定する。旧状態に同じ番号のエントリがない（新しいイニングスが
// 始まった直後の）場合は、0リセットとの比較で偽の差分を出さないよう
// このティックの検出をすべて抑制する。
func DetectChanges(old, new *model.LiveMatch) []model.MatchEvent {
	// 初回観測ではベースラインがないため差分は推定できない
	if old == nil {
		return nil
	}

	cur := new.CurrentInning()
	if cur == nil {
		return nil
	}

	prev := old.InningByNumber(cur.Inning)
	if prev == nil {
		// イニングス境界をまたいだ比較は抑制する
		return nil
	}

	var events []model.MatchEvent
	emit := func(t model.EventType, description string) {
		events = append(events, model.MatchEvent{
			MatchID:     new.MatchID,
			Type:        t,
			Description: description,
			Inning:      cur.Inning,
			Over:        cur.Overs,
			Timestamp:   new.LastUpdated,
		})
	}

	if cur.Wickets > prev.Wickets {
		fallen := cur.Wickets - prev.Wickets
		emit(model.EventWicket, fmt.Sprintf("%d Wicket(s) fallen!", fallen))
	}

	switch cur.Runs - prev.Runs {
	case 4:
		emit(model.EventFour, "FOUR runs!")
	case 6:
		emit(model.EventSix, "SIX runs!")
	}

	if int(cur.Overs) > int(prev.Overs) {
		emit(model.EventOverEnd, fmt.Sprintf("End of Over %d", int(prev.Overs)+1))
	}

	return events
}
