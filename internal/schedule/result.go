// Package schedule は上流スケジュールと永続レコードの同期を提供する。
package schedule

import (
	"fmt"

	"github.com/stryker/livescore/internal/model"
)

// formatScore は確定スコアを "150/3 (20.0)" 形式に整形する。
func formatScore(runs, wickets int, overs float64) string {
	return fmt.Sprintf("%d/%d (%.1f)", runs, wickets, overs)
}

// calculateResult は終了した試合の結果文を組み立てる。
// 先攻チームのスコアが上なら「Xがnラン差で勝利」、後攻チームが上回れば
// 「Yが(10-ウィケット)ウィケット差で勝利」、同点なら引き分けとなる。
// イニングスが2つ揃っていない場合は空文字を返す。
func calculateResult(first, second *model.InningScore, firstName, secondName string) string {
	if first == nil || second == nil {
		return ""
	}

	switch {
	case first.Runs > second.Runs:
		return fmt.Sprintf("%s won by %d runs", firstName, first.Runs-second.Runs)
	case second.Runs > first.Runs:
		return fmt.Sprintf("%s won by %d wickets", secondName, 10-second.Wickets)
	default:
		return "Match Tied"
	}
}
