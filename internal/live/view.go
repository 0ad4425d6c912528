package live

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stryker/livescore/internal/model"
)

// ViewMatchRepo はビュー構築が必要とする永続リポジトリのサブセット。
type ViewMatchRepo interface {
	FindByMatchID(ctx context.Context, matchID string) (*model.Match, error)
	ListInWindow(ctx context.Context, from, to time.Time, excludeStatus string) ([]*model.Match, error)
}

// ViewStateStore はビュー構築が必要とするキャッシュストアのサブセット。
type ViewStateStore interface {
	GetState(ctx context.Context, matchID string) (*model.LiveMatch, error)
	GetStates(ctx context.Context, matchIDs []string) (map[string]*model.LiveMatch, error)
	ListEvents(ctx context.Context, matchID string) ([]model.MatchEvent, error)
}

// ViewConfig はビュー構築の時間窓パラメータ。
type ViewConfig struct {
	// Lookback は一覧に含める過去方向の範囲。終了した試合の結果を
	// しばらく表示し続けるために使う。
	Lookback time.Duration
	// Lookahead は一覧に含める未来方向の範囲。
	Lookahead time.Duration
}

// DefaultViewConfig はデフォルトのビュー設定を返す。
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		Lookback:  24 * time.Hour,
		Lookahead: 36 * time.Hour,
	}
}

// ViewService は永続レコードとキャッシュのライブ状態をマージして
// 読み取り専用のスコアカードを構築する。カードはどこにも保存されない。
type ViewService struct {
	matchRepo ViewMatchRepo
	store     ViewStateStore
	config    ViewConfig

	// now はテストで時刻を固定するための関数。通常はtime.Now。
	now func() time.Time
}

// NewViewService はViewServiceの新しいインスタンスを生成する。
func NewViewService(matchRepo ViewMatchRepo, store ViewStateStore, config ViewConfig) *ViewService {
	return &ViewService{
		matchRepo: matchRepo,
		store:     store,
		config:    config,
		now:       time.Now,
	}
}

// BuildLiveScores は表示時間窓内の全試合のスコアカードを構築する。
// 中止された試合は除外する。ライブ系ステータスの試合はキャッシュの
// ライブ状態をマージし、キャッシュミスの場合は永続レコードの情報のみで
// カードを返す（エラーにしない）。
func (s *ViewService) BuildLiveScores(ctx context.Context) ([]model.LiveScoreCard, error) {
	now := s.now()
	from := now.Add(-s.config.Lookback)
	to := now.Add(s.config.Lookahead)

	matches, err := s.matchRepo.ListInWindow(ctx, from, to, model.StatusAbandoned)
	if err != nil {
		return nil, fmt.Errorf("表示対象の試合一覧の取得に失敗しました: %w", err)
	}

	// ライブ系の試合だけキャッシュをまとめて引く
	liveIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		if model.IsLiveStatus(m.Status) {
			liveIDs = append(liveIDs, m.MatchID)
		}
	}

	states := map[string]*model.LiveMatch{}
	if len(liveIDs) > 0 {
		states, err = s.store.GetStates(ctx, liveIDs)
		if err != nil {
			return nil, fmt.Errorf("ライブ状態の一括取得に失敗しました: %w", err)
		}
	}

	cards := make([]model.LiveScoreCard, 0, len(matches))
	for _, m := range matches {
		cards = append(cards, buildCard(m, states[m.MatchID]))
	}
	return cards, nil
}

// BuildLiveScore は1試合分のスコアカードを構築する。
// 試合が存在しない場合はnilを返す。
func (s *ViewService) BuildLiveScore(ctx context.Context, matchID string) (*model.LiveScoreCard, error) {
	m, err := s.matchRepo.FindByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("試合の取得に失敗しました: %w", err)
	}
	if m == nil {
		return nil, nil
	}

	var state *model.LiveMatch
	if model.IsLiveStatus(m.Status) {
		state, err = s.store.GetState(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("ライブ状態の取得に失敗しました: %w", err)
		}
	}

	card := buildCard(m, state)
	return &card, nil
}

// ListEvents は試合のイベントログを新しい順に返す。
func (s *ViewService) ListEvents(ctx context.Context, matchID string) ([]model.MatchEvent, error) {
	return s.store.ListEvents(ctx, matchID)
}

// buildCard は永続レコードとライブ状態（nil可）からカードを組み立てる。
// 純粋関数であり、同一入力に対して常に同一のカードを返す。
func buildCard(m *model.Match, state *model.LiveMatch) model.LiveScoreCard {
	home := model.DecodeTeam(m.HomeTeam)
	away := model.DecodeTeam(m.AwayTeam)
	venue := model.DecodeVenue(m.Venue)

	// カード上のステータスはライブ状態があればそちらを優先する
	// （永続側の同期はベストエフォートで遅れうる）
	status := m.Status
	if state != nil && state.Status != "" {
		status = state.Status
	}

	first, second := battingOrder(home, away, state)

	card := model.LiveScoreCard{
		MatchID:      m.MatchID,
		MatchStatus:  displayStatus(status),
		InningsPhase: inningsPhase(status, state),
		StartTime:    m.StartTime.UTC().Format(time.RFC3339),
		Teams: model.TeamsContainer{
			BattingFirst:  teamView(first),
			BattingSecond: teamView(second),
		},
		Venue: model.VenueView{
			ID:   venue.ID,
			Name: venue.Name,
			City: venue.City,
		},
	}

	// 結果欄: 終了後は確定の結果文、ライブ中は上流のコンテキスト文
	// （"Target 115 runs" のような追走情報）を表示する。
	if status == model.StatusFinished {
		card.Result = m.ResultNote
	} else if state != nil && model.IsLiveStatus(status) {
		card.Result = state.Note
	}

	if state != nil {
		card.Toss = model.TossView{
			WonByTeamID: state.TossWonTeamID,
			Elected:     state.TossElected,
		}
		card.Scores = liveScores(state, status)
		return card
	}

	// ライブ状態がない場合は永続レコードの確定スコアから復元する
	card.Scores = durableScores(m, first.ID, second.ID)
	return card
}

// battingOrder は打撃順にチームを並べる。ライブ状態の第1イニングスの
// チームIDが最優先、次にトス結果、どちらもなければホームチームを先とする。
func battingOrder(home, away model.TeamSnapshot, state *model.LiveMatch) (model.TeamSnapshot, model.TeamSnapshot) {
	firstID := home.ID

	if state != nil {
		if in := state.InningByNumber(1); in != nil && in.TeamID != 0 {
			firstID = in.TeamID
		} else if state.TossWonTeamID != 0 {
			switch state.TossElected {
			case "batting":
				firstID = state.TossWonTeamID
			case "bowling":
				if state.TossWonTeamID == home.ID {
					firstID = away.ID
				} else {
					firstID = home.ID
				}
			}
		}
	}

	if firstID == away.ID {
		return away, home
	}
	return home, away
}

// liveScores はライブ状態からスコア表示を組み立てる。
func liveScores(state *model.LiveMatch, status string) model.ScoresContainer {
	var scores model.ScoresContainer

	if in := state.InningByNumber(1); in != nil {
		scores.FirstInnings = &model.ScoreView{
			TeamID: in.TeamID,
			Score:  scoreLine(in.Runs, in.Wickets),
			Overs:  formatOvers(in.Overs),
		}
	}
	if in := state.InningByNumber(2); in != nil {
		scores.SecondInnings = &model.ScoreView{
			TeamID: in.TeamID,
			Score:  scoreLine(in.Runs, in.Wickets),
			Overs:  formatOvers(in.Overs),
		}
	}

	// ティッカーはライブ中のみ表示する
	if model.IsLiveStatus(status) {
		if cur := state.CurrentInning(); cur != nil {
			scores.Current = &model.CurrentView{
				BattingTeamID: cur.TeamID,
				Score:         scoreLine(cur.Runs, cur.Wickets),
				Overs:         formatOvers(cur.Overs),
			}
		}
	}
	return scores
}

// durableScores は永続レコードの確定スコア文字列からスコア表示を復元する。
// ホーム・アウェイの確定スコアを打撃順に割り当てる。
func durableScores(m *model.Match, firstID, secondID int64) model.ScoresContainer {
	var scores model.ScoresContainer

	home := model.DecodeTeam(m.HomeTeam)
	homeScore, awayScore := m.HomeScore, m.AwayScore
	if firstID != home.ID {
		homeScore, awayScore = awayScore, homeScore
	}

	if line, overs, ok := splitScore(homeScore); ok {
		scores.FirstInnings = &model.ScoreView{TeamID: firstID, Score: line, Overs: overs}
	}
	if line, overs, ok := splitScore(awayScore); ok {
		scores.SecondInnings = &model.ScoreView{TeamID: secondID, Score: line, Overs: overs}
	}
	return scores
}

// displayStatus は上流の自由形式ステータスをカード表示用の
// 正規化ラベルに変換する。
func displayStatus(status string) string {
	switch {
	case model.IsLiveStatus(status):
		return "LIVE"
	case status == model.StatusFinished:
		return "FINISHED"
	case status == model.StatusAbandoned:
		return "ABANDONED"
	case status == model.StatusNotStarted, status == "":
		return "NS"
	default:
		return strings.ToUpper(status)
	}
}

// inningsPhase はステータスとライブ状態から試合フェーズを導出する。
func inningsPhase(status string, state *model.LiveMatch) model.InningsPhase {
	switch {
	case status == model.StatusFinished:
		return model.PhaseCompleted
	case model.IsLiveStatus(status):
		if state != nil && len(state.Innings) >= 2 {
			return model.PhaseSecond
		}
		return model.PhaseFirst
	default:
		return model.PhaseNotStarted
	}
}

func teamView(t model.TeamSnapshot) model.TeamView {
	return model.TeamView{
		ID:        t.ID,
		Name:      t.Name,
		ShortName: t.Code,
		Logo:      t.ImagePath,
	}
}

// scoreLine は "145/3" 形式のスコア文字列を組み立てる。
func scoreLine(runs, wickets int) string {
	return fmt.Sprintf("%d/%d", runs, wickets)
}

// formatOvers はオーバー数を小数第1位までの文字列にする。
func formatOvers(overs float64) string {
	return strconv.FormatFloat(overs, 'f', 1, 64)
}

// splitScore は "150/3 (20.0)" 形式の確定スコア文字列を
// スコア部とオーバー部に分解する。形式が合わない場合はok=falseを返す。
func splitScore(s string) (line, overs string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}

	open := strings.Index(s, "(")
	if open < 0 {
		// オーバー部のない "150/3" だけでも受け付ける
		return s, "", true
	}
	end := strings.Index(s[open:], ")")
	if end < 0 {
		return "", "", false
	}

	line = strings.TrimSpace(s[:open])
	overs = strings.TrimSpace(s[open+1 : open+end])
	if line == "" {
		return "", "", false
	}
	return line, overs, true
}
