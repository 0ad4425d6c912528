package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/stryker/livescore/internal/live"
	"github.com/stryker/livescore/internal/model"
	"github.com/stryker/livescore/internal/provider"
)

// FixtureProvider はスケジュール同期が必要とする上流プロバイダーの
// インターフェース。
type FixtureProvider interface {
	FetchFixtures(ctx context.Context) ([]provider.RawFixture, error)
}

// MatchWriter はスケジュール同期が必要とするリポジトリのサブセット。
type MatchWriter interface {
	UpsertAll(ctx context.Context, matches []*model.Match) error
}

// Syncer は上流のスケジュールを永続レコードに同期するバッチジョブ。
// match_idをキーにUPSERTするため何度実行しても冪等で、試合の削除は
// 行わない（上流から消えた試合も履歴として残す）。
type Syncer struct {
	provider FixtureProvider
	repo     MatchWriter
	logger   *slog.Logger

	// now はテストで時刻を固定するための関数。通常はtime.Now。
	now func() time.Time
}

// NewSyncer はSyncerの新しいインスタンスを生成する。
func NewSyncer(p FixtureProvider, repo MatchWriter, logger *slog.Logger) *Syncer {
	return &Syncer{
		provider: p,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}

// Start は固定間隔のティッカーで同期ジョブを起動する。
func (s *Syncer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("スケジュール同期を開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("スケジュール同期の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("スケジュール同期を停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("スケジュール同期の実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回の同期を実行する。上流から全試合を取得し、
// 永続レコードに変換して一括UPSERTする。
func (s *Syncer) RunOnce(ctx context.Context) error {
	fixtures, err := s.provider.FetchFixtures(ctx)
	if err != nil {
		return fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	if len(fixtures) == 0 {
		s.logger.Info("同期対象の試合がありません")
		return nil
	}

	now := s.now()
	matches := make([]*model.Match, 0, len(fixtures))
	for i := range fixtures {
		m, err := buildMatch(&fixtures[i], now)
		if err != nil {
			s.logger.Warn("試合レコードの変換に失敗したためスキップします",
				slog.Int64("fixture_id", fixtures[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		matches = append(matches, m)
	}

	if err := s.repo.UpsertAll(ctx, matches); err != nil {
		return fmt.Errorf("試合レコードの一括UPSERTに失敗しました: %w", err)
	}

	s.logger.Info("スケジュール同期が完了しました",
		slog.Int("match_count", len(matches)),
	)
	return nil
}

// buildMatch は上流の生試合データを永続レコードに変換する。
// IDのない試合はエラーとする。それ以外の欠落フィールドは
// 安全なデフォルトで埋める。
func buildMatch(raw *provider.RawFixture, now time.Time) (*model.Match, error) {
	if raw.ID == 0 {
		return nil, fmt.Errorf("試合IDがありません")
	}

	home := live.NormalizeTeam(raw.LocalTeam)
	away := live.NormalizeTeam(raw.VisitorTeam)

	m := &model.Match{
		MatchID:   strconv.FormatInt(raw.ID, 10),
		Title:     home.Name + " vs " + away.Name,
		Status:    raw.Status,
		Type:      raw.Type,
		UpdatedAt: now,
	}
	if m.Status == "" {
		m.Status = model.StatusNotStarted
	}

	if t, err := parseStartingAt(raw.StartingAt); err == nil {
		m.StartTime = t
	}

	m.HomeTeam = mustJSON(home)
	m.AwayTeam = mustJSON(away)
	if raw.Venue != nil {
		m.Venue = mustJSON(model.VenueSnapshot{
			ID:   raw.Venue.ID,
			Name: raw.Venue.Name,
			City: raw.Venue.City,
		})
	}
	if raw.League != nil {
		m.League = mustJSON(raw.League)
	}

	applyScores(m, raw, home, away)
	return m, nil
}

// applyScores は確定スコア文字列と結果文を試合レコードに反映する。
func applyScores(m *model.Match, raw *provider.RawFixture, home, away model.TeamSnapshot) {
	state := live.NormalizeLiveMatch(raw, m.UpdatedAt)

	var homeIn, awayIn *model.InningScore
	for i := range state.Innings {
		in := &state.Innings[i]
		switch in.TeamID {
		case home.ID:
			homeIn = in
		case away.ID:
			awayIn = in
		}
	}

	if homeIn != nil {
		m.HomeScore = formatScore(homeIn.Runs, homeIn.Wickets, homeIn.Overs)
	}
	if awayIn != nil {
		m.AwayScore = formatScore(awayIn.Runs, awayIn.Wickets, awayIn.Overs)
	}

	if m.Status != model.StatusFinished {
		return
	}

	// 結果文は先攻・後攻の順で組み立てる
	first := state.InningByNumber(1)
	second := state.InningByNumber(2)
	firstName, secondName := home.Name, away.Name
	if first != nil && first.TeamID == away.ID {
		firstName, secondName = away.Name, home.Name
	}
	m.ResultNote = calculateResult(first, second, firstName, secondName)
}

// parseStartingAt は上流の開始時刻文字列をパースする。
// RFC3339と "2006-01-02T15:04:05" の両形式を受け付ける。
func parseStartingAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("開始時刻がありません")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// mustJSON はスナップショットをJSONエンコードする。
// 入力は自前の構造体のみでエンコードは失敗しない。
func mustJSON(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
