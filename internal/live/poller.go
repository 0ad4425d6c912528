package live

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/stryker/livescore/internal/model"
	"github.com/stryker/livescore/internal/provider"
)

// ScoreProvider はポーラーが必要とする上流プロバイダーのインターフェース。
type ScoreProvider interface {
	// ListLiveMatches は現在ライブ中の試合一覧を取得する。
	ListLiveMatches(ctx context.Context) ([]provider.RawFixture, error)
	// FetchMatchDetail は1試合の完全な詳細を取得する。
	FetchMatchDetail(ctx context.Context, matchID string) (*provider.RawFixture, error)
}

// LiveStateStore はポーラーが必要とするキャッシュストアのインターフェース。
type LiveStateStore interface {
	GetState(ctx context.Context, matchID string) (*model.LiveMatch, error)
	SetState(ctx context.Context, matchID string, state *model.LiveMatch, ttl time.Duration) error
	AppendEvents(ctx context.Context, matchID string, events []model.MatchEvent, ttl time.Duration, capacity int) error
	SetActiveIDs(ctx context.Context, ids []string, ttl time.Duration) error
}

// StatusSyncRepo はポーラーが永続レコードのステータス同期に使う
// リポジトリのサブセット。
type StatusSyncRepo interface {
	FindByMatchID(ctx context.Context, matchID string) (*model.Match, error)
	UpdateStatus(ctx context.Context, matchID, status string) error
}

// PollMetrics はポーリングサイクルのメトリクス収集インターフェース。
type PollMetrics interface {
	RecordPollCycle(duration time.Duration, matchCount int)
	RecordPollFailure()
	RecordMatchFailure(matchID string)
	RecordEventsEmitted(count int)
	RecordStatusSync(matchID string)
}

// PollerConfig はポーラーのTTL・容量パラメータ。
type PollerConfig struct {
	// LiveStateTTL はライブ中の状態キーのTTL。
	LiveStateTTL time.Duration
	// FinishedStateTTL はライブ系以外のステータスで保存するときのTTL。
	// 終了直後もしばらく結果を参照できるよう長めにとる。
	FinishedStateTTL time.Duration
	// EventLogTTL はイベントログキーのTTL（追記のたびにリフレッシュ）。
	EventLogTTL time.Duration
	// EventLogCapacity はイベントログの最大保持件数。
	EventLogCapacity int
	// ActiveIndexTTL はアクティブ試合インデックスのTTL。
	ActiveIndexTTL time.Duration
}

// DefaultPollerConfig はデフォルトのポーラー設定を返す。
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		LiveStateTTL:     10 * time.Minute,
		FinishedStateTTL: 24 * time.Hour,
		EventLogTTL:      5 * time.Minute,
		EventLogCapacity: 50,
		ActiveIndexTTL:   60 * time.Second,
	}
}

// Poller はライブ状態の集約サイクルを駆動するオーケストレーター。
// 1ティックの流れ: 一覧取得 → 試合ごとに詳細取得 → 正規化 → 差分検出 →
// 状態・イベント保存 → 永続ステータス同期 → アクティブインデックス公開。
// 試合単位の失敗は記録してスキップし、バッチ全体は中断しない。
type Poller struct {
	provider  ScoreProvider
	store     LiveStateStore
	matchRepo StatusSyncRepo
	metrics   PollMetrics
	logger    *slog.Logger
	config    PollerConfig

	// now はテストで時刻を固定するための関数。通常はtime.Now。
	now func() time.Time
}

// NewPoller はPollerの新しいインスタンスを生成する。
func NewPoller(
	p ScoreProvider,
	store LiveStateStore,
	matchRepo StatusSyncRepo,
	metrics PollMetrics,
	logger *slog.Logger,
	config PollerConfig,
) *Poller {
	if config.EventLogCapacity <= 0 {
		config.EventLogCapacity = 50
	}
	return &Poller{
		provider:  p,
		store:     store,
		matchRepo: matchRepo,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Start は固定間隔のティッカーでポーラーを起動する。
// コンテキストがキャンセルされるまで実行を継続し、1サイクルの失敗で
// ループ自体が終了することはない。
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("ライブポーラーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("ポーリングサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ライブポーラーを停止しました")
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("ポーリングサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回のポーリングサイクルを実行する。
// 上流の一覧取得に失敗した場合のみエラーを返す。試合単位の失敗は
// ログに記録して残りの試合の処理を継続し、成功した分だけで
// アクティブインデックスを公開する。
func (p *Poller) RunOnce(ctx context.Context) error {
	start := p.now()

	fixtures, err := p.provider.ListLiveMatches(ctx)
	if err != nil {
		p.metrics.RecordPollFailure()
		return err
	}

	if len(fixtures) == 0 {
		p.logger.Info("ライブ中の試合はありません")
		// 前回のインデックスを残さない（TTL待ちにせず即座に消す）
		if err := p.store.SetActiveIDs(ctx, nil, p.config.ActiveIndexTTL); err != nil {
			p.logger.Error("アクティブインデックスの削除に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	activeIDs := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		if f.ID == 0 {
			continue
		}
		matchID := strconv.FormatInt(f.ID, 10)

		if err := p.processMatch(ctx, matchID); err != nil {
			p.metrics.RecordMatchFailure(matchID)
			p.logger.Error("試合の処理に失敗しました",
				slog.String("match_id", matchID),
				slog.String("error", err.Error()),
			)
			continue
		}
		activeIDs = append(activeIDs, matchID)
	}

	if err := p.store.SetActiveIDs(ctx, activeIDs, p.config.ActiveIndexTTL); err != nil {
		p.logger.Error("アクティブインデックスの公開に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	duration := time.Since(start)
	p.metrics.RecordPollCycle(duration, len(activeIDs))
	p.logger.Info("ポーリングサイクルが完了しました",
		slog.Int("match_count", len(activeIDs)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// processMatch は1試合分のフェッチ → 正規化 → 差分 → 保存 → 同期を行う。
func (p *Poller) processMatch(ctx context.Context, matchID string) error {
	raw, err := p.provider.FetchMatchDetail(ctx, matchID)
	if err != nil {
		return err
	}

	state := NormalizeLiveMatch(raw, p.now())

	// 前回の状態が読めなくても新しい状態の保存は続行する
	// （差分が取れないだけで、初回観測と同じ扱いになる）
	old, err := p.store.GetState(ctx, matchID)
	if err != nil {
		p.logger.Warn("前回のライブ状態の取得に失敗しました",
			slog.String("match_id", matchID),
			slog.String("error", err.Error()),
		)
		old = nil
	}

	events := DetectChanges(old, state)
	if len(events) > 0 {
		if err := p.store.AppendEvents(ctx, matchID, events, p.config.EventLogTTL, p.config.EventLogCapacity); err != nil {
			p.logger.Error("イベントログの追記に失敗しました",
				slog.String("match_id", matchID),
				slog.String("error", err.Error()),
			)
		} else {
			p.metrics.RecordEventsEmitted(len(events))
		}
	}

	ttl := p.config.FinishedStateTTL
	if model.IsLiveStatus(state.Status) {
		ttl = p.config.LiveStateTTL
	}
	if err := p.store.SetState(ctx, matchID, state, ttl); err != nil {
		return err
	}

	p.syncDurableStatus(ctx, matchID, state.Status)
	return nil
}

// syncDurableStatus は観測したステータスが永続レコードと異なる場合のみ
// statusカラムを更新する（書き込み増幅を避けるベストエフォート同期）。
// 「今」の真実はキャッシュ、履歴の真実は永続レコードにある。
func (p *Poller) syncDurableStatus(ctx context.Context, matchID, status string) {
	m, err := p.matchRepo.FindByMatchID(ctx, matchID)
	if err != nil {
		p.logger.Error("永続レコードの取得に失敗しました",
			slog.String("match_id", matchID),
			slog.String("error", err.Error()),
		)
		return
	}
	if m == nil || m.Status == status {
		return
	}

	if err := p.matchRepo.UpdateStatus(ctx, matchID, status); err != nil {
		p.logger.Error("永続ステータスの同期に失敗しました",
			slog.String("match_id", matchID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.metrics.RecordStatusSync(matchID)
	p.logger.Info("永続ステータスを同期しました",
		slog.String("match_id", matchID),
		slog.String("from", m.Status),
		slog.String("to", status),
	)
}
