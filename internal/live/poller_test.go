package live

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stryker/livescore/internal/model"
	"github.com/stryker/livescore/internal/provider"
)

// mockProvider はScoreProviderのテスト実装。
type mockProvider struct {
	listFunc  func(ctx context.Context) ([]provider.RawFixture, error)
	fetchFunc func(ctx context.Context, matchID string) (*provider.RawFixture, error)
}

func (m *mockProvider) ListLiveMatches(ctx context.Context) ([]provider.RawFixture, error) {
	return m.listFunc(ctx)
}

func (m *mockProvider) FetchMatchDetail(ctx context.Context, matchID string) (*provider.RawFixture, error) {
	return m.fetchFunc(ctx, matchID)
}

// mockStore はLiveStateStoreのテスト実装。保存された状態とイベントを記録する。
type mockStore struct {
	states      map[string]*model.LiveMatch
	stateTTLs   map[string]time.Duration
	events      map[string][]model.MatchEvent
	activeIDs   []string
	activeCalls int
	setStateErr error
	getStateErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		states:    map[string]*model.LiveMatch{},
		stateTTLs: map[string]time.Duration{},
		events:    map[string][]model.MatchEvent{},
	}
}

func (m *mockStore) GetState(_ context.Context, matchID string) (*model.LiveMatch, error) {
	if m.getStateErr != nil {
		return nil, m.getStateErr
	}
	return m.states[matchID], nil
}

func (m *mockStore) SetState(_ context.Context, matchID string, state *model.LiveMatch, ttl time.Duration) error {
	if m.setStateErr != nil {
		return m.setStateErr
	}
	m.states[matchID] = state
	m.stateTTLs[matchID] = ttl
	return nil
}

func (m *mockStore) AppendEvents(_ context.Context, matchID string, events []model.MatchEvent, _ time.Duration, _ int) error {
	m.events[matchID] = append(events, m.events[matchID]...)
	return nil
}

func (m *mockStore) SetActiveIDs(_ context.Context, ids []string, _ time.Duration) error {
	m.activeIDs = ids
	m.activeCalls++
	return nil
}

// mockStatusRepo はStatusSyncRepoのテスト実装。
type mockStatusRepo struct {
	matches map[string]*model.Match
	updates map[string]string
	findErr error
}

func newMockStatusRepo() *mockStatusRepo {
	return &mockStatusRepo{
		matches: map[string]*model.Match{},
		updates: map[string]string{},
	}
}

func (m *mockStatusRepo) FindByMatchID(_ context.Context, matchID string) (*model.Match, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.matches[matchID], nil
}

func (m *mockStatusRepo) UpdateStatus(_ context.Context, matchID, status string) error {
	m.updates[matchID] = status
	return nil
}

// mockMetrics はPollMetricsのテスト実装。
type mockMetrics struct {
	cycles        int
	pollFailures  int
	matchFailures []string
	eventsEmitted int
	statusSyncs   []string
}

func (m *mockMetrics) RecordPollCycle(_ time.Duration, _ int) { m.cycles++ }
func (m *mockMetrics) RecordPollFailure()                     { m.pollFailures++ }
func (m *mockMetrics) RecordMatchFailure(matchID string) {
	m.matchFailures = append(m.matchFailures, matchID)
}
func (m *mockMetrics) RecordEventsEmitted(count int) { m.eventsEmitted += count }
func (m *mockMetrics) RecordStatusSync(matchID string) {
	m.statusSyncs = append(m.statusSyncs, matchID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPoller(p ScoreProvider, store *mockStore, repo *mockStatusRepo, metrics *mockMetrics) *Poller {
	poller := NewPoller(p, store, repo, metrics, testLogger(), DefaultPollerConfig())
	poller.now = func() time.Time {
		return time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	}
	return poller
}

func liveFixture(id int64, runs int, wickets int, overs float64) *provider.RawFixture {
	return &provider.RawFixture{
		ID:     id,
		Status: model.StatusLive,
		Runs: []provider.RawRun{
			{Inning: 1, TeamID: 10, Score: runs, Wickets: wickets, Overs: provider.FlexFloat(overs)},
		},
	}
}

func TestRunOnce_StoresStateAndPublishesIndex(t *testing.T) {
	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}, {ID: 102}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			if matchID == "101" {
				return liveFixture(101, 50, 1, 6.0), nil
			}
			return liveFixture(102, 80, 2, 10.0), nil
		},
	}
	store := newMockStore()
	repo := newMockStatusRepo()
	metrics := &mockMetrics{}

	poller := newTestPoller(prov, store, repo, metrics)
	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if store.states["101"] == nil || store.states["102"] == nil {
		t.Fatalf("状態が保存されていない: %v", store.states)
	}
	if len(store.activeIDs) != 2 {
		t.Errorf("activeIDs = %v, want 2件", store.activeIDs)
	}
	if metrics.cycles != 1 {
		t.Errorf("cycles = %d, want 1", metrics.cycles)
	}
	// ライブ中の試合はライブ用TTLで保存される
	if store.stateTTLs["101"] != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", store.stateTTLs["101"])
	}
}

func TestRunOnce_FinishedMatchGetsLongTTL(t *testing.T) {
	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			f := liveFixture(101, 150, 7, 20.0)
			f.Status = model.StatusFinished
			return f, nil
		},
	}
	store := newMockStore()
	poller := newTestPoller(prov, store, newMockStatusRepo(), &mockMetrics{})

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if store.stateTTLs["101"] != 24*time.Hour {
		t.Errorf("TTL = %v, want 24h", store.stateTTLs["101"])
	}
}

func TestRunOnce_ListFailure(t *testing.T) {
	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return nil, errors.New("upstream down")
		},
	}
	store := newMockStore()
	metrics := &mockMetrics{}
	poller := newTestPoller(prov, store, newMockStatusRepo(), metrics)

	if err := poller.RunOnce(context.Background()); err == nil {
		t.Fatal("一覧取得の失敗がエラーとして返らない")
	}
	if metrics.pollFailures != 1 {
		t.Errorf("pollFailures = %d, want 1", metrics.pollFailures)
	}
	// 古いインデックスは温存される（空で上書きしない）
	if store.activeCalls != 0 {
		t.Errorf("activeCalls = %d, want 0", store.activeCalls)
	}
}

func TestRunOnce_MatchFailureIsolated(t *testing.T) {
	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}, {ID: 102}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			if matchID == "101" {
				return nil, errors.New("detail fetch failed")
			}
			return liveFixture(102, 80, 2, 10.0), nil
		},
	}
	store := newMockStore()
	metrics := &mockMetrics{}
	poller := newTestPoller(prov, store, newMockStatusRepo(), metrics)

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("1試合の失敗がサイクル全体を失敗させた: %v", err)
	}

	if len(metrics.matchFailures) != 1 || metrics.matchFailures[0] != "101" {
		t.Errorf("matchFailures = %v", metrics.matchFailures)
	}
	// 失敗した試合はインデックスから除外される
	if len(store.activeIDs) != 1 || store.activeIDs[0] != "102" {
		t.Errorf("activeIDs = %v, want [102]", store.activeIDs)
	}
	if store.states["102"] == nil {
		t.Error("成功した試合の状態が保存されていない")
	}
}

func TestRunOnce_EmptyListDeletesIndex(t *testing.T) {
	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return nil, nil
		},
	}
	store := newMockStore()
	store.activeIDs = []string{"101"}
	poller := newTestPoller(prov, store, newMockStatusRepo(), &mockMetrics{})

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(store.activeIDs) != 0 {
		t.Errorf("activeIDs = %v, want empty", store.activeIDs)
	}
}

func TestRunOnce_EmitsEventsOnDelta(t *testing.T) {
	store := newMockStore()
	store.states["101"] = &model.LiveMatch{
		MatchID: "101",
		Status:  model.StatusLive,
		Innings: []model.InningScore{
			{Inning: 1, TeamID: 10, Runs: 46, Wickets: 1, Overs: 5.5},
		},
	}

	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			return liveFixture(101, 50, 1, 6.0), nil
		},
	}
	metrics := &mockMetrics{}
	poller := newTestPoller(prov, store, newMockStatusRepo(), metrics)

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	events := store.events["101"]
	if countType(events, model.EventFour) != 1 {
		t.Errorf("FOURイベントが記録されていない: %+v", events)
	}
	if countType(events, model.EventOverEnd) != 1 {
		t.Errorf("OVER_ENDイベントが記録されていない: %+v", events)
	}
	if metrics.eventsEmitted != 2 {
		t.Errorf("eventsEmitted = %d, want 2", metrics.eventsEmitted)
	}
}

func TestRunOnce_SyncsStatusOnChange(t *testing.T) {
	repo := newMockStatusRepo()
	repo.matches["101"] = &model.Match{MatchID: "101", Status: model.StatusNotStarted}

	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			return liveFixture(101, 10, 0, 1.2), nil
		},
	}
	metrics := &mockMetrics{}
	poller := newTestPoller(prov, newMockStore(), repo, metrics)

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if got := repo.updates["101"]; got != model.StatusLive {
		t.Errorf("status update = %q, want %q", got, model.StatusLive)
	}
	if len(metrics.statusSyncs) != 1 {
		t.Errorf("statusSyncs = %v", metrics.statusSyncs)
	}
}

func TestRunOnce_NoSyncWhenStatusUnchanged(t *testing.T) {
	repo := newMockStatusRepo()
	repo.matches["101"] = &model.Match{MatchID: "101", Status: model.StatusLive}

	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			return liveFixture(101, 10, 0, 1.2), nil
		},
	}
	poller := newTestPoller(prov, newMockStore(), repo, &mockMetrics{})

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(repo.updates) != 0 {
		t.Errorf("不要なステータス更新が行われた: %v", repo.updates)
	}
}

func TestRunOnce_SyncSkippedForUnknownMatch(t *testing.T) {
	// 永続レコードがない試合（スケジュール未同期）はステータス同期をスキップ
	repo := newMockStatusRepo()

	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 999}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			return liveFixture(999, 10, 0, 1.2), nil
		},
	}
	store := newMockStore()
	poller := newTestPoller(prov, store, repo, &mockMetrics{})

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(repo.updates) != 0 {
		t.Errorf("未知の試合にステータス更新が行われた: %v", repo.updates)
	}
	// 状態の保存自体は行われる
	if store.states["999"] == nil {
		t.Error("未知の試合の状態が保存されていない")
	}
}

func TestRunOnce_GetStateFailureTreatedAsFirstObservation(t *testing.T) {
	store := newMockStore()
	store.getStateErr = errors.New("redis timeout")

	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return []provider.RawFixture{{ID: 101}}, nil
		},
		fetchFunc: func(ctx context.Context, matchID string) (*provider.RawFixture, error) {
			return liveFixture(101, 50, 1, 6.0), nil
		},
	}
	poller := newTestPoller(prov, store, newMockStatusRepo(), &mockMetrics{})

	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("前回状態の取得失敗がサイクルを失敗させた: %v", err)
	}
	if len(store.events["101"]) != 0 {
		t.Errorf("ベースラインなしでイベントが生成された: %+v", store.events["101"])
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	prov := &mockProvider{
		listFunc: func(ctx context.Context) ([]provider.RawFixture, error) {
			return nil, nil
		},
	}
	poller := newTestPoller(prov, newMockStore(), newMockStatusRepo(), &mockMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("キャンセル後にStartが終了しない")
	}
}
