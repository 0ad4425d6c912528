// Package cache はRedisを使ったライブ状態ストアを提供する。
// 試合ごとの正規化済み状態キー・上限付きイベントログ・アクティブ試合
// インデックスの3種類のキーを管理する。キー間のトランザクション保証はなく、
// 読み取り側は一時的な不整合（状態はあるがインデックスが古い等）を許容する。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stryker/livescore/internal/model"
)

const (
	// liveKeyPrefix は試合ごとのライブ状態キーのプレフィックス。
	liveKeyPrefix = "live:match:"
	// eventsKeyPrefix は試合ごとのイベントログキーのプレフィックス。
	eventsKeyPrefix = "match:events:"
	// activeKey は現在ライブ中の試合IDをカンマ区切りで保持するキー。
	activeKey = "live:matches"
)

// RedisStore はgo-redisクライアントをラップしたライブ状態ストア。
// シングルトンではなく、プロセス起動時に生成して依存として注入する。
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore は接続URL（redis://host:port/db形式）からRedisStoreを生成する。
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("Redis URLのパースに失敗しました: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opts)}, nil
}

// NewRedisStoreWithClient は既存のクライアントからRedisStoreを生成する。
// テストでminiredisに接続したクライアントを注入するために使う。
func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Ping は接続確認を行う。
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close は接続を閉じる。
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// StateKey は試合IDに対応するライブ状態キーを返す。
func StateKey(matchID string) string {
	return liveKeyPrefix + matchID
}

// EventsKey は試合IDに対応するイベントログキーを返す。
func EventsKey(matchID string) string {
	return eventsKeyPrefix + matchID
}

// SetState は試合のライブ状態をTTL付きでJSON保存する。
func (s *RedisStore) SetState(ctx context.Context, matchID string, state *model.LiveMatch, ttl time.Duration) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ライブ状態のエンコードに失敗しました: %w", err)
	}
	if err := s.rdb.Set(ctx, StateKey(matchID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("ライブ状態の保存に失敗しました: %w", err)
	}
	return nil
}

// GetState は試合のライブ状態を取得する。
// キーが存在しない・期限切れの場合はエラーではなくnilを返す。
func (s *RedisStore) GetState(ctx context.Context, matchID string) (*model.LiveMatch, error) {
	data, err := s.rdb.Get(ctx, StateKey(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ライブ状態の取得に失敗しました: %w", err)
	}

	var state model.LiveMatch
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("ライブ状態のデコードに失敗しました: %w", err)
	}
	return &state, nil
}

// GetStates は複数試合のライブ状態をMGETでまとめて取得する。
// キャッシュミスした試合は結果マップに含まれない。デコードできない
// エントリは警告ログを出してスキップする（読み取りを失敗させない）。
func (s *RedisStore) GetStates(ctx context.Context, matchIDs []string) (map[string]*model.LiveMatch, error) {
	if len(matchIDs) == 0 {
		return map[string]*model.LiveMatch{}, nil
	}

	keys := make([]string, len(matchIDs))
	for i, id := range matchIDs {
		keys[i] = StateKey(id)
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("ライブ状態の一括取得に失敗しました: %w", err)
	}

	result := make(map[string]*model.LiveMatch, len(matchIDs))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok || raw == "" {
			continue
		}
		var state model.LiveMatch
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			slog.Warn("ライブ状態のデコードに失敗したためスキップします",
				slog.String("match_id", matchIDs[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		result[matchIDs[i]] = &state
	}
	return result, nil
}

// AppendEvents はイベントを試合のログ先頭に追記する。
// ログはcapacity件に切り詰められ（古いものから破棄）、追記のたびに
// TTLがリフレッシュされる。
func (s *RedisStore) AppendEvents(ctx context.Context, matchID string, events []model.MatchEvent, ttl time.Duration, capacity int) error {
	if len(events) == 0 {
		return nil
	}

	key := EventsKey(matchID)
	pipe := s.rdb.Pipeline()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("イベントのエンコードに失敗しました: %w", err)
		}
		pipe.LPush(ctx, key, payload)
	}
	pipe.LTrim(ctx, key, 0, int64(capacity-1))
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("イベントログの追記に失敗しました: %w", err)
	}
	return nil
}

// ListEvents は試合のイベントログを新しい順に返す。
// キーが存在しない場合は空スライスを返す。
func (s *RedisStore) ListEvents(ctx context.Context, matchID string) ([]model.MatchEvent, error) {
	raws, err := s.rdb.LRange(ctx, EventsKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("イベントログの取得に失敗しました: %w", err)
	}

	events := make([]model.MatchEvent, 0, len(raws))
	for _, raw := range raws {
		var ev model.MatchEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			slog.Warn("イベントのデコードに失敗したためスキップします",
				slog.String("match_id", matchID),
				slog.String("error", err.Error()),
			)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// SetActiveIDs はアクティブ試合インデックスを全置換する（マージしない）。
// 2回連続のポーリングで現れなかった試合IDはTTLで自然に消える。
// idsが空の場合はキー自体を削除する。
func (s *RedisStore) SetActiveIDs(ctx context.Context, ids []string, ttl time.Duration) error {
	if len(ids) == 0 {
		if err := s.rdb.Del(ctx, activeKey).Err(); err != nil {
			return fmt.Errorf("アクティブインデックスの削除に失敗しました: %w", err)
		}
		return nil
	}
	if err := s.rdb.Set(ctx, activeKey, strings.Join(ids, ","), ttl).Err(); err != nil {
		return fmt.Errorf("アクティブインデックスの保存に失敗しました: %w", err)
	}
	return nil
}

// GetActiveIDs はアクティブ試合インデックスを返す。
// キーが存在しない・期限切れの場合は空スライスを返す。
func (s *RedisStore) GetActiveIDs(ctx context.Context) ([]string, error) {
	raw, err := s.rdb.Get(ctx, activeKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクティブインデックスの取得に失敗しました: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	return strings.Split(raw, ","), nil
}
