package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stryker/livescore/internal/model"
)

// PostgresMatchRepo はPostgreSQLを使用した試合リポジトリ。
type PostgresMatchRepo struct {
	db *sql.DB
}

// NewPostgresMatchRepo はPostgresMatchRepoを生成する。
func NewPostgresMatchRepo(db *sql.DB) *PostgresMatchRepo {
	return &PostgresMatchRepo{db: db}
}

const matchColumns = `id, match_id, title, status, match_type, start_time,
	        league, venue, home_team, away_team,
	        home_score, away_score, result_note, highlights_url, updated_at`

// scanMatch は1行をmodel.Matchに読み込む。
func scanMatch(scan func(dest ...any) error) (*model.Match, error) {
	m := &model.Match{}
	var matchType, homeScore, awayScore, resultNote, highlightsURL sql.NullString
	var startTime sql.NullTime
	var league, venue, homeTeam, awayTeam []byte

	err := scan(
		&m.ID, &m.MatchID, &m.Title, &m.Status, &matchType, &startTime,
		&league, &venue, &homeTeam, &awayTeam,
		&homeScore, &awayScore, &resultNote, &highlightsURL, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Type = nullStringValue(matchType)
	if startTime.Valid {
		m.StartTime = startTime.Time
	}
	m.League = league
	m.Venue = venue
	m.HomeTeam = homeTeam
	m.AwayTeam = awayTeam
	m.HomeScore = nullStringValue(homeScore)
	m.AwayScore = nullStringValue(awayScore)
	m.ResultNote = nullStringValue(resultNote)
	m.HighlightsURL = nullStringValue(highlightsURL)

	return m, nil
}

// FindByMatchID は自然キーmatch_idで試合を取得する。見つからない場合はnilを返す。
func (r *PostgresMatchRepo) FindByMatchID(ctx context.Context, matchID string) (*model.Match, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE match_id = $1`,
		matchID,
	)

	m, err := scanMatch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("試合の取得に失敗しました: %w", err)
	}
	return m, nil
}

const upsertMatchSQL = `INSERT INTO matches (match_id, title, status, match_type, start_time,
	                     league, venue, home_team, away_team,
	                     home_score, away_score, result_note, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	 ON CONFLICT (match_id) DO UPDATE SET
	    title = EXCLUDED.title,
	    status = EXCLUDED.status,
	    match_type = EXCLUDED.match_type,
	    start_time = EXCLUDED.start_time,
	    league = EXCLUDED.league,
	    venue = EXCLUDED.venue,
	    home_team = EXCLUDED.home_team,
	    away_team = EXCLUDED.away_team,
	    home_score = EXCLUDED.home_score,
	    away_score = EXCLUDED.away_score,
	    result_note = EXCLUDED.result_note,
	    updated_at = EXCLUDED.updated_at`

// upsertArgs はUPSERT文のバインド引数を組み立てる。
func upsertArgs(m *model.Match) []any {
	return []any{
		m.MatchID, m.Title, m.Status, nullString(m.Type), nullTime(m.StartTime),
		nullJSON(m.League), nullJSON(m.Venue), nullJSON(m.HomeTeam), nullJSON(m.AwayTeam),
		nullString(m.HomeScore), nullString(m.AwayScore), nullString(m.ResultNote),
		m.UpdatedAt,
	}
}

// Upsert はmatch_idをキーに試合レコードを作成または更新する。冪等。
func (r *PostgresMatchRepo) Upsert(ctx context.Context, m *model.Match) error {
	_, err := r.db.ExecContext(ctx, upsertMatchSQL, upsertArgs(m)...)
	if err != nil {
		return fmt.Errorf("試合のUPSERTに失敗しました: %w", err)
	}
	return nil
}

// UpsertAll は複数の試合レコードを同一トランザクションでUPSERTする。
// 途中で失敗した場合は全体をロールバックする。
func (r *PostgresMatchRepo) UpsertAll(ctx context.Context, matches []*model.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMatchSQL)
	if err != nil {
		return fmt.Errorf("UPSERT文の準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx, upsertArgs(m)...); err != nil {
			return fmt.Errorf("試合 %s のUPSERTに失敗しました: %w", m.MatchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は指定試合のstatusフィールドのみを更新する。
func (r *PostgresMatchRepo) UpdateStatus(ctx context.Context, matchID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $2, updated_at = now() WHERE match_id = $1`,
		matchID, status,
	)
	if err != nil {
		return fmt.Errorf("試合ステータスの更新に失敗しました: %w", err)
	}
	return nil
}

// ListInWindow はstart_timeが[from, to]に収まる試合をstart_time昇順で取得する。
// excludeStatusに一致するステータスの試合は除外する。
func (r *PostgresMatchRepo) ListInWindow(ctx context.Context, from, to time.Time, excludeStatus string) ([]*model.Match, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE start_time >= $1 AND start_time <= $2 AND status != $3
		 ORDER BY start_time ASC`,
		from, to, excludeStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("試合一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var matches []*model.Match
	for rows.Next() {
		m, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("試合行の読み込みに失敗しました: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("試合一覧の走査に失敗しました: %w", err)
	}

	return matches, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullTime はゼロ時刻をsql.NullTimeに変換する。
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// nullJSON は空のJSONスナップショットをNULLとして保存する。
func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
