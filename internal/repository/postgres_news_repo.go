package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stryker/livescore/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

// Upsert はsource_urlをキーに記事を作成または更新する。冪等。
func (r *PostgresNewsRepo) Upsert(ctx context.Context, article *model.NewsArticle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_articles (id, headline, summary, image_url, source_name,
		                            source_url, match_id, published_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (source_url) DO UPDATE SET
		    headline = EXCLUDED.headline,
		    summary = EXCLUDED.summary,
		    image_url = EXCLUDED.image_url,
		    source_name = EXCLUDED.source_name,
		    published_at = EXCLUDED.published_at`,
		article.ID, article.Headline, nullString(article.Summary),
		nullString(article.ImageURL), nullString(article.SourceName),
		article.SourceURL, nullString(article.MatchID),
		article.PublishedAt, article.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ニュース記事のUPSERTに失敗しました: %w", err)
	}
	return nil
}

// ListLatest は公開日時の新しい順に記事を取得する。
func (r *PostgresNewsRepo) ListLatest(ctx context.Context, limit int) ([]*model.NewsArticle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, headline, summary, image_url, source_name,
		        source_url, match_id, published_at, created_at
		 FROM news_articles
		 ORDER BY published_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ニュース記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.NewsArticle
	for rows.Next() {
		a := &model.NewsArticle{}
		var summary, imageURL, sourceName, matchID sql.NullString
		if err := rows.Scan(
			&a.ID, &a.Headline, &summary, &imageURL, &sourceName,
			&a.SourceURL, &matchID, &a.PublishedAt, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ニュース記事行の読み込みに失敗しました: %w", err)
		}
		a.Summary = nullStringValue(summary)
		a.ImageURL = nullStringValue(imageURL)
		a.SourceName = nullStringValue(sourceName)
		a.MatchID = nullStringValue(matchID)
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ニュース記事一覧の走査に失敗しました: %w", err)
	}

	return articles, nil
}
