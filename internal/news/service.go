package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stryker/livescore/internal/model"
	"github.com/stryker/livescore/internal/repository"
)

// ArticleFetcher は1ソースの記事取得のインターフェース。
type ArticleFetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]*model.NewsArticle, error)
}

// SyncMetrics はニュース同期のメトリクス収集インターフェース。
type SyncMetrics interface {
	RecordNewsUpserted(count int)
}

// Service はニュース記事の取り込みと提供を行うサービス層。
// 設定された複数のソースURLを順にフェッチし、記事をUPSERTする。
// ソース単位の失敗はログに記録して残りのソースの処理を継続する。
type Service struct {
	fetcher ArticleFetcher
	repo    repository.NewsRepository
	metrics SyncMetrics
	logger  *slog.Logger
	sources []string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	fetcher ArticleFetcher,
	repo repository.NewsRepository,
	metrics SyncMetrics,
	logger *slog.Logger,
	sources []string,
) *Service {
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		sources: sources,
	}
}

// Start は固定間隔のティッカーで取り込みジョブを起動する。
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	if len(s.sources) == 0 {
		s.logger.Info("ニュースソースが設定されていないため取り込みをスキップします")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ニュース取り込みを開始しました",
		slog.Duration("interval", interval),
		slog.Int("source_count", len(s.sources)),
	)

	// 起動直後に1回実行
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ニュース取り込みを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は全ソースの取り込みを1回実行する。
// source_urlをキーにUPSERTするため何度実行しても冪等。
func (s *Service) RunOnce(ctx context.Context) {
	total := 0
	for _, source := range s.sources {
		n, err := s.syncSource(ctx, source)
		if err != nil {
			s.logger.Error("ニュースソースの取り込みに失敗しました",
				slog.String("source_url", source),
				slog.String("error", err.Error()),
			)
			continue
		}
		total += n
	}

	if total > 0 {
		s.metrics.RecordNewsUpserted(total)
	}
	s.logger.Info("ニュース取り込みが完了しました",
		slog.Int("article_count", total),
	)
}

// syncSource は1ソース分の記事を取得してUPSERTする。
func (s *Service) syncSource(ctx context.Context, sourceURL string) (int, error) {
	articles, err := s.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return 0, err
	}

	upserted := 0
	for _, article := range articles {
		if err := s.repo.Upsert(ctx, article); err != nil {
			s.logger.Warn("記事のUPSERTに失敗したためスキップします",
				slog.String("source_url", article.SourceURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		upserted++
	}
	return upserted, nil
}

// ListLatest は公開日時の新しい順に記事を返す。
func (s *Service) ListLatest(ctx context.Context, limit int) ([]*model.NewsArticle, error) {
	articles, err := s.repo.ListLatest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	return articles, nil
}
