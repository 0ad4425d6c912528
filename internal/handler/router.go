package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stryker/livescore/internal/metrics"
	"github.com/stryker/livescore/internal/middleware"
)

// HealthChecker は/healthがデータベース接続を確認するためのインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 死活監視
	HealthChecker HealthChecker

	// メトリクス収集（/metricsの公開元）
	Gatherer prometheus.Gatherer

	// サービス
	ViewService     MatchViewServiceInterface
	NewsService     NewsServiceInterface
	WaitlistService WaitlistServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeadersMiddleware → LoggingMiddleware → RecoveryMiddleware
//
// レート制限はAPIルートのみに適用し、/health と /metrics は対象外。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	matchHandler := NewMatchHandler(deps.ViewService)
	newsHandler := NewNewsHandler(deps.NewsService)
	waitlistHandler := NewWaitlistHandler(deps.WaitlistService)

	// --- 運用ルート（レート制限なし） ---

	r.Get("/health", newHealthCheckHandler(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 公開APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/v1", func(r chi.Router) {
			// ライブスコア
			r.Route("/matches", func(r chi.Router) {
				r.Get("/live", matchHandler.ListLiveScores)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/live", matchHandler.GetLiveScore)
					r.Get("/events", matchHandler.ListEvents)
				})
			})

			// ニュース
			r.Get("/news", newsHandler.ListNews)

			// POST /api/v1/waitlist - ウェイトリスト登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.SignupMiddleware()).Post("/waitlist", waitlistHandler.Signup)
		})
	})

	return r
}

// newHealthCheckHandler は死活監視用のハンドラーを生成する。
// DB接続が確認できない場合は503を返す。
// GET /health
func newHealthCheckHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
