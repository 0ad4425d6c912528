// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stryker/livescore/internal/cache"
	"github.com/stryker/livescore/internal/config"
	"github.com/stryker/livescore/internal/database"
	"github.com/stryker/livescore/internal/handler"
	"github.com/stryker/livescore/internal/live"
	"github.com/stryker/livescore/internal/logger"
	"github.com/stryker/livescore/internal/mail"
	"github.com/stryker/livescore/internal/metrics"
	"github.com/stryker/livescore/internal/middleware"
	"github.com/stryker/livescore/internal/news"
	"github.com/stryker/livescore/internal/provider"
	"github.com/stryker/livescore/internal/repository"
	"github.com/stryker/livescore/internal/schedule"
	"github.com/stryker/livescore/internal/security"
	"github.com/stryker/livescore/internal/waitlist"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB・Redis接続を開き、読み取り系の依存関係をワイヤリングしてHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Redis接続
	store, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis store: %w", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established")

	// 3. リポジトリの初期化
	matchRepo := repository.NewPostgresMatchRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)
	signupRepo := repository.NewPostgresSignupRepo(db)

	// 4. メトリクスレジストリの初期化
	registry := prometheus.NewRegistry()
	metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	viewService := live.NewViewService(matchRepo, store, live.ViewConfig{
		Lookback:  cfg.ViewLookback,
		Lookahead: cfg.ViewLookahead,
	})

	var mailer mail.Mailer = mail.NoopMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = mail.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		slog.Warn("RESEND_API_KEY is not set, welcome mails are disabled")
	}
	waitlistService := waitlist.NewService(signupRepo, mailer, slog.Default())

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		HealthChecker:     db,
		Gatherer:          registry,

		ViewService: viewService,
		// ニュースの読み取りはリポジトリをそのまま使う（取り込みはワーカー側）
		NewsService:     newsRepo,
		WaitlistService: waitlistService,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// ライブポーラー・スケジュール同期・ニュース取り込みをバックグラウンドで実行し、
// ポートには/healthと/metricsのみを公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. Redis接続
	store, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis store: %w", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established (worker)")

	// 3. リポジトリとメトリクスの初期化
	matchRepo := repository.NewPostgresMatchRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 上流プロバイダークライアントの初期化
	client := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIToken, cfg.ProviderTimeout)
	client.SetMetrics(collector)

	// 5. ライブポーラーの初期化
	poller := live.NewPoller(client, store, matchRepo, collector, slog.Default(), live.PollerConfig{
		LiveStateTTL:     cfg.LiveStateTTL,
		FinishedStateTTL: cfg.FinishedStateTTL,
		EventLogTTL:      cfg.EventLogTTL,
		EventLogCapacity: cfg.EventLogCapacity,
		ActiveIndexTTL:   cfg.ActiveIndexTTL,
	})

	// 6. スケジュール同期ジョブの初期化
	syncer := schedule.NewSyncer(client, matchRepo, slog.Default())

	// 7. ニュース取り込みサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()
	fetcher := news.NewFetcher(ssrfGuard, sanitizer, slog.Default(), cfg.NewsFetchTimeout, cfg.NewsFetchMaxSize)
	newsService := news.NewService(fetcher, newsRepo, collector, slog.Default(), cfg.NewsFeedURLs)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	// 死活監視とメトリクス公開用の軽量HTTPサーバー
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", metrics.Handler(registry))

	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: mux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	defer metricsServer.Close()

	slog.Info("worker starting",
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.Duration("schedule_sync_interval", cfg.ScheduleSyncInterval),
		slog.Int("news_sources", len(cfg.NewsFeedURLs)),
	)

	// スケジュール同期とニュース取り込みをバックグラウンドで起動
	go syncer.Start(ctx, cfg.ScheduleSyncInterval)
	go newsService.Start(ctx, cfg.NewsSyncInterval)

	// ライブポーラーをメインgoroutineで実行（ブロッキング）
	poller.Start(ctx, cfg.PollInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
