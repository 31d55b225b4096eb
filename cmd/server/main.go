package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/db"
	httpHandlers "github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	httpRouter "github.com/ignatzorin/freelance-escrow/internal/http/router"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	portfolioRepo := repository.NewPortfolioRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo)
	jobService := service.NewJobService(jobRepo)
	escrowService := service.NewEscrowService(escrowRepo, jobRepo, cfg.FeeBPS, cfg.PlatformAccountID)
	arbiterPolicy := service.NewStaticArbiterPolicy(cfg.DisputeArbiters)
	disputeService := service.NewDisputeService(disputeRepo, escrowRepo, jobRepo, arbiterPolicy, cfg.PlatformAccountID)
	paymentService := service.NewPaymentService(ledgerRepo)
	reviewService := service.NewReviewService(reviewRepo, jobRepo)
	portfolioService := service.NewPortfolioService(portfolioRepo)
	profileService := service.NewProfileService(userRepo)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	notificationService.SetHub(hub)
	jobService.SetNotifier(notificationService)
	escrowService.SetNotifier(notificationService)
	disputeService.SetNotifier(notificationService)
	reviewService.SetNotifier(notificationService)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	jobHandler := httpHandlers.NewJobHandler(jobService)
	escrowHandler := httpHandlers.NewEscrowHandler(escrowService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	profileHandler := httpHandlers.NewProfileHandler(profileService, reviewService)
	portfolioHandler := httpHandlers.NewPortfolioHandler(portfolioService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		jobHandler,
		escrowHandler,
		disputeHandler,
		paymentHandler,
		profileHandler,
		portfolioHandler,
		reviewHandler,
		notificationHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
