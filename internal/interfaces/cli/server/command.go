package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	licenseUsecases "keygate/internal/application/license/usecases"
	"keygate/internal/application/payment/paymentgateway"
	paymentUsecases "keygate/internal/application/payment/usecases"
	userUsecases "keygate/internal/application/user/usecases"
	"keygate/internal/infrastructure/auth"
	"keygate/internal/infrastructure/config"
	"keygate/internal/infrastructure/database"
	"keygate/internal/infrastructure/persistence/migrations"
	"keygate/internal/infrastructure/ratelimit"
	"keygate/internal/infrastructure/repository"
	"keygate/internal/infrastructure/scheduler"
	httpRouter "keygate/internal/interfaces/http"
	"keygate/internal/interfaces/http/handlers"
	"keygate/internal/interfaces/http/middleware"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/db"
	"keygate/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the license server: the HTTP API plus the payment reconciliation worker.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := migrations.NewManager(env).Migrate(database.Get()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	gdb := database.Get()
	clock := biztime.RealClock{}

	userRepo := repository.NewUserRepository(gdb)
	licenseRepo := repository.NewLicenseRepository(gdb)
	paymentRepo := repository.NewPaymentRepository(gdb)
	keyRepo := repository.NewActivationKeyRepository(gdb)
	auditRepo := repository.NewAuditRepository(gdb)
	txMgr := db.NewTransactionManager(gdb)

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)
	gateway := buildGateway(cfg, log)

	registerUC := userUsecases.NewRegisterUseCase(userRepo, licenseRepo, hasher, txMgr, log)
	loginUC := userUsecases.NewLoginUseCase(userRepo, hasher, jwtService, log)

	evaluateUC := licenseUsecases.NewEvaluateLicenseUseCase(licenseRepo, clock, log)
	heartbeatUC := licenseUsecases.NewHeartbeatUseCase(licenseRepo, cfg.License, clock, log)
	activateUC := licenseUsecases.NewActivateWithKeyUseCase(keyRepo, licenseRepo, txMgr, cfg.License, clock, log)
	resetUC := licenseUsecases.NewResetHWIDUseCase(licenseRepo, auditRepo, txMgr, cfg.License, clock, log)
	extendUC := licenseUsecases.NewExtendLicenseUseCase(licenseRepo, paymentRepo, txMgr, cfg.License, clock, log)
	overrideUC := licenseUsecases.NewAdminOverrideUseCase(licenseRepo, paymentRepo, extendUC, cfg.License, clock, log)
	createKeyUC := licenseUsecases.NewCreateActivationKeyUseCase(keyRepo, log)

	reconcileUC := paymentUsecases.NewReconcilePaymentUseCase(paymentRepo, extendUC, log)
	createPaymentUC := paymentUsecases.NewCreatePaymentUseCase(paymentRepo, gateway, cfg.Payment, log)
	getPaymentUC := paymentUsecases.NewGetPaymentUseCase(paymentRepo)
	callbackUC := paymentUsecases.NewHandleCallbackUseCase(gateway, reconcileUC, log)
	pollUC := paymentUsecases.NewPollPendingUseCase(paymentRepo, gateway, reconcileUC, log)
	expireStaleUC := paymentUsecases.NewExpireStaleUseCase(paymentRepo, log)

	router := httpRouter.NewRouter(
		handlers.NewAuthHandler(registerUC, loginUC, log),
		handlers.NewLicenseHandler(evaluateUC, heartbeatUC, activateUC, resetUC, log),
		handlers.NewPaymentHandler(createPaymentUC, getPaymentUC, callbackUC, log),
		handlers.NewAdminHandler(overrideUC, resetUC, evaluateUC, createKeyUC, auditRepo, log),
		middleware.NewAuthMiddleware(jwtService, log),
		ratelimit.NewRedisRateLimiter(redisClient),
		log,
	)
	router.SetupRoutes(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paymentScheduler := scheduler.NewPaymentScheduler(pollUC, expireStaleUC, cfg.Payment, log)
	paymentScheduler.Start(ctx)
	defer paymentScheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Infow("server stopped")
	return nil
}

func buildGateway(cfg *config.Config, log logger.Interface) paymentgateway.PaymentGateway {
	switch cfg.Payment.Gateway.Provider {
	case "pix":
		return paymentgateway.NewPIXGateway(paymentgateway.PIXGatewayConfig{
			BaseURL:   cfg.Payment.Gateway.BaseURL,
			Secret:    cfg.Payment.Gateway.Secret,
			NotifyURL: cfg.Payment.Gateway.NotifyURL,
			ReturnURL: cfg.Payment.Gateway.ReturnURL,
		}, log)
	default:
		return paymentgateway.NewMockGateway(false)
	}
}

func mapEnvToGinMode(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
