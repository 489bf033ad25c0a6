package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	licenseUsecases "keygate/internal/application/license/usecases"
	"keygate/internal/application/payment/paymentgateway"
	paymentUsecases "keygate/internal/application/payment/usecases"
	"keygate/internal/infrastructure/config"
	"keygate/internal/infrastructure/database"
	"keygate/internal/infrastructure/repository"
	"keygate/internal/infrastructure/scheduler"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/db"
	"keygate/internal/shared/logger"
)

var env string

// NewCommand runs the payment reconciliation loops without the HTTP API.
// Useful when the poller should be deployed separately from the API
// instances; only one worker should run at a time per database.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the payment reconciliation worker",
		Long:  `Run the pending-payment poll loop and the stale-payment sweep without the HTTP API.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

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

	log.Infow("starting worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	gdb := database.Get()
	clock := biztime.RealClock{}

	licenseRepo := repository.NewLicenseRepository(gdb)
	paymentRepo := repository.NewPaymentRepository(gdb)
	txMgr := db.NewTransactionManager(gdb)

	var gateway paymentgateway.PaymentGateway
	switch cfg.Payment.Gateway.Provider {
	case "pix":
		gateway = paymentgateway.NewPIXGateway(paymentgateway.PIXGatewayConfig{
			BaseURL:   cfg.Payment.Gateway.BaseURL,
			Secret:    cfg.Payment.Gateway.Secret,
			NotifyURL: cfg.Payment.Gateway.NotifyURL,
			ReturnURL: cfg.Payment.Gateway.ReturnURL,
		}, log)
	default:
		gateway = paymentgateway.NewMockGateway(false)
	}

	extendUC := licenseUsecases.NewExtendLicenseUseCase(licenseRepo, paymentRepo, txMgr, cfg.License, clock, log)
	reconcileUC := paymentUsecases.NewReconcilePaymentUseCase(paymentRepo, extendUC, log)
	pollUC := paymentUsecases.NewPollPendingUseCase(paymentRepo, gateway, reconcileUC, log)
	expireStaleUC := paymentUsecases.NewExpireStaleUseCase(paymentRepo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paymentScheduler := scheduler.NewPaymentScheduler(pollUC, expireStaleUC, cfg.Payment, log)
	paymentScheduler.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down worker")
	cancel()
	paymentScheduler.Stop()
	log.Infow("worker stopped")

	return nil
}
