package genkey

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	licenseUsecases "keygate/internal/application/license/usecases"
	"keygate/internal/infrastructure/config"
	"keygate/internal/infrastructure/database"
	"keygate/internal/infrastructure/repository"
	"keygate/internal/shared/logger"
)

var (
	env          string
	plan         string
	durationDays int
	count        int
)

// NewCommand mints activation keys from the command line so operators can
// hand them out without going through the admin API.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate activation keys",
		Long:  `Mint single-use activation keys for a plan and print the codes.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&plan, "plan", "p", "", "Plan identifier the keys grant (required)")
	cmd.Flags().IntVarP(&durationDays, "days", "d", 0, "Days of license time per key (required)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of keys to mint")
	cmd.MarkFlagRequired("plan")
	cmd.MarkFlagRequired("days")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	keyRepo := repository.NewActivationKeyRepository(database.Get())
	uc := licenseUsecases.NewCreateActivationKeyUseCase(keyRepo, log)

	codes, err := uc.Execute(context.Background(), plan, durationDays, count)
	if err != nil {
		return fmt.Errorf("failed to mint keys: %w", err)
	}

	for _, code := range codes {
		fmt.Println(code)
	}

	return nil
}
