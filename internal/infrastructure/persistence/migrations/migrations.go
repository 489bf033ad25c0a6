package migrations

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"keygate/internal/infrastructure/persistence/models"
	"keygate/internal/shared/constants"
	"keygate/internal/shared/logger"
)

// Strategy executes schema migrations against an open database.
type Strategy interface {
	Migrate(db *gorm.DB, models ...interface{}) error
	GetName() string
}

type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks a strategy by environment: development uses GORM
// AutoMigrate, test and production run versioned goose scripts.
func NewManager(environment string) *Manager {
	var strategy Strategy

	switch strings.ToLower(environment) {
	case constants.EnvTest, constants.EnvProduction:
		strategy = NewGooseStrategy("./internal/infrastructure/persistence/migrations/scripts")
	default:
		strategy = NewAutoMigrateStrategy()
	}

	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migrations.manager"),
	}
}

func NewManagerWithStrategy(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migrations.manager"),
	}
}

func (m *Manager) Migrate(db *gorm.DB) error {
	modelList := AllModels()

	m.logger.Infow("starting database migration",
		"strategy", m.strategy.GetName(),
		"models_count", len(modelList))

	if err := m.strategy.Migrate(db, modelList...); err != nil {
		m.logger.Errorw("migration failed",
			"strategy", m.strategy.GetName(),
			"error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed",
		"strategy", m.strategy.GetName())

	return nil
}

func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}

// AllModels lists every persisted model in creation order.
func AllModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.LicenseModel{},
		&models.PaymentModel{},
		&models.ActivationKeyModel{},
		&models.HWIDResetAuditModel{},
	}
}
