package usecases

import (
	"context"
	stderrors "errors"

	"keygate/internal/application/license/dto"
	"keygate/internal/domain/activation"
	"keygate/internal/domain/license"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/config"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// ActivateWithKeyUseCase redeems a single-use activation key for license
// time. Consuming the key and extending the license commit together; a key
// that two accounts race on is consumed by exactly one of them.
type ActivateWithKeyUseCase struct {
	keyRepo     activation.KeyRepository
	licenseRepo license.LicenseRepository
	txMgr       db.Transactor
	cfg         config.LicenseConfig
	clock       biztime.Clock
	logger      logger.Interface
}

func NewActivateWithKeyUseCase(
	keyRepo activation.KeyRepository,
	licenseRepo license.LicenseRepository,
	txMgr db.Transactor,
	cfg config.LicenseConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *ActivateWithKeyUseCase {
	return &ActivateWithKeyUseCase{
		keyRepo:     keyRepo,
		licenseRepo: licenseRepo,
		txMgr:       txMgr,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
	}
}

// Execute redeems the key for the user and returns the resulting snapshot.
func (uc *ActivateWithKeyUseCase) Execute(ctx context.Context, userID uint, code string) (*dto.LicenseSnapshot, error) {
	code = activation.NormalizeCode(code)
	if !activation.ValidCodeFormat(code) {
		return nil, errors.NewInvalidKeyError("malformed key code")
	}

	key, err := uc.keyRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewInvalidKeyError()
		}
		return nil, err
	}
	if key.IsUsed() {
		return nil, errors.NewKeyAlreadyUsedError()
	}

	attempts := uc.cfg.ExtendRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		lic, err := uc.tryRedeem(ctx, userID, key)
		if err == nil {
			uc.logger.Infow("activation key redeemed",
				"user_id", userID,
				"plan", key.Plan(),
				"duration_days", key.DurationDays(),
			)
			return dto.SnapshotFromLicense(lic, uc.clock.Now()), nil
		}
		if stderrors.Is(err, errors.ErrConcurrentModification) {
			uc.logger.Debugw("key redemption lost version race, retrying",
				"user_id", userID,
				"attempt", attempt,
			)
			continue
		}
		return nil, err
	}

	return nil, errors.NewExtensionConflictError()
}

func (uc *ActivateWithKeyUseCase) tryRedeem(ctx context.Context, userID uint, key *activation.Key) (*license.License, error) {
	now := uc.clock.Now()

	lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			return nil, err
		}
		lic, err = license.NewLicense(userID)
		if err != nil {
			return nil, err
		}
		if err := uc.licenseRepo.Create(ctx, lic); err != nil {
			return nil, err
		}
	}

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		won, err := uc.keyRepo.MarkUsedIfUnused(txCtx, key.Code(), userID)
		if err != nil {
			return err
		}
		if !won {
			return errors.NewKeyAlreadyUsedError()
		}

		if err := lic.Extend(key.Plan(), key.Duration(), now); err != nil {
			return err
		}
		return uc.licenseRepo.UpdateWithVersion(txCtx, lic)
	})
	if err != nil {
		return nil, err
	}
	return lic, nil
}
