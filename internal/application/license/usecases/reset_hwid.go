package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"keygate/internal/domain/license"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/config"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// ResetHWIDUseCase clears a license's hardware binding so the next heartbeat
// rebinds. Self-service resets are limited to one per rolling window;
// admin-forced resets bypass the window only when the deployment allows it.
// Every reset leaves an audit entry, written in the same transaction as the
// binding change.
type ResetHWIDUseCase struct {
	licenseRepo license.LicenseRepository
	auditRepo   license.AuditRepository
	txMgr       db.Transactor
	cfg         config.LicenseConfig
	clock       biztime.Clock
	logger      logger.Interface
}

func NewResetHWIDUseCase(
	licenseRepo license.LicenseRepository,
	auditRepo license.AuditRepository,
	txMgr db.Transactor,
	cfg config.LicenseConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *ResetHWIDUseCase {
	return &ResetHWIDUseCase{
		licenseRepo: licenseRepo,
		auditRepo:   auditRepo,
		txMgr:       txMgr,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
	}
}

// Execute resets the hardware binding for the user on behalf of the actor.
func (uc *ResetHWIDUseCase) Execute(ctx context.Context, userID uint, actor license.ResetActor, reason string) error {
	attempts := uc.cfg.ExtendRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	bypassWindow := actor == license.ResetActorAdmin && uc.cfg.AdminResetBypassesWindow
	window := uc.resetWindow()

	for attempt := 1; attempt <= attempts; attempt++ {
		err := uc.tryReset(ctx, userID, actor, reason, window, bypassWindow)
		if err == nil {
			uc.logger.Infow("hardware binding reset",
				"user_id", userID,
				"actor", string(actor),
			)
			return nil
		}
		if stderrors.Is(err, errors.ErrConcurrentModification) {
			uc.logger.Debugw("hardware reset lost version race, retrying",
				"user_id", userID,
				"attempt", attempt,
			)
			continue
		}
		return err
	}

	return errors.NewExtensionConflictError()
}

func (uc *ResetHWIDUseCase) tryReset(
	ctx context.Context,
	userID uint,
	actor license.ResetActor,
	reason string,
	window time.Duration,
	bypassWindow bool,
) error {
	now := uc.clock.Now()

	lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if err := lic.ResetHWID(now, window, bypassWindow); err != nil {
		return err
	}

	entry, err := license.NewHWIDResetAudit(userID, reason, actor)
	if err != nil {
		return err
	}

	return uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.licenseRepo.UpdateWithVersion(txCtx, lic); err != nil {
			return err
		}
		return uc.auditRepo.Append(txCtx, entry)
	})
}

func (uc *ResetHWIDUseCase) resetWindow() time.Duration {
	days := uc.cfg.HWIDResetWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
