package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"keygate/internal/domain/license"
	"keygate/internal/domain/payment"
	vo "keygate/internal/domain/payment/valueobjects"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/config"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// ExtendLicenseUseCase converts an approved payment into license time.
//
// The payment's external reference is the idempotency key: the extension and
// the payment's applied marker are committed in one transaction, so a payment
// whose marker is already set extends nothing no matter how many times the
// provider redelivers the approval. Concurrent extensions for the same user
// are serialized by the ledger's conditional write; a lost race is retried
// from a fresh read up to the configured attempt budget.
type ExtendLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	paymentRepo payment.PaymentRepository
	txMgr       db.Transactor
	cfg         config.LicenseConfig
	clock       biztime.Clock
	logger      logger.Interface
}

func NewExtendLicenseUseCase(
	licenseRepo license.LicenseRepository,
	paymentRepo payment.PaymentRepository,
	txMgr db.Transactor,
	cfg config.LicenseConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *ExtendLicenseUseCase {
	return &ExtendLicenseUseCase{
		licenseRepo: licenseRepo,
		paymentRepo: paymentRepo,
		txMgr:       txMgr,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
	}
}

// Execute applies the extension funded by the payment with the given external
// reference. Safe to call repeatedly with the same reference.
func (uc *ExtendLicenseUseCase) Execute(ctx context.Context, externalReference string) error {
	pay, err := uc.paymentRepo.GetByExternalReference(ctx, externalReference)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return errors.NewNotFoundError("payment not found", externalReference)
		}
		return err
	}

	return uc.Apply(ctx, pay)
}

// Apply extends the payer's license by the payment's paid duration. The
// payment must be approved. An already-applied payment is a no-op.
func (uc *ExtendLicenseUseCase) Apply(ctx context.Context, pay *payment.Payment) error {
	if pay.Status() != vo.PaymentStatusApproved {
		return fmt.Errorf("payment %s is %s, only approved payments extend licenses", pay.ExternalReference(), pay.Status())
	}
	if pay.AppliedAt() != nil {
		uc.logger.Debugw("extension already applied, skipping",
			"external_reference", pay.ExternalReference(),
			"user_id", pay.UserID(),
		)
		return nil
	}

	attempts := uc.cfg.ExtendRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := uc.tryApply(ctx, pay.UserID(), pay.ExternalReference())
		if err == nil {
			uc.logger.Infow("license extended",
				"user_id", pay.UserID(),
				"external_reference", pay.ExternalReference(),
				"plan", pay.Plan(),
				"duration_days", pay.DurationDays(),
			)
			return nil
		}
		if stderrors.Is(err, errors.ErrConcurrentModification) {
			uc.logger.Debugw("extension lost version race, retrying",
				"user_id", pay.UserID(),
				"attempt", attempt,
			)
			continue
		}
		return err
	}

	return errors.NewExtensionConflictError()
}

// tryApply runs one read-recompute-write cycle. The license write and the
// payment's applied marker commit or roll back together.
func (uc *ExtendLicenseUseCase) tryApply(ctx context.Context, userID uint, externalReference string) error {
	now := uc.clock.Now()

	lic, err := uc.loadOrCreateLicense(ctx, userID)
	if err != nil {
		return err
	}

	return uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Re-read the payment inside the transaction so two appliers of
		// the same reference cannot both see a clear marker.
		pay, err := uc.paymentRepo.GetByExternalReference(txCtx, externalReference)
		if err != nil {
			return err
		}
		if pay.AppliedAt() != nil {
			return nil
		}

		if err := lic.Extend(pay.Plan(), pay.Duration(), now); err != nil {
			return err
		}
		if err := uc.licenseRepo.UpdateWithVersion(txCtx, lic); err != nil {
			return err
		}

		if err := pay.MarkApplied(now); err != nil {
			return err
		}
		return uc.paymentRepo.Update(txCtx, pay)
	})
}

func (uc *ExtendLicenseUseCase) loadOrCreateLicense(ctx context.Context, userID uint) (*license.License, error) {
	lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
	if err == nil {
		return lic, nil
	}
	if !errors.IsNotFoundError(err) {
		return nil, err
	}

	// Accounts normally get their license row at registration; recover if
	// it is missing rather than losing a paid extension.
	lic, err = license.NewLicense(userID)
	if err != nil {
		return nil, err
	}
	if err := uc.licenseRepo.Create(ctx, lic); err != nil {
		return nil, err
	}
	return lic, nil
}
