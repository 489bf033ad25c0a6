package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"keygate/internal/application/license/dto"
	"keygate/internal/domain/license"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/config"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// AdminOverrideUseCase is the out-of-band admin channel: revoke, unrevoke,
// set an explicit expiry, or grant time directly. Grants go through the
// payment ledger as synthetic approved zero-amount payments so they share the
// extension path's idempotency marker and audit trail.
type AdminOverrideUseCase struct {
	licenseRepo license.LicenseRepository
	paymentRepo payment.PaymentRepository
	extend      *ExtendLicenseUseCase
	cfg         config.LicenseConfig
	clock       biztime.Clock
	logger      logger.Interface
}

func NewAdminOverrideUseCase(
	licenseRepo license.LicenseRepository,
	paymentRepo payment.PaymentRepository,
	extend *ExtendLicenseUseCase,
	cfg config.LicenseConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *AdminOverrideUseCase {
	return &AdminOverrideUseCase{
		licenseRepo: licenseRepo,
		paymentRepo: paymentRepo,
		extend:      extend,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
	}
}

// Revoke marks the user's license revoked. Idempotent.
func (uc *AdminOverrideUseCase) Revoke(ctx context.Context, userID uint) (*dto.LicenseSnapshot, error) {
	return uc.mutate(ctx, userID, func(lic *license.License, now time.Time) error {
		lic.Revoke(now)
		return nil
	})
}

// Unrevoke lifts a revocation. The status falls back to whatever the expiry
// dictates.
func (uc *AdminOverrideUseCase) Unrevoke(ctx context.Context, userID uint) (*dto.LicenseSnapshot, error) {
	return uc.mutate(ctx, userID, func(lic *license.License, now time.Time) error {
		return lic.ClearRevocation(now)
	})
}

// SetExpiry overwrites the expiry directly.
func (uc *AdminOverrideUseCase) SetExpiry(ctx context.Context, userID uint, expiresAt time.Time) (*dto.LicenseSnapshot, error) {
	return uc.mutate(ctx, userID, func(lic *license.License, now time.Time) error {
		lic.SetExpiry(expiresAt, now)
		return nil
	})
}

// GrantTime extends the user's license by durationDays without a purchase.
func (uc *AdminOverrideUseCase) GrantTime(ctx context.Context, userID uint, plan string, durationDays int) (*dto.LicenseSnapshot, error) {
	grant, err := payment.NewAdminGrant(userID, plan, durationDays)
	if err != nil {
		return nil, err
	}
	if err := uc.paymentRepo.Create(ctx, grant); err != nil {
		return nil, err
	}

	uc.logger.Infow("admin grant created",
		"user_id", userID,
		"external_reference", grant.ExternalReference(),
		"duration_days", durationDays,
	)

	if err := uc.extend.Apply(ctx, grant); err != nil {
		return nil, err
	}

	lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.SnapshotFromLicense(lic, uc.clock.Now()), nil
}

// mutate runs one admin mutation under the ledger's conditional write,
// retrying lost races from a fresh read.
func (uc *AdminOverrideUseCase) mutate(ctx context.Context, userID uint, fn func(lic *license.License, now time.Time) error) (*dto.LicenseSnapshot, error) {
	attempts := uc.cfg.ExtendRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		now := uc.clock.Now()

		lic, err := uc.licenseRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := fn(lic, now); err != nil {
			return nil, err
		}

		err = uc.licenseRepo.UpdateWithVersion(ctx, lic)
		if err == nil {
			return dto.SnapshotFromLicense(lic, now), nil
		}
		if stderrors.Is(err, errors.ErrConcurrentModification) {
			uc.logger.Debugw("admin override lost version race, retrying",
				"user_id", userID,
				"attempt", attempt,
			)
			continue
		}
		return nil, err
	}

	return nil, errors.NewExtensionConflictError()
}
