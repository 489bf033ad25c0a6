package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/domain/license"
	vo "keygate/internal/domain/license/valueobjects"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/config"
	"keygate/internal/shared/errors"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testLicenseConfig() config.LicenseConfig {
	return config.LicenseConfig{
		HWIDResetWindowDays: 30,
		ExtendRetryAttempts: 3,
	}
}

func newExtendUC(licRepo *mockLicenseRepo, payRepo *mockPaymentRepo, clock *fakeClock) *ExtendLicenseUseCase {
	return NewExtendLicenseUseCase(licRepo, payRepo, passTxMgr{}, testLicenseConfig(), clock, newTestLogger())
}

func seedLicense(t *testing.T, repo *mockLicenseRepo, userID uint) {
	t.Helper()
	lic, err := license.NewLicense(userID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), lic))
}

func seedApprovedPayment(t *testing.T, repo *mockPaymentRepo, userID uint, planID string) *payment.Payment {
	t.Helper()
	plan, err := payment.LookupPlan(planID)
	require.NoError(t, err)
	p, err := payment.NewPayment(userID, plan, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, p.MarkApproved("txn_test"))
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestExtendLicense_AppliesApprovedPayment(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	p := seedApprovedPayment(t, payRepo, 1, "30days")

	require.NoError(t, uc.Execute(context.Background(), p.ExternalReference()))

	lic := licRepo.mustGet(1)
	require.NotNil(t, lic.ExpiresAt())
	assert.Equal(t, testBase.Add(30*24*time.Hour), *lic.ExpiresAt())
	assert.Equal(t, vo.StatusActive, lic.DeriveStatus(testBase))
	assert.Equal(t, "30days", lic.Plan())

	stored, err := payRepo.GetByExternalReference(context.Background(), p.ExternalReference())
	require.NoError(t, err)
	assert.NotNil(t, stored.AppliedAt())
}

func TestExtendLicense_DuplicateReferenceIsNoOp(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	p := seedApprovedPayment(t, payRepo, 1, "7days")

	require.NoError(t, uc.Execute(context.Background(), p.ExternalReference()))
	firstExpiry := *licRepo.mustGet(1).ExpiresAt()

	// Redelivered approval for the same reference must not extend again.
	require.NoError(t, uc.Execute(context.Background(), p.ExternalReference()))
	require.NoError(t, uc.Execute(context.Background(), p.ExternalReference()))

	assert.Equal(t, firstExpiry, *licRepo.mustGet(1).ExpiresAt())
}

func TestExtendLicense_PreservesRemainingTime(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	first := seedApprovedPayment(t, payRepo, 1, "30days")
	require.NoError(t, uc.Execute(context.Background(), first.ExternalReference()))

	// Ten days in, buying a week lands on top of the remaining twenty days.
	clock.Advance(10 * 24 * time.Hour)
	second := seedApprovedPayment(t, payRepo, 1, "7days")
	require.NoError(t, uc.Execute(context.Background(), second.ExternalReference()))

	want := testBase.Add(37 * 24 * time.Hour)
	assert.Equal(t, want, *licRepo.mustGet(1).ExpiresAt())
}

func TestExtendLicense_DistinctReferencesBothApply(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	p1 := seedApprovedPayment(t, payRepo, 1, "7days")
	p2 := seedApprovedPayment(t, payRepo, 1, "7days")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, ref := range []string{p1.ExternalReference(), p2.ExternalReference()} {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			errs[i] = uc.Execute(context.Background(), ref)
		}(i, ref)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Both purchases land exactly once each, whatever the interleaving.
	assert.Equal(t, testBase.Add(14*24*time.Hour), *licRepo.mustGet(1).ExpiresAt())
}

func TestExtendLicense_PendingPaymentDoesNotExtend(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	plan, err := payment.LookupPlan("7days")
	require.NoError(t, err)
	p, err := payment.NewPayment(1, plan, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, payRepo.Create(context.Background(), p))

	err = uc.Execute(context.Background(), p.ExternalReference())
	require.Error(t, err)
	assert.Nil(t, licRepo.mustGet(1).ExpiresAt())
}

func TestExtendLicense_RetryExhaustionIsConflict(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	p := seedApprovedPayment(t, payRepo, 1, "7days")

	licRepo.updateErr = errors.ErrConcurrentModification

	err := uc.Execute(context.Background(), p.ExternalReference())
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "EXTENSION_CONFLICT", appErr.Details)
}

func TestExtendLicense_CreatesMissingLicenseRow(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	p := seedApprovedPayment(t, payRepo, 7, "7days")

	require.NoError(t, uc.Execute(context.Background(), p.ExternalReference()))

	lic := licRepo.mustGet(7)
	assert.Equal(t, vo.StatusActive, lic.DeriveStatus(testBase))
}

func TestExtendLicense_RevokedGainsTimeButStaysRevoked(t *testing.T) {
	licRepo := newMockLicenseRepo()
	payRepo := newMockPaymentRepo()
	clock := newFakeClock(testBase)
	uc := newExtendUC(licRepo, payRepo, clock)

	seedLicense(t, licRepo, 1)
	lic, err := licRepo.GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	lic.Revoke(testBase)
	require.NoError(t, licRepo.UpdateWithVersion(context.Background(), lic))

	p := seedApprovedPayment(t, payRepo, 1, "30days")
	require.NoError(t, uc.Execute(context.Background(), p.ExternalReference()))

	stored := licRepo.mustGet(1)
	require.NotNil(t, stored.ExpiresAt())
	assert.Equal(t, testBase.Add(30*24*time.Hour), *stored.ExpiresAt())
	assert.Equal(t, vo.StatusRevoked, stored.DeriveStatus(testBase))
}
