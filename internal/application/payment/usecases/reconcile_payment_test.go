package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/application/payment/paymentgateway"
	"keygate/internal/domain/payment"
	vo "keygate/internal/domain/payment/valueobjects"
)

func seedPendingPayment(t *testing.T, repo *mockPaymentRepo, userID uint, planID string) *payment.Payment {
	t.Helper()
	plan, err := payment.LookupPlan(planID)
	require.NoError(t, err)
	p, err := payment.NewPayment(userID, plan, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func approvedUpdate(p *payment.Payment) *paymentgateway.ProviderUpdate {
	return &paymentgateway.ProviderUpdate{
		ExternalReference: p.ExternalReference(),
		TransactionID:     "txn_1",
		AmountCents:       p.Amount().AmountInCents(),
		Currency:          p.Amount().Currency(),
		Status:            paymentgateway.StatusApproved,
	}
}

func TestReconcile_ApprovalExtendsOnce(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "30days")

	require.NoError(t, uc.Execute(context.Background(), approvedUpdate(p)))

	stored := repo.mustGet(p.ExternalReference())
	assert.Equal(t, vo.PaymentStatusApproved, stored.Status())
	assert.NotNil(t, stored.AppliedAt())
	assert.Equal(t, "txn_1", *stored.TransactionID())
	assert.Equal(t, 1, extender.extensions(p.ExternalReference()))
}

func TestReconcile_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "7days")

	require.NoError(t, uc.Execute(context.Background(), approvedUpdate(p)))
	require.NoError(t, uc.Execute(context.Background(), approvedUpdate(p)))
	require.NoError(t, uc.Execute(context.Background(), approvedUpdate(p)))

	assert.Equal(t, 1, extender.extensions(p.ExternalReference()))
}

func TestReconcile_WebhookPollerRace(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "7days")

	// The webhook and the poller observe the approval at the same time.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = uc.Execute(context.Background(), approvedUpdate(p))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, extender.extensions(p.ExternalReference()))
}

func TestReconcile_AmountMismatchRejects(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "30days")

	update := approvedUpdate(p)
	update.AmountCents = 1
	require.NoError(t, uc.Execute(context.Background(), update))

	stored := repo.mustGet(p.ExternalReference())
	assert.Equal(t, vo.PaymentStatusRejected, stored.Status())
	assert.Equal(t, 0, extender.extensions(p.ExternalReference()))
}

func TestReconcile_RejectionFromProvider(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "7days")

	update := approvedUpdate(p)
	update.Status = paymentgateway.StatusRejected
	require.NoError(t, uc.Execute(context.Background(), update))

	assert.Equal(t, vo.PaymentStatusRejected, repo.mustGet(p.ExternalReference()).Status())

	// A late approval for the rejected payment changes nothing.
	require.NoError(t, uc.Execute(context.Background(), approvedUpdate(p)))
	assert.Equal(t, vo.PaymentStatusRejected, repo.mustGet(p.ExternalReference()).Status())
	assert.Equal(t, 0, extender.extensions(p.ExternalReference()))
}

func TestReconcile_UnknownReferenceErrors(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	err := uc.Execute(context.Background(), &paymentgateway.ProviderUpdate{
		ExternalReference: "pay_nope",
		Status:            paymentgateway.StatusApproved,
	})
	require.Error(t, err)
}

func TestReconcile_PendingUpdateIsNoOp(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "7days")

	update := approvedUpdate(p)
	update.Status = paymentgateway.StatusPending
	require.NoError(t, uc.Execute(context.Background(), update))

	assert.Equal(t, vo.PaymentStatusPending, repo.mustGet(p.ExternalReference()).Status())
}

func TestReconcile_ExtensionFailureRedelivered(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "30days")

	// First delivery approves the payment but the extension fails.
	extender.applyErr = assert.AnError
	err := uc.Execute(context.Background(), approvedUpdate(p))
	require.Error(t, err)

	stored := repo.mustGet(p.ExternalReference())
	assert.Equal(t, vo.PaymentStatusApproved, stored.Status())
	assert.Nil(t, stored.AppliedAt())

	// The provider redelivers; the approved-but-unapplied payment is
	// picked up and extended exactly once.
	extender.applyErr = nil
	require.NoError(t, uc.Execute(context.Background(), approvedUpdate(p)))
	assert.Equal(t, 1, extender.extensions(p.ExternalReference()))
	assert.NotNil(t, repo.mustGet(p.ExternalReference()).AppliedAt())
}

func TestReconcile_PollResponseWithoutAmount(t *testing.T) {
	repo := newMockPaymentRepo()
	extender := newFakeExtender(repo)
	uc := NewReconcilePaymentUseCase(repo, extender, newTestLogger())

	p := seedPendingPayment(t, repo, 1, "7days")

	update := approvedUpdate(p)
	update.AmountCents = 0
	update.Currency = ""
	require.NoError(t, uc.Execute(context.Background(), update))

	assert.Equal(t, vo.PaymentStatusApproved, repo.mustGet(p.ExternalReference()).Status())
	assert.Equal(t, 1, extender.extensions(p.ExternalReference()))
}
