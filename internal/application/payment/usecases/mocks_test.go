package usecases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"keygate/internal/application/payment/paymentgateway"
	"keygate/internal/domain/payment"
	vo "keygate/internal/domain/payment/valueobjects"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

func newTestLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func copyStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func clonePayment(p *payment.Payment) *payment.Payment {
	return payment.ReconstructPayment(
		p.ID(), p.OrderNo(), p.ExternalReference(), p.UserID(), p.Plan(), p.DurationDays(),
		p.Amount(), p.Status(),
		copyStrPtr(p.PaymentURL()), copyStrPtr(p.QRCode()), copyStrPtr(p.TransactionID()),
		copyTimePtr(p.ApprovedAt()), copyTimePtr(p.AppliedAt()),
		p.ExpiresAt(), p.Version(), p.CreatedAt(), p.UpdatedAt(),
	)
}

// mockPaymentRepo is an in-memory store with the same conditional update
// semantics as the SQL implementation.
type mockPaymentRepo struct {
	mu     sync.Mutex
	byRef  map[string]*payment.Payment
	nextID uint

	listErr   error
	updateErr error
	expireErr error
	staleHook func()
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{
		byRef:  make(map[string]*payment.Payment),
		nextID: 1,
	}
}

func (r *mockPaymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.SetID(r.nextID)
	r.nextID++
	r.byRef[p.ExternalReference()] = clonePayment(p)
	return nil
}

func (r *mockPaymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byRef[p.ExternalReference()]
	if !ok {
		return errors.NewNotFoundError("payment not found")
	}
	// Same column set as the SQL implementation: gateway artifacts and the
	// applied marker. Status and approval fields stay as stored.
	r.byRef[p.ExternalReference()] = payment.ReconstructPayment(
		stored.ID(), stored.OrderNo(), stored.ExternalReference(), stored.UserID(), stored.Plan(), stored.DurationDays(),
		stored.Amount(), stored.Status(),
		copyStrPtr(p.PaymentURL()), copyStrPtr(p.QRCode()), copyStrPtr(stored.TransactionID()),
		copyTimePtr(stored.ApprovedAt()), copyTimePtr(p.AppliedAt()),
		stored.ExpiresAt(), stored.Version(), stored.CreatedAt(), p.UpdatedAt(),
	)
	return nil
}

func (r *mockPaymentRepo) GetByID(ctx context.Context, pid uint) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byRef {
		if p.ID() == pid {
			return clonePayment(p), nil
		}
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (r *mockPaymentRepo) GetByOrderNo(ctx context.Context, orderNo string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byRef {
		if p.OrderNo() == orderNo {
			return clonePayment(p), nil
		}
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (r *mockPaymentRepo) GetByExternalReference(ctx context.Context, ref string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[ref]
	if !ok {
		return nil, errors.NewNotFoundError("payment not found")
	}
	return clonePayment(p), nil
}

func (r *mockPaymentRepo) ListByUserID(ctx context.Context, userID uint) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.byRef {
		if p.UserID() == userID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *mockPaymentRepo) ListPending(ctx context.Context) ([]*payment.Payment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.byRef {
		if p.Status() == vo.PaymentStatusPending {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *mockPaymentRepo) ListStalePending(ctx context.Context) ([]*payment.Payment, error) {
	r.mu.Lock()
	now := time.Now().UTC()
	var out []*payment.Payment
	for _, p := range r.byRef {
		if p.IsStale(now) {
			out = append(out, clonePayment(p))
		}
	}
	r.mu.Unlock()

	// Lets a test interleave a concurrent writer between the sweep's read
	// and its write.
	if r.staleHook != nil {
		r.staleHook()
	}
	return out, nil
}

func (r *mockPaymentRepo) MarkApprovedIfPending(ctx context.Context, ref, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[ref]
	if !ok {
		return false, errors.NewNotFoundError("payment not found")
	}
	if p.Status() != vo.PaymentStatusPending {
		return false, nil
	}
	clone := clonePayment(p)
	if err := clone.MarkApproved(transactionID); err != nil {
		return false, err
	}
	r.byRef[ref] = clone
	return true, nil
}

func (r *mockPaymentRepo) MarkRejectedIfPending(ctx context.Context, ref string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[ref]
	if !ok {
		return false, errors.NewNotFoundError("payment not found")
	}
	if p.Status() != vo.PaymentStatusPending {
		return false, nil
	}
	clone := clonePayment(p)
	if err := clone.MarkRejected(); err != nil {
		return false, err
	}
	r.byRef[ref] = clone
	return true, nil
}

func (r *mockPaymentRepo) MarkExpiredIfPending(ctx context.Context, ref string) (bool, error) {
	if r.expireErr != nil {
		return false, r.expireErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[ref]
	if !ok {
		return false, errors.NewNotFoundError("payment not found")
	}
	if p.Status() != vo.PaymentStatusPending {
		return false, nil
	}
	clone := clonePayment(p)
	if err := clone.MarkExpired(); err != nil {
		return false, err
	}
	r.byRef[ref] = clone
	return true, nil
}

// mustGet returns the stored payment for assertions.
func (r *mockPaymentRepo) mustGet(ref string) *payment.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[ref]
	if !ok {
		panic("payment not in mock repo")
	}
	return clonePayment(p)
}

// fakeExtender mimics the entitlement engine's extension path: it honors the
// applied marker stored in the repository and counts actual extensions.
type fakeExtender struct {
	mu    sync.Mutex
	repo  *mockPaymentRepo
	count map[string]int

	applyErr error
}

func newFakeExtender(repo *mockPaymentRepo) *fakeExtender {
	return &fakeExtender{
		repo:  repo,
		count: make(map[string]int),
	}
}

func (e *fakeExtender) Apply(ctx context.Context, pay *payment.Payment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.applyErr != nil {
		return e.applyErr
	}

	stored, err := e.repo.GetByExternalReference(ctx, pay.ExternalReference())
	if err != nil {
		return err
	}
	if stored.AppliedAt() != nil {
		return nil
	}
	if err := stored.MarkApplied(time.Now().UTC()); err != nil {
		return err
	}
	if err := e.repo.Update(ctx, stored); err != nil {
		return err
	}
	e.count[pay.ExternalReference()]++
	return nil
}

func (e *fakeExtender) extensions(ref string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count[ref]
}

// fakeGateway is a scriptable provider.
type fakeGateway struct {
	mu sync.Mutex

	chargeErr  error
	charges    int
	statusByRef map[string]*paymentgateway.ProviderUpdate
	queryErrRef map[string]error

	callbackUpdate *paymentgateway.ProviderUpdate
	callbackErr    error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statusByRef: make(map[string]*paymentgateway.ProviderUpdate),
		queryErrRef: make(map[string]error),
	}
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req paymentgateway.CreateChargeRequest) (*paymentgateway.CreateChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.charges++
	return &paymentgateway.CreateChargeResponse{
		PaymentURL: "https://pay.example/" + req.ExternalReference,
		QRCode:     "qr-" + req.ExternalReference,
	}, nil
}

func (g *fakeGateway) VerifyCallback(req *http.Request) (*paymentgateway.ProviderUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.callbackErr != nil {
		return nil, g.callbackErr
	}
	return g.callbackUpdate, nil
}

func (g *fakeGateway) QueryStatus(ctx context.Context, ref string) (*paymentgateway.ProviderUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.queryErrRef[ref]; ok {
		return nil, err
	}
	if update, ok := g.statusByRef[ref]; ok {
		return update, nil
	}
	return &paymentgateway.ProviderUpdate{
		ExternalReference: ref,
		Status:            paymentgateway.StatusPending,
	}, nil
}

func (g *fakeGateway) setStatus(update *paymentgateway.ProviderUpdate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusByRef[update.ExternalReference] = update
}

var errProviderDown = fmt.Errorf("provider unreachable")
