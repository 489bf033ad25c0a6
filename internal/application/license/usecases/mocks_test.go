package usecases

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"keygate/internal/domain/activation"
	"keygate/internal/domain/license"
	"keygate/internal/domain/payment"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

func newTestLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeClock is a settable clock for expiry math.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// passTxMgr runs the transactional function directly. Mock repositories
// apply writes immediately, so rollback is not simulated; tests order
// failure injection so it does not matter.
type passTxMgr struct{}

func (passTxMgr) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockLicenseRepo is an in-memory ledger with real compare-and-swap
// semantics: reads hand out clones, and UpdateWithVersion only lands when the
// caller's version matches the stored one.
type mockLicenseRepo struct {
	mu       sync.Mutex
	byUserID map[uint]*license.License
	nextID   uint

	getErr    error
	createErr error
	updateErr error
}

func newMockLicenseRepo() *mockLicenseRepo {
	return &mockLicenseRepo{
		byUserID: make(map[uint]*license.License),
		nextID:   1,
	}
}

func cloneLicense(l *license.License) *license.License {
	clone, err := license.ReconstructLicense(
		l.ID(), l.UserID(), l.Status(), l.Plan(),
		copyTimePtr(l.ExpiresAt()), copyStrPtr(l.HardwareID()), copyTimePtr(l.LastHWIDResetAt()),
		l.Version(), l.CreatedAt(), l.UpdatedAt(),
	)
	if err != nil {
		panic(err)
	}
	return clone
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyStrPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *mockLicenseRepo) Create(ctx context.Context, lic *license.License) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lic.SetID(r.nextID)
	r.nextID++
	r.byUserID[lic.UserID()] = cloneLicense(lic)
	return nil
}

func (r *mockLicenseRepo) GetByUserID(ctx context.Context, userID uint) (*license.License, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byUserID[userID]
	if !ok {
		return nil, errors.NewNotFoundError("license not found")
	}
	return cloneLicense(stored), nil
}

func (r *mockLicenseRepo) UpdateWithVersion(ctx context.Context, lic *license.License) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byUserID[lic.UserID()]
	if !ok {
		return errors.NewNotFoundError("license not found")
	}
	if stored.Version() != lic.Version() {
		return errors.ErrConcurrentModification
	}
	next, err := license.ReconstructLicense(
		lic.ID(), lic.UserID(), lic.Status(), lic.Plan(),
		copyTimePtr(lic.ExpiresAt()), copyStrPtr(lic.HardwareID()), copyTimePtr(lic.LastHWIDResetAt()),
		lic.Version()+1, lic.CreatedAt(), lic.UpdatedAt(),
	)
	if err != nil {
		return err
	}
	r.byUserID[lic.UserID()] = next
	return nil
}

// mustGet returns the stored license for assertions.
func (r *mockLicenseRepo) mustGet(userID uint) *license.License {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byUserID[userID]
	if !ok {
		panic("license not in mock repo")
	}
	return cloneLicense(stored)
}

// mockPaymentRepo keeps payments keyed by external reference.
type mockPaymentRepo struct {
	mu    sync.Mutex
	byRef map[string]*payment.Payment
	nextID uint

	getErr    error
	updateErr error
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{
		byRef:  make(map[string]*payment.Payment),
		nextID: 1,
	}
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
	if r.getErr != nil {
		return nil, r.getErr
	}
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.byRef {
		if p.Status() == "pending" {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *mockPaymentRepo) ListStalePending(ctx context.Context) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.byRef {
		if p.IsStale(time.Now().UTC()) {
			out = append(out, clonePayment(p))
		}
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
	if p.Status() != "pending" {
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
	if p.Status() != "pending" {
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
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[ref]
	if !ok {
		return false, errors.NewNotFoundError("payment not found")
	}
	if p.Status() != "pending" {
		return false, nil
	}
	clone := clonePayment(p)
	if err := clone.MarkExpired(); err != nil {
		return false, err
	}
	r.byRef[ref] = clone
	return true, nil
}

// mockKeyRepo stores activation keys with a conditional consume.
type mockKeyRepo struct {
	mu     sync.Mutex
	byCode map[string]*activation.Key
	nextID uint
}

func newMockKeyRepo() *mockKeyRepo {
	return &mockKeyRepo{
		byCode: make(map[string]*activation.Key),
		nextID: 1,
	}
}

func cloneKey(k *activation.Key) *activation.Key {
	var usedBy *uint
	if k.UsedBy() != nil {
		v := *k.UsedBy()
		usedBy = &v
	}
	return activation.ReconstructKey(k.ID(), k.Code(), k.Plan(), k.DurationDays(), usedBy, copyTimePtr(k.UsedAt()), k.CreatedAt())
}

func (r *mockKeyRepo) Create(ctx context.Context, k *activation.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k.SetID(r.nextID)
	r.nextID++
	r.byCode[k.Code()] = cloneKey(k)
	return nil
}

func (r *mockKeyRepo) GetByCode(ctx context.Context, code string) (*activation.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byCode[code]
	if !ok {
		return nil, errors.NewNotFoundError("activation key not found")
	}
	return cloneKey(k), nil
}

func (r *mockKeyRepo) MarkUsedIfUnused(ctx context.Context, code string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byCode[code]
	if !ok {
		return false, errors.NewNotFoundError("activation key not found")
	}
	if k.IsUsed() {
		return false, nil
	}
	now := time.Now().UTC()
	r.byCode[code] = activation.ReconstructKey(k.ID(), k.Code(), k.Plan(), k.DurationDays(), &userID, &now, k.CreatedAt())
	return true, nil
}

// mockAuditRepo is an append-only list.
type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*license.HWIDResetAudit

	appendErr error
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (r *mockAuditRepo) Append(ctx context.Context, entry *license.HWIDResetAudit) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.SetID(uint(len(r.entries) + 1))
	r.entries = append(r.entries, entry)
	return nil
}

func (r *mockAuditRepo) ListByUserID(ctx context.Context, userID uint) ([]*license.HWIDResetAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*license.HWIDResetAudit
	for _, e := range r.entries {
		if e.UserID() == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
