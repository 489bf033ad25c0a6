package payment

import (
	"fmt"
	"time"

	vo "keygate/internal/domain/payment/valueobjects"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/id"
)

// Payment is one purchase attempt. Its external reference doubles as the
// idempotency key for the license extension it funds: an approved payment
// drives at most one extension no matter how many times the provider
// delivers the approval.
type Payment struct {
	pid               uint
	orderNo           string
	externalReference string
	userID            uint
	plan              string
	durationDays      int
	amount            vo.Money
	status            vo.PaymentStatus

	paymentURL *string
	qrCode     *string

	transactionID *string
	approvedAt    *time.Time
	appliedAt     *time.Time
	expiresAt     time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewPayment creates a pending purchase for the given plan. stalenessWindow
// bounds how long the payment may sit pending before the sweep expires it.
func NewPayment(userID uint, plan Plan, stalenessWindow time.Duration) (*Payment, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if plan.DurationDays <= 0 {
		return nil, fmt.Errorf("plan duration must be positive")
	}
	if stalenessWindow <= 0 {
		return nil, fmt.Errorf("staleness window must be positive")
	}

	orderNo := id.MustGenerateWithPrefix(id.PrefixPayment, 16)
	now := biztime.NowUTC()

	return &Payment{
		orderNo: orderNo,
		// The provider echoes this back in webhooks and status queries.
		externalReference: orderNo,
		userID:            userID,
		plan:              plan.ID,
		durationDays:      plan.DurationDays,
		amount:            vo.NewMoney(plan.AmountCents, plan.Currency),
		status:            vo.PaymentStatusPending,
		expiresAt:         now.Add(stalenessWindow),
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// NewAdminGrant creates an already-approved zero-amount payment backing an
// admin-granted extension. Funneling grants through the payment ledger gives
// them the same idempotency marker and audit trail as purchases; the "adm"
// reference prefix keeps them distinguishable from provider traffic.
func NewAdminGrant(userID uint, plan string, durationDays int) (*Payment, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("grant duration must be positive")
	}

	ref := id.MustGenerateWithPrefix(id.PrefixAdminOverride, 16)
	now := biztime.NowUTC()

	return &Payment{
		orderNo:           ref,
		externalReference: ref,
		userID:            userID,
		plan:              plan,
		durationDays:      durationDays,
		amount:            vo.NewMoney(0, ""),
		status:            vo.PaymentStatusApproved,
		approvedAt:        &now,
		expiresAt:         now,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructPayment rebuilds a payment from persistence.
func ReconstructPayment(
	pid uint,
	orderNo, externalReference string,
	userID uint,
	plan string,
	durationDays int,
	amount vo.Money,
	status vo.PaymentStatus,
	paymentURL, qrCode, transactionID *string,
	approvedAt, appliedAt *time.Time,
	expiresAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		pid:               pid,
		orderNo:           orderNo,
		externalReference: externalReference,
		userID:            userID,
		plan:              plan,
		durationDays:      durationDays,
		amount:            amount,
		status:            status,
		paymentURL:        paymentURL,
		qrCode:            qrCode,
		transactionID:     transactionID,
		approvedAt:        approvedAt,
		appliedAt:         appliedAt,
		expiresAt:         expiresAt,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (p *Payment) ID() uint {
	return p.pid
}

func (p *Payment) OrderNo() string {
	return p.orderNo
}

// ExternalReference is the provider-facing idempotency key.
func (p *Payment) ExternalReference() string {
	return p.externalReference
}

func (p *Payment) UserID() uint {
	return p.userID
}

func (p *Payment) Plan() string {
	return p.plan
}

func (p *Payment) DurationDays() int {
	return p.durationDays
}

// Duration is the paid time this payment buys.
func (p *Payment) Duration() time.Duration {
	return time.Duration(p.durationDays) * 24 * time.Hour
}

func (p *Payment) Amount() vo.Money {
	return p.amount
}

func (p *Payment) Status() vo.PaymentStatus {
	return p.status
}

func (p *Payment) PaymentURL() *string {
	return p.paymentURL
}

func (p *Payment) QRCode() *string {
	return p.qrCode
}

func (p *Payment) TransactionID() *string {
	return p.transactionID
}

func (p *Payment) ApprovedAt() *time.Time {
	return p.approvedAt
}

// AppliedAt is when the license extension for this payment landed. Nil means
// the extension has not been applied yet.
func (p *Payment) AppliedAt() *time.Time {
	return p.appliedAt
}

func (p *Payment) ExpiresAt() time.Time {
	return p.expiresAt
}

func (p *Payment) Version() int {
	return p.version
}

func (p *Payment) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Payment) UpdatedAt() time.Time {
	return p.updatedAt
}

// SetID sets the payment ID after persistence (used by repository after Create).
func (p *Payment) SetID(pid uint) {
	p.pid = pid
}

// SetGatewayInfo attaches the provider checkout URL and QR code.
func (p *Payment) SetGatewayInfo(paymentURL, qrCode string) {
	p.paymentURL = &paymentURL
	p.qrCode = &qrCode
	p.updatedAt = biztime.NowUTC()
}

// MarkApproved transitions pending -> approved. Approval of an already
// approved payment is a no-op; any other terminal state is an error because
// the provider should never approve a rejected or expired payment.
func (p *Payment) MarkApproved(transactionID string) error {
	if p.status == vo.PaymentStatusApproved {
		return nil
	}
	if p.status != vo.PaymentStatusPending {
		return fmt.Errorf("cannot approve payment with status %s", p.status)
	}

	now := biztime.NowUTC()
	p.status = vo.PaymentStatusApproved
	p.transactionID = &transactionID
	p.approvedAt = &now
	p.updatedAt = now

	return nil
}

// MarkRejected transitions pending -> rejected. Terminal states are left
// alone.
func (p *Payment) MarkRejected() error {
	if p.status.IsFinal() {
		return nil
	}

	p.status = vo.PaymentStatusRejected
	p.updatedAt = biztime.NowUTC()

	return nil
}

// MarkExpired transitions pending -> expired. Terminal states are left alone.
func (p *Payment) MarkExpired() error {
	if p.status.IsFinal() {
		return nil
	}

	p.status = vo.PaymentStatusExpired
	p.updatedAt = biztime.NowUTC()

	return nil
}

// MarkApplied records that the license extension for this payment landed.
func (p *Payment) MarkApplied(now time.Time) error {
	if p.status != vo.PaymentStatusApproved {
		return fmt.Errorf("cannot apply extension for payment with status %s", p.status)
	}
	if p.appliedAt != nil {
		return nil
	}
	p.appliedAt = &now
	p.updatedAt = now
	return nil
}

// IsStale reports whether a pending payment has outlived its staleness
// window and should be expired by the sweep.
func (p *Payment) IsStale(now time.Time) bool {
	return p.status == vo.PaymentStatusPending && now.After(p.expiresAt)
}

// ValidateCallbackAmount checks that the provider-reported amount matches
// what was quoted. Provider input is untrusted until it survives this check.
func (p *Payment) ValidateCallbackAmount(amountCents int64, currency string) error {
	if p.amount.AmountInCents() != amountCents {
		return fmt.Errorf("amount mismatch: expected %d, got %d", p.amount.AmountInCents(), amountCents)
	}
	if p.amount.Currency() != currency {
		return fmt.Errorf("currency mismatch: expected %s, got %s", p.amount.Currency(), currency)
	}
	return nil
}
