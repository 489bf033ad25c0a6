package payment

import "context"

// PaymentRepository stores purchase attempts keyed by external reference.
//
// Status never changes through Update: every transition out of pending goes
// through one of the Mark*IfPending gates, each a single conditional update
// reporting whether this caller won the race. Exactly one caller observes
// true per payment and transition, so the webhook, the poller and the
// staleness sweep cannot overwrite each other's outcome.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	// Update persists gateway artifacts and the applied marker. It leaves
	// status, transaction id and approval time untouched.
	Update(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, pid uint) (*Payment, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*Payment, error)
	GetByExternalReference(ctx context.Context, externalReference string) (*Payment, error)
	ListByUserID(ctx context.Context, userID uint) ([]*Payment, error)
	ListPending(ctx context.Context) ([]*Payment, error)
	ListStalePending(ctx context.Context) ([]*Payment, error)

	MarkApprovedIfPending(ctx context.Context, externalReference, transactionID string) (bool, error)
	MarkRejectedIfPending(ctx context.Context, externalReference string) (bool, error)
	MarkExpiredIfPending(ctx context.Context, externalReference string) (bool, error)
}
