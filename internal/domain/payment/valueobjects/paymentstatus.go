package valueobjects

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusExpired  PaymentStatus = "expired"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected, PaymentStatusExpired:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) IsPending() bool {
	return s == PaymentStatusPending
}

func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved
}

// IsFinal reports whether the status is terminal. Terminal payments ignore
// any further provider updates.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected || s == PaymentStatusExpired
}

func (s PaymentStatus) String() string {
	return string(s)
}
