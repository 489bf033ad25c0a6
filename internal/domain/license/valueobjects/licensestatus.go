package valueobjects

type LicenseStatus string

const (
	// StatusNone means the account has never held time on its license.
	StatusNone LicenseStatus = "none"
	// StatusActive means expires_at is set and lies in the future.
	StatusActive LicenseStatus = "active"
	// StatusExpired means expires_at is set and has passed.
	StatusExpired LicenseStatus = "expired"
	// StatusRevoked is sticky until an admin clears it.
	StatusRevoked LicenseStatus = "revoked"
)

func (s LicenseStatus) IsValid() bool {
	switch s {
	case StatusNone, StatusActive, StatusExpired, StatusRevoked:
		return true
	default:
		return false
	}
}

func (s LicenseStatus) IsActive() bool {
	return s == StatusActive
}

func (s LicenseStatus) IsRevoked() bool {
	return s == StatusRevoked
}

func (s LicenseStatus) String() string {
	return string(s)
}
