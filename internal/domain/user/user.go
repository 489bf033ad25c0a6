package user

import (
	"fmt"
	"strings"
	"time"

	"keygate/internal/shared/biztime"
)

// User is the identity anchor. Each user owns exactly one license record,
// created alongside the account.
type User struct {
	id           uint
	email        string
	passwordHash string
	isAdmin      bool

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a user with an already hashed password credential.
func NewUser(email, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}

	now := biztime.NowUTC()
	return &User{
		email:        email,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructUser rebuilds a user from persistence.
func ReconstructUser(id uint, email, passwordHash string, isAdmin bool, version int, createdAt, updatedAt time.Time) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	return &User{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		isAdmin:      isAdmin,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (u *User) ID() uint {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) PasswordHash() string {
	return u.passwordHash
}

func (u *User) IsAdmin() bool {
	return u.isAdmin
}

func (u *User) Version() int {
	return u.version
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// SetID sets the user ID after persistence.
func (u *User) SetID(id uint) {
	u.id = id
}

// GrantAdmin marks the user as an administrator.
func (u *User) GrantAdmin() {
	u.isAdmin = true
	u.updatedAt = biztime.NowUTC()
}
