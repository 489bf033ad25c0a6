// Package activation holds manually issued activation keys. A key encodes a
// plan and duration and is consumed exactly once.
package activation

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"keygate/internal/shared/biztime"
)

// Key code format: four groups of four characters from an unambiguous
// uppercase alphabet (no 0/O, 1/I).
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var keyCodePattern = regexp.MustCompile(`^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`)

// ValidCodeFormat reports whether a presented key code is well-formed.
// Malformed codes are rejected before any storage lookup.
func ValidCodeFormat(code string) bool {
	return keyCodePattern.MatchString(code)
}

// NormalizeCode uppercases and trims a presented key code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateCode produces a new random key code.
func GenerateCode() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}

	chars := make([]byte, 16)
	for i, b := range raw {
		chars[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}

	return fmt.Sprintf("%s-%s-%s-%s", chars[0:4], chars[4:8], chars[8:12], chars[12:16]), nil
}

// Key is a single-use activation key.
type Key struct {
	id           uint
	code         string
	plan         string
	durationDays int
	usedBy       *uint
	usedAt       *time.Time
	createdAt    time.Time
}

// NewKey mints an activation key for the given plan and duration.
func NewKey(plan string, durationDays int) (*Key, error) {
	if plan == "" {
		return nil, fmt.Errorf("plan is required")
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	return &Key{
		code:         code,
		plan:         plan,
		durationDays: durationDays,
		createdAt:    biztime.NowUTC(),
	}, nil
}

// ReconstructKey rebuilds a key from persistence.
func ReconstructKey(id uint, code, plan string, durationDays int, usedBy *uint, usedAt *time.Time, createdAt time.Time) *Key {
	return &Key{
		id:           id,
		code:         code,
		plan:         plan,
		durationDays: durationDays,
		usedBy:       usedBy,
		usedAt:       usedAt,
		createdAt:    createdAt,
	}
}

func (k *Key) ID() uint {
	return k.id
}

func (k *Key) Code() string {
	return k.code
}

func (k *Key) Plan() string {
	return k.plan
}

func (k *Key) DurationDays() int {
	return k.durationDays
}

// Duration is the paid time this key grants.
func (k *Key) Duration() time.Duration {
	return time.Duration(k.durationDays) * 24 * time.Hour
}

func (k *Key) UsedBy() *uint {
	return k.usedBy
}

func (k *Key) UsedAt() *time.Time {
	return k.usedAt
}

func (k *Key) IsUsed() bool {
	return k.usedBy != nil
}

func (k *Key) CreatedAt() time.Time {
	return k.createdAt
}

// SetID sets the key ID after persistence.
func (k *Key) SetID(id uint) {
	k.id = id
}
