package usecases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/domain/license"
	"keygate/internal/domain/user"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

func newTestLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type passTxMgr struct{}

func (passTxMgr) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// plainHasher is a reversible stand-in for bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

type staticIssuer struct{}

func (staticIssuer) Issue(userID uint, isAdmin bool) (string, time.Time, error) {
	return fmt.Sprintf("token-%d-%v", userID, isAdmin), time.Now().Add(time.Hour), nil
}

type mockUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
	nextID  uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byEmail: make(map[string]*user.User),
		nextID:  1,
	}
}

func (r *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email()]; ok {
		return fmt.Errorf("Duplicate entry '%s'", u.Email())
	}
	u.SetID(r.nextID)
	r.nextID++
	r.byEmail[u.Email()] = u
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id uint) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID() == id {
			return u, nil
		}
	}
	return nil, errors.NewNotFoundError("user not found")
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, errors.NewNotFoundError("user not found")
	}
	return u, nil
}

type mockLicenseRepo struct {
	mu       sync.Mutex
	byUserID map[uint]*license.License
	nextID   uint
}

func newMockLicenseRepo() *mockLicenseRepo {
	return &mockLicenseRepo{
		byUserID: make(map[uint]*license.License),
		nextID:   1,
	}
}

func (r *mockLicenseRepo) Create(ctx context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lic.SetID(r.nextID)
	r.nextID++
	r.byUserID[lic.UserID()] = lic
	return nil
}

func (r *mockLicenseRepo) GetByUserID(ctx context.Context, userID uint) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lic, ok := r.byUserID[userID]
	if !ok {
		return nil, errors.NewNotFoundError("license not found")
	}
	return lic, nil
}

func (r *mockLicenseRepo) UpdateWithVersion(ctx context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUserID[lic.UserID()] = lic
	return nil
}

func newRegisterUC(userRepo *mockUserRepo, licRepo *mockLicenseRepo) *RegisterUseCase {
	return NewRegisterUseCase(userRepo, licRepo, plainHasher{}, passTxMgr{}, newTestLogger())
}

func TestRegister_CreatesUserAndLicenseRow(t *testing.T) {
	userRepo := newMockUserRepo()
	licRepo := newMockLicenseRepo()
	uc := newRegisterUC(userRepo, licRepo)

	resp, err := uc.Execute(context.Background(), "Buyer@Example.com ", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", resp.Email)
	assert.False(t, resp.IsAdmin)

	lic, err := licRepo.GetByUserID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Nil(t, lic.ExpiresAt())
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"short password", "a@b.com", "short"},
		{"missing email", "", "hunter2hunter2"},
		{"not an email", "nope", "hunter2hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newRegisterUC(newMockUserRepo(), newMockLicenseRepo())
			_, err := uc.Execute(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := newMockUserRepo()
	licRepo := newMockLicenseRepo()
	uc := newRegisterUC(userRepo, licRepo)

	_, err := uc.Execute(context.Background(), "a@b.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), "a@b.com", "hunter2hunter2")
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))
}

func TestLogin_Succeeds(t *testing.T) {
	userRepo := newMockUserRepo()
	licRepo := newMockLicenseRepo()
	reg := newRegisterUC(userRepo, licRepo)
	login := NewLoginUseCase(userRepo, plainHasher{}, staticIssuer{}, newTestLogger())

	resp, err := reg.Execute(context.Background(), "a@b.com", "hunter2hunter2")
	require.NoError(t, err)

	auth, err := login.Execute(context.Background(), "a@b.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, resp.ID, auth.User.ID)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	userRepo := newMockUserRepo()
	licRepo := newMockLicenseRepo()
	reg := newRegisterUC(userRepo, licRepo)
	login := NewLoginUseCase(userRepo, plainHasher{}, staticIssuer{}, newTestLogger())

	_, err := reg.Execute(context.Background(), "a@b.com", "hunter2hunter2")
	require.NoError(t, err)

	_, wrongPass := login.Execute(context.Background(), "a@b.com", "wrong-password")
	_, unknownUser := login.Execute(context.Background(), "nobody@b.com", "hunter2hunter2")

	require.Error(t, wrongPass)
	require.Error(t, unknownUser)
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
}
