// Package usecases implements account registration and login.
package usecases

import (
	"context"
	"time"

	"keygate/internal/application/user/dto"
	"keygate/internal/domain/license"
	"keygate/internal/domain/user"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// PasswordHasher hashes and verifies password credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer mints bearer tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID uint, isAdmin bool) (token string, expiresAt time.Time, err error)
}

// RegisterUseCase creates an account together with its empty license record.
type RegisterUseCase struct {
	userRepo    user.UserRepository
	licenseRepo license.LicenseRepository
	hasher      PasswordHasher
	txMgr       db.Transactor
	logger      logger.Interface
}

func NewRegisterUseCase(
	userRepo user.UserRepository,
	licenseRepo license.LicenseRepository,
	hasher PasswordHasher,
	txMgr db.Transactor,
	logger logger.Interface,
) *RegisterUseCase {
	return &RegisterUseCase{
		userRepo:    userRepo,
		licenseRepo: licenseRepo,
		hasher:      hasher,
		txMgr:       txMgr,
		logger:      logger,
	}
}

// Execute registers a new account. The account and its license row are
// created in one transaction.
func (uc *RegisterUseCase) Execute(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	if len(password) < 8 {
		return nil, errors.NewValidationError("password must be at least 8 characters")
	}

	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.NewConflictError("email is already registered")
	} else if !errors.IsNotFoundError(err) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := user.NewUser(email, hash)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.userRepo.Create(txCtx, u); err != nil {
			if errors.IsDuplicateError(err) {
				return errors.NewConflictError("email is already registered")
			}
			return err
		}
		lic, err := license.NewLicense(u.ID())
		if err != nil {
			return err
		}
		return uc.licenseRepo.Create(txCtx, lic)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("user registered", "user_id", u.ID(), "email", u.Email())
	return dto.FromUser(u), nil
}
