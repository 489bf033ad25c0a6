package usecases

import (
	"context"

	"keygate/internal/application/user/dto"
	"keygate/internal/domain/user"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
)

// LoginUseCase authenticates credentials and issues a bearer token.
type LoginUseCase struct {
	userRepo user.UserRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	logger   logger.Interface
}

func NewLoginUseCase(
	userRepo user.UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	logger logger.Interface,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		logger:   logger,
	}
}

// Execute verifies the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (uc *LoginUseCase) Execute(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	u, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}

	if err := uc.hasher.Compare(u.PasswordHash(), password); err != nil {
		uc.logger.Debugw("failed login attempt", "user_id", u.ID())
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}

	token, expiresAt, err := uc.issuer.Issue(u.ID(), u.IsAdmin())
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.FromUser(u),
	}, nil
}
