package usecases

import (
	"context"

	"keygate/internal/domain/activation"
	"keygate/internal/shared/logger"
)

// CreateActivationKeyUseCase mints single-use activation keys. Operator-only;
// exposed through the CLI rather than the HTTP surface.
type CreateActivationKeyUseCase struct {
	keyRepo activation.KeyRepository
	logger  logger.Interface
}

func NewCreateActivationKeyUseCase(keyRepo activation.KeyRepository, logger logger.Interface) *CreateActivationKeyUseCase {
	return &CreateActivationKeyUseCase{keyRepo: keyRepo, logger: logger}
}

// Execute mints count keys for the plan and returns their codes.
func (uc *CreateActivationKeyUseCase) Execute(ctx context.Context, plan string, durationDays, count int) ([]string, error) {
	if count <= 0 {
		count = 1
	}

	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		key, err := activation.NewKey(plan, durationDays)
		if err != nil {
			return nil, err
		}
		if err := uc.keyRepo.Create(ctx, key); err != nil {
			return nil, err
		}
		codes = append(codes, key.Code())
	}

	uc.logger.Infow("activation keys minted", "plan", plan, "duration_days", durationDays, "count", len(codes))
	return codes, nil
}
