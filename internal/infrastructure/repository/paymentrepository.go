package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"keygate/internal/domain/payment"
	vo "keygate/internal/domain/payment/valueobjects"
	"keygate/internal/infrastructure/persistence/mappers"
	"keygate/internal/infrastructure/persistence/models"
	"keygate/internal/shared/biztime"
	"keygate/internal/shared/db"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/mapper"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := mappers.PaymentToModel(p)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	p.SetID(model.ID)
	return nil
}

// Update persists gateway artifacts and the applied marker. Status and the
// approval fields are deliberately absent from the column set: transitions go
// through the Mark*IfPending gates only, so a stale in-memory copy can never
// roll a payment back.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := mappers.PaymentToModel(p)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"payment_url": model.PaymentURL,
			"qr_code":     model.QRCode,
			"applied_at":  model.AppliedAt,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}

	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, pid uint) (*payment.Payment, error) {
	var model models.PaymentModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, pid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return mappers.PaymentToDomain(&model)
}

func (r *PaymentRepository) GetByOrderNo(ctx context.Context, orderNo string) (*payment.Payment, error) {
	var model models.PaymentModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_no = ?", orderNo).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment by order_no: %w", err)
	}

	return mappers.PaymentToDomain(&model)
}

func (r *PaymentRepository) GetByExternalReference(ctx context.Context, externalReference string) (*payment.Payment, error) {
	var model models.PaymentModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("external_reference = ?", externalReference).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment by external_reference: %w", err)
	}

	return mappers.PaymentToDomain(&model)
}

func (r *PaymentRepository) ListByUserID(ctx context.Context, userID uint) ([]*payment.Payment, error) {
	var ms []models.PaymentModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return r.toDomainList(ms)
}

func (r *PaymentRepository) ListPending(ctx context.Context) ([]*payment.Payment, error) {
	var ms []models.PaymentModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", vo.PaymentStatusPending.String()).
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	return r.toDomainList(ms)
}

func (r *PaymentRepository) ListStalePending(ctx context.Context) ([]*payment.Payment, error) {
	var ms []models.PaymentModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND expires_at < ?", vo.PaymentStatusPending.String(), biztime.NowUTC()).
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale payments: %w", err)
	}

	return r.toDomainList(ms)
}

// MarkApprovedIfPending flips pending -> approved with one conditional
// update. Exactly one caller per reference observes true; everyone else sees
// the row already claimed.
func (r *PaymentRepository) MarkApprovedIfPending(ctx context.Context, externalReference, transactionID string) (bool, error) {
	now := biztime.NowUTC()

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("external_reference = ? AND status = ?", externalReference, vo.PaymentStatusPending.String()).
		Updates(map[string]interface{}{
			"status":         vo.PaymentStatusApproved.String(),
			"transaction_id": transactionID,
			"approved_at":    now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to approve payment: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *PaymentRepository) MarkRejectedIfPending(ctx context.Context, externalReference string) (bool, error) {
	now := biztime.NowUTC()

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("external_reference = ? AND status = ?", externalReference, vo.PaymentStatusPending.String()).
		Updates(map[string]interface{}{
			"status":     vo.PaymentStatusRejected.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reject payment: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *PaymentRepository) MarkExpiredIfPending(ctx context.Context, externalReference string) (bool, error) {
	now := biztime.NowUTC()

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("external_reference = ? AND status = ?", externalReference, vo.PaymentStatusPending.String()).
		Updates(map[string]interface{}{
			"status":     vo.PaymentStatusExpired.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to expire payment: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *PaymentRepository) toDomainList(ms []models.PaymentModel) ([]*payment.Payment, error) {
	return mapper.MapSliceWithError(ms, func(m models.PaymentModel) (*payment.Payment, error) {
		return mappers.PaymentToDomain(&m)
	})
}
