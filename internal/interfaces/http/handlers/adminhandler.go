package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	licenseUsecases "keygate/internal/application/license/usecases"
	"keygate/internal/domain/license"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
	"keygate/internal/shared/utils"
)

type AdminLicenseActionRequest struct {
	Action       string `json:"action" binding:"required" validate:"required,oneof=extend revoke unrevoke set_expiry reset_hwid"`
	Plan         string `json:"plan"`
	DurationDays int    `json:"duration_days" validate:"omitempty,gte=1"`
	ExpiresAt    string `json:"expires_at"`
	Reason       string `json:"reason" validate:"omitempty,max=255"`
}

type AdminAuditEntry struct {
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminHandler exposes the override channel: direct license mutations
// that bypass the payment pipeline but still go through the ledger's
// conditional writes.
type AdminHandler struct {
	overrideUC *licenseUsecases.AdminOverrideUseCase
	resetUC    *licenseUsecases.ResetHWIDUseCase
	evaluateUC *licenseUsecases.EvaluateLicenseUseCase
	createKeyUC *licenseUsecases.CreateActivationKeyUseCase
	auditRepo  license.AuditRepository
	logger     logger.Interface
}

func NewAdminHandler(
	overrideUC *licenseUsecases.AdminOverrideUseCase,
	resetUC *licenseUsecases.ResetHWIDUseCase,
	evaluateUC *licenseUsecases.EvaluateLicenseUseCase,
	createKeyUC *licenseUsecases.CreateActivationKeyUseCase,
	auditRepo license.AuditRepository,
	log logger.Interface,
) *AdminHandler {
	return &AdminHandler{
		overrideUC:  overrideUC,
		resetUC:     resetUC,
		evaluateUC:  evaluateUC,
		createKeyUC: createKeyUC,
		auditRepo:   auditRepo,
		logger:      log,
	}
}

// GetLicense handles GET /api/v1/admin/licenses/:userID
func (h *AdminHandler) GetLicense(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	snapshot, err := h.evaluateUC.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	entries, err := h.auditRepo.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	audits := make([]AdminAuditEntry, 0, len(entries))
	for _, e := range entries {
		audits = append(audits, AdminAuditEntry{
			Reason:    e.Reason(),
			Actor:     string(e.Actor()),
			CreatedAt: e.CreatedAt(),
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"license":     snapshot,
		"hwid_resets": audits,
	})
}

// Act handles POST /api/v1/admin/licenses/:userID
func (h *AdminHandler) Act(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req AdminLicenseActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("action is required"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("admin license action",
		"target_user_id", userID,
		"action", req.Action,
	)

	ctx := c.Request.Context()

	switch req.Action {
	case "extend":
		snapshot, err := h.overrideUC.GrantTime(ctx, userID, req.Plan, req.DurationDays)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "License extended", snapshot)

	case "revoke":
		snapshot, err := h.overrideUC.Revoke(ctx, userID)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "License revoked", snapshot)

	case "unrevoke":
		snapshot, err := h.overrideUC.Unrevoke(ctx, userID)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "License restored", snapshot)

	case "set_expiry":
		expiresAt, parseErr := time.Parse(time.RFC3339, req.ExpiresAt)
		if parseErr != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("expires_at must be RFC3339"))
			return
		}
		snapshot, err := h.overrideUC.SetExpiry(ctx, userID, expiresAt)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Expiry updated", snapshot)

	case "reset_hwid":
		reason := req.Reason
		if reason == "" {
			reason = "admin reset"
		}
		if err := h.resetUC.Execute(ctx, userID, license.ResetActorAdmin, reason); err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		snapshot, err := h.evaluateUC.Execute(ctx, userID)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Hardware binding cleared", snapshot)

	default:
		utils.ErrorResponseWithError(c, errors.NewValidationError("unknown action", req.Action))
	}
}

type CreateKeysRequest struct {
	Plan         string `json:"plan" binding:"required" validate:"required,max=64"`
	DurationDays int    `json:"duration_days" binding:"required" validate:"required,gte=1,lte=3650"`
	Count        int    `json:"count" validate:"omitempty,gte=1,lte=100"`
}

// CreateKeys handles POST /api/v1/admin/activation-keys
func (h *AdminHandler) CreateKeys(c *gin.Context) {
	var req CreateKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("plan and duration_days are required"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	count := req.Count
	if count <= 0 {
		count = 1
	}

	codes, err := h.createKeyUC.Execute(c.Request.Context(), req.Plan, req.DurationDays, count)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"codes": codes}, "Activation keys created")
}

func parseUserID(c *gin.Context) (uint, error) {
	raw := c.Param("userID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("invalid user id", raw)
	}
	return uint(id), nil
}
