package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keygate/internal/application/license/usecases"
	"keygate/internal/domain/license"
	"keygate/internal/interfaces/http/middleware"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
	"keygate/internal/shared/utils"
)

type HeartbeatRequest struct {
	HWID string `json:"hwid" binding:"required" validate:"required,max=128"`
}

type ActivateRequest struct {
	Code string `json:"code" binding:"required"`
}

type ResetHWIDRequest struct {
	Reason string `json:"reason"`
}

// LicenseHandler exposes the license lifecycle to authenticated clients:
// status lookup, heartbeat, key activation and hardware resets.
type LicenseHandler struct {
	evaluateUC  *usecases.EvaluateLicenseUseCase
	heartbeatUC *usecases.HeartbeatUseCase
	activateUC  *usecases.ActivateWithKeyUseCase
	resetUC     *usecases.ResetHWIDUseCase
	logger      logger.Interface
}

func NewLicenseHandler(
	evaluateUC *usecases.EvaluateLicenseUseCase,
	heartbeatUC *usecases.HeartbeatUseCase,
	activateUC *usecases.ActivateWithKeyUseCase,
	resetUC *usecases.ResetHWIDUseCase,
	log logger.Interface,
) *LicenseHandler {
	return &LicenseHandler{
		evaluateUC:  evaluateUC,
		heartbeatUC: heartbeatUC,
		activateUC:  activateUC,
		resetUC:     resetUC,
		logger:      log,
	}
}

// Status handles GET /api/v1/license
func (h *LicenseHandler) Status(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	snapshot, err := h.evaluateUC.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", snapshot)
}

// Heartbeat handles POST /api/v1/license/heartbeat
func (h *LicenseHandler) Heartbeat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("hwid is required"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.heartbeatUC.Execute(c.Request.Context(), userID, req.HWID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	// Denials are results, not errors: the client gets a 200 with
	// ok=false and a machine-readable reason.
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Activate handles POST /api/v1/license/activate
func (h *LicenseHandler) Activate(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("activation code is required"))
		return
	}

	snapshot, err := h.activateUC.Execute(c.Request.Context(), userID, req.Code)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "License activated", snapshot)
}

// ResetHWID handles POST /api/v1/license/reset-hwid
func (h *LicenseHandler) ResetHWID(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req ResetHWIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}
	reason := req.Reason
	if reason == "" {
		reason = "user requested hardware change"
	}

	if err := h.resetUC.Execute(c.Request.Context(), userID, license.ResetActorUser, reason); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	snapshot, err := h.evaluateUC.Execute(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Hardware binding cleared", snapshot)
}
