package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"keygate/internal/application/payment/usecases"
	"keygate/internal/interfaces/http/middleware"
	"keygate/internal/shared/errors"
	"keygate/internal/shared/logger"
	"keygate/internal/shared/utils"
)

type CreatePaymentRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// PaymentHandler exposes purchase creation, lookup, the plan catalog and
// the provider webhook endpoint.
type PaymentHandler struct {
	createUC   *usecases.CreatePaymentUseCase
	getUC      *usecases.GetPaymentUseCase
	callbackUC *usecases.HandleCallbackUseCase
	logger     logger.Interface
}

func NewPaymentHandler(
	createUC *usecases.CreatePaymentUseCase,
	getUC *usecases.GetPaymentUseCase,
	callbackUC *usecases.HandleCallbackUseCase,
	log logger.Interface,
) *PaymentHandler {
	return &PaymentHandler{
		createUC:   createUC,
		getUC:      getUC,
		callbackUC: callbackUC,
		logger:     log,
	}
}

// Create handles POST /api/v1/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("plan is required"))
		return
	}

	resp, err := h.createUC.Execute(c.Request.Context(), userID, req.Plan)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, resp, "Payment created")
}

// Get handles GET /api/v1/payments/:orderNo
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authentication")
		return
	}

	orderNo := c.Param("orderNo")
	if orderNo == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("order number is required"))
		return
	}

	resp, err := h.getUC.Execute(c.Request.Context(), userID, orderNo)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// Plans handles GET /api/v1/plans
func (h *PaymentHandler) Plans(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", usecases.ListPlans())
}

// Callback handles POST /api/v1/payments/callback. The provider retries
// on any non-2xx response, so a failed reconciliation must not be
// acknowledged.
func (h *PaymentHandler) Callback(c *gin.Context) {
	if err := h.callbackUC.Execute(c.Request); err != nil {
		h.logger.Errorw("payment callback processing failed", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	// Plain body, not the API envelope: this is for the provider.
	c.String(http.StatusOK, "success")
}
