package payment

import (
	"net/http"

	"marketplace/internal/api"
	"marketplace/internal/auth"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the webhook HMAC from the gateway.
const SignatureHeader = "X-Webhook-Signature"

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreatePaymentRequest struct {
	OrderID   int    `json:"order_id" binding:"required"`
	ReturnURL string `json:"return_url" binding:"required,url"`
}

// Create godoc
// @Summary      Create payment intent
// @Description  Opens a gateway payment for a pending order and returns the redirect URL.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreatePaymentRequest  true  "Payment data"
// @Success      201      {object}  CreatePaymentResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /payments [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	result, err := h.service.CreatePayment(c.Request.Context(), req.OrderID, req.ReturnURL, userID)
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Webhook godoc
// @Summary      Gateway payment webhook
// @Description  Verifies the signature over the raw body and applies the notification idempotently.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /webhooks/gateway [post]
func (h *Handler) Webhook(c *gin.Context) {
	// The signature covers the exact bytes on the wire; the body must not be
	// parsed and re-encoded before verification.
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if err := h.service.ConfirmWebhook(c.Request.Context(), raw, c.GetHeader(SignatureHeader)); err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
}

// Status godoc
// @Summary      Get payment status
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        transactionID  path      string  true  "Transaction ID"
// @Success      200            {object}  ledger.Transaction
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Router       /payments/{transactionID} [get]
func (h *Handler) Status(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	role, _ := auth.GetUserRole(c)

	tx, err := h.service.GetPaymentStatus(c.Request.Context(), c.Param("transactionID"), userID, role)
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

// Reconcile godoc
// @Summary      Trigger reconciliation pass
// @Description  Admin action: lists recent gateway payments and recreates missing ledger rows.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int
// @Router       /admin/payments/reconcile [post]
func (h *Handler) Reconcile(c *gin.Context) {
	repaired, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}
