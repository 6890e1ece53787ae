package refund

import (
	"net/http"
	"strconv"

	"marketplace/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RefundRequest struct {
	Reason      string `json:"reason" binding:"required,max=500"`
	AmountCents int64  `json:"amount_cents" binding:"omitempty,gt=0"` // 0 = full order total
}

// Refund godoc
// @Summary      Refund order
// @Description  Admin action: records a refund for a delivered or completed order and marks it refunded.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderID  path      int            true  "Order ID"
// @Param        request  body      RefundRequest  true  "Refund data"
// @Success      201      {object}  ledger.Transaction
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/orders/{orderID}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	tx, err := h.service.Refund(c.Request.Context(), orderID, req.Reason, req.AmountCents)
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}
