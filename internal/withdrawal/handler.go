package withdrawal

import (
	"net/http"
	"strconv"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/ledger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Request withdrawal
// @Description  Opens a pending withdrawal and holds the gross amount on the shop balance.
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateWithdrawalRequest  true  "Withdrawal data"
// @Success      201      {object}  ledger.Transaction
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /withdrawals [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	tx, err := h.service.Request(c.Request.Context(), userID, req)
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// List godoc
// @Summary      List withdrawals
// @Description  Sellers see their own withdrawals; admins see everyone's.
// @Tags         withdrawals
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        limit   query     int     false  "Page size"      default(20)
// @Param        offset  query     int     false  "Page offset"    default(0)
// @Success      200     {array}   ledger.Transaction
// @Router       /withdrawals [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	role, _ := auth.GetUserRole(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := ledger.Status(c.Query("status"))

	txs, err := h.service.List(c.Request.Context(), userID, role != auth.RoleAdmin, status, limit, offset)
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}

// Approve godoc
// @Summary      Approve withdrawal
// @Description  Admin action: the held amount becomes a permanent debit.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        transactionID  path      string  true  "Transaction ID"
// @Success      200            {object}  ledger.Transaction
// @Failure      404            {object}  api.ErrorResponse
// @Failure      409            {object}  api.ErrorResponse
// @Router       /admin/withdrawals/{transactionID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	tx, err := h.service.Approve(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

// Reject godoc
// @Summary      Reject withdrawal
// @Description  Admin action: the held amount is returned to the shop balance.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        transactionID  path      string  true  "Transaction ID"
// @Success      200            {object}  ledger.Transaction
// @Failure      404            {object}  api.ErrorResponse
// @Failure      409            {object}  api.ErrorResponse
// @Router       /admin/withdrawals/{transactionID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	tx, err := h.service.Reject(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		api.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}
