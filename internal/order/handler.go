package order

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/api"
	"marketplace/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo            Repository
	defaultCurrency string
}

func NewHandler(db *sqlx.DB, defaultCurrency string) *Handler {
	return &Handler{repo: NewRepository(db), defaultCurrency: defaultCurrency}
}

// Create godoc
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateOrderRequest  true  "Order data"
// @Success      201      {object}  Order
// @Failure      400      {object}  api.ErrorResponse
// @Router       /orders [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}

	o, err := h.repo.Create(c.Request.Context(), userID, req.ShopID, req.TotalCents, currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, o)
}

// Get godoc
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        orderID  path      int  true  "Order ID"
// @Success      200      {object}  Order
// @Failure      404      {object}  api.ErrorResponse
// @Router       /orders/{orderID} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	orderID, err := strconv.Atoi(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	o, err := h.repo.GetByID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}

	role, _ := auth.GetUserRole(c)
	if o.BuyerID != userID && role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
		return
	}

	c.JSON(http.StatusOK, o)
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=processing shipped delivered completed cancelled"`
}

// UpdateStatus godoc
// @Summary      Update order status
// @Description  Admin action: moves an order along its fulfilment lifecycle. Refunds go through the refund endpoint.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderID  path      int                  true  "Order ID"
// @Param        request  body      UpdateStatusRequest  true  "New status"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/orders/{orderID}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "status updated"})
}
