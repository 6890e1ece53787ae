package shop

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/auth"
	"marketplace/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// Create godoc
// @Summary      Create shop
// @Description  Registers a shop for the authenticated seller. Shops start unapproved.
// @Tags         shops
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateShopRequest  true  "Shop data"
// @Success      201      {object}  Shop
// @Failure      400      {object}  api.ErrorResponse
// @Router       /shops [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.repo.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create shop"})
		return
	}

	c.JSON(http.StatusCreated, s)
}

// GetMine godoc
// @Summary      Get own shop with balance
// @Tags         shops
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Shop
// @Failure      404  {object}  api.ErrorResponse
// @Router       /shops/my [get]
func (h *Handler) GetMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	s, err := h.repo.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrShopNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load shop"})
		return
	}

	c.JSON(http.StatusOK, s)
}

// Approve godoc
// @Summary      Approve shop
// @Description  Admin action enabling payouts for a shop.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        shopID  path      int  true  "Shop ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/shops/{shopID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	shopID, err := strconv.Atoi(c.Param("shopID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop id"})
		return
	}

	if err := h.repo.SetApproved(c.Request.Context(), shopID, true); err != nil {
		if errors.Is(err, ErrShopNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve shop"})
		return
	}

	logger.Info("shop approved", "shop_id", shopID)
	c.JSON(http.StatusOK, gin.H{"message": "shop approved"})
}
