package server

import (
	"context"
	"net/http"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/gateway"
	"marketplace/internal/ledger"
	"marketplace/internal/notify"
	"marketplace/internal/order"
	"marketplace/internal/payment"
	"marketplace/internal/refund"
	"marketplace/internal/shop"
	"marketplace/internal/user"
	"marketplace/internal/withdrawal"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	db       *sqlx.DB
	config   *config.Config
	notifier *notify.Service
	Payments payment.Service
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notify.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	userRepo := user.NewRepository(db)
	shopRepo := shop.NewRepository(db)
	orderRepo := order.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)

	fees := ledger.FeeCalculator{
		WithdrawalRateBP: cfg.WithdrawalRateBP,
		WithdrawalMinFee: cfg.WithdrawalMinFee,
	}
	gw := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayShopID, cfg.GatewaySecretKey)

	paymentService := payment.NewService(orderRepo, shopRepo, ledgerRepo, userRepo, gw, notifier,
		fees, cfg.Currency, cfg.GatewayWebhookSecret)
	withdrawalService := withdrawal.NewService(shopRepo, ledgerRepo, userRepo, notifier,
		fees, cfg.MinWithdrawal)
	refundService := refund.NewService(orderRepo, ledgerRepo, userRepo, notifier, fees)

	userHandler := user.NewHandler(user.NewService(userRepo, cfg.JWTSecret))
	shopHandler := shop.NewHandler(db)
	orderHandler := order.NewHandler(db, cfg.Currency)
	paymentHandler := payment.NewHandler(paymentService)
	withdrawalHandler := withdrawal.NewHandler(withdrawalService)
	refundHandler := refund.NewHandler(refundService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
	}

	// The gateway is not authenticated by JWT; the HMAC signature over the
	// raw body is the credential.
	router.POST("/webhooks/gateway", paymentHandler.Webhook)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders/:orderID", orderHandler.Get)
		protected.POST("/payments", paymentHandler.Create)
		protected.GET("/payments/:transactionID", paymentHandler.Status)
	}

	seller := router.Group("/")
	seller.Use(authMiddleware, auth.RequireRole(auth.RoleSeller))
	{
		seller.POST("/shops", shopHandler.Create)
		seller.GET("/shops/mine", shopHandler.GetMine)
		seller.POST("/withdrawals", withdrawalHandler.Create)
		seller.GET("/withdrawals", withdrawalHandler.List)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/shops/:shopID/approve", shopHandler.Approve)
		admin.PATCH("/orders/:orderID/status", orderHandler.UpdateStatus)
		admin.POST("/orders/:orderID/refund", refundHandler.Refund)
		admin.GET("/withdrawals", withdrawalHandler.List)
		admin.POST("/withdrawals/:transactionID/approve", withdrawalHandler.Approve)
		admin.POST("/withdrawals/:transactionID/reject", withdrawalHandler.Reject)
		admin.POST("/payments/reconcile", paymentHandler.Reconcile)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router:   router,
		db:       db,
		config:   cfg,
		notifier: notifier,
		Payments: paymentService,
	}
}

func (s *Server) Start(port string) error {
	s.httpSrv = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
