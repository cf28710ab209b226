package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-backend/internal/auth"
	"storefront-backend/internal/docs"
	"storefront-backend/internal/telemetry"
)

const defaultOrigin = "http://localhost:5173"

type RouterOptions struct {
	AllowedOrigins []string
	// TrustedProxies may set the client address through forwarding headers.
	// Nil trusts none, so ClientIP is the connection peer.
	TrustedProxies []string
	Logger         *slog.Logger
	// Metrics and MetricsHandler are optional.
	Metrics        *telemetry.Metrics
	MetricsHandler http.Handler
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{defaultOrigin}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", "proxies", opts.TrustedProxies, "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), telemetry.RequestLogger(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Cache-Control", "Expires", "Pragma"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", h.health)
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	docs.Register(r)

	authed := auth.Authenticate(h.Issuer)
	adminOnly := auth.RequireAdmin(h.storedRole)

	authGroup := r.Group("/api/auth", h.rateLimit)
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/check-auth", authed, h.checkAuth)
	}

	shop := r.Group("/api/shop")
	{
		shop.GET("/products/get", h.listProducts)
		shop.GET("/products/details/:id", h.productDetails)
		shop.GET("/search/:keyword", h.searchProducts)
		shop.GET("/review/:productId", h.productReviews)
	}

	user := r.Group("/api/shop", authed)
	{
		user.POST("/cart/add", h.addToCart)
		user.GET("/cart/get", h.fetchCart)
		user.PUT("/cart/update-cart", h.updateCartItem)
		user.DELETE("/cart/:productId", h.deleteCartItem)

		user.POST("/address/add", h.addAddress)
		user.GET("/address/get", h.fetchAddresses)
		user.PUT("/address/update/:addressId", h.editAddress)
		user.DELETE("/address/delete/:addressId", h.deleteAddress)

		user.POST("/order/create", h.createOrder)
		user.POST("/order/capture", h.capturePayment)
		user.GET("/order/list", h.listOrders)
		user.GET("/order/details/:id", h.orderDetails)

		user.POST("/review/add", h.addReview)
	}

	common := r.Group("/api/common/feature")
	{
		common.GET("/get", h.featureImages)
		common.POST("/add", authed, adminOnly, h.addFeatureImage)
		common.DELETE("/delete/:id", authed, adminOnly, h.deleteFeatureImage)
	}

	admin := r.Group("/api/admin", authed, adminOnly)
	{
		admin.POST("/products/upload-image", h.uploadImage)
		admin.POST("/products/add", h.addProduct)
		admin.PUT("/products/edit/:id", h.editProduct)
		admin.DELETE("/products/delete/:id", h.deleteProduct)
		admin.GET("/products/get", h.adminProducts)
		admin.POST("/products/import", h.importProducts)
		admin.POST("/products/reindex", h.reindexProducts)

		admin.GET("/orders/get", h.allOrders)
		admin.GET("/orders/details/:id", h.adminOrderDetails)
		admin.PUT("/orders/update/:id", h.updateOrderStatus)

		admin.GET("/users/get", h.allUsers)
		admin.PUT("/users/role/:id", h.updateUserRole)
		admin.DELETE("/users/delete/:id", h.deleteUser)

		admin.GET("/dashboard/summary", h.dashboard)
	}

	return r
}

func (h *Handler) health(c *gin.Context) {
	if err := h.Health(c.Request.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
