package routes

import (
	"caketime/controllers"
	"caketime/entity"
	"caketime/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(c *Container) *gin.Engine {
	r := gin.New()
	// ClientIP feeds the rate limiter, so forwarded headers count only from known proxies
	if err := r.SetTrustedProxies(c.Config.TrustedProxies); err != nil {
		c.Logger.Warn("ignoring trusted proxies", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middlewares.RequestID(),
		middlewares.RequestLogger(c.Logger),
		gin.Recovery(),
		middlewares.CORSMiddleware(c.Config.FrontendURL),
	)
	RegisterRoutes(r, c)
	return r
}

func RegisterRoutes(r *gin.Engine, c *Container) {
	healthCtrl := controllers.NewHealthController(c.DB)
	r.GET("/health", healthCtrl.Health)

	// Controllers
	authCtrl := controllers.NewAuthController(c.Auth)
	productCtrl := controllers.NewProductController(c.Products)
	orderCtrl := controllers.NewOrderController(c.Orders)
	customCtrl := controllers.NewCustomOrderController(c.CustomOrders)
	reviewCtrl := controllers.NewReviewController(c.Reviews)
	paymentCtrl := controllers.NewPaymentController(c.Payments, c.Orders)
	adminCtrl := controllers.NewAdminController(c.Reports)

	customer := middlewares.AuthMiddleware(c.CustomerTokens, c.Auth)
	optionalCustomer := middlewares.OptionalAuth(c.CustomerTokens, c.Auth)
	admin := middlewares.AdminAuthMiddleware(c.AdminTokens, c.Auth, c.Auth)
	adminOnly := middlewares.RequireRoles(entity.RoleAdmin)

	// the gateway retries on its own schedule, keep it out of the rate limit
	r.POST("/api/v1/payment/webhook", paymentCtrl.Webhook)

	limiter := middlewares.NewIPRateLimiter(c.Config.RateLimitRequests, c.Config.RateLimitWindow)
	v1 := r.Group("/api/v1", middlewares.RateLimit(limiter))

	// Customer auth
	a := v1.Group("/auth")
	{
		a.POST("/register", authCtrl.Register)
		a.POST("/login", authCtrl.Login)
		a.GET("/me", customer, authCtrl.Me)
	}

	// Admin auth
	aa := v1.Group("/admin/auth")
	{
		aa.POST("/login", authCtrl.AdminLogin)
		aa.POST("/create-admin", admin, adminOnly, authCtrl.CreateAdmin)
		aa.GET("/me", admin, authCtrl.Me)
		aa.POST("/logout", admin, authCtrl.AdminLogout)
	}

	// Products
	p := v1.Group("/products")
	{
		p.GET("", productCtrl.List)
		p.GET("/:id", productCtrl.Get)
		p.POST("", admin, productCtrl.Create)
		p.PUT("/:id", admin, productCtrl.Update)
		p.DELETE("/:id", admin, adminOnly, productCtrl.Delete)
	}

	// Orders
	o := v1.Group("/orders")
	{
		o.POST("", optionalCustomer, orderCtrl.Create)
		o.GET("", admin, orderCtrl.List)
		o.GET("/:id", admin, orderCtrl.Get)
		o.PUT("/:id/status", admin, orderCtrl.UpdateStatus)
		o.DELETE("/:id", admin, orderCtrl.Cancel)
	}

	// Custom orders
	co := v1.Group("/custom-orders")
	{
		co.POST("", customCtrl.Create)
		co.GET("", admin, customCtrl.List)
		co.GET("/:id", admin, customCtrl.Get)
		co.PUT("/:id", admin, customCtrl.Update)
	}

	// Reviews
	rv := v1.Group("/reviews")
	{
		rv.GET("/product/:productId", reviewCtrl.ForProduct)
		rv.POST("", customer, reviewCtrl.Create)
		rv.GET("", admin, reviewCtrl.List)
		rv.PATCH("/:id/approve", admin, reviewCtrl.Approve)
		rv.DELETE("/:id", admin, reviewCtrl.Delete)
	}

	// Payment
	pay := v1.Group("/payment")
	{
		pay.POST("/create-intent", paymentCtrl.CreateIntent)
		pay.POST("/create-checkout-session", paymentCtrl.CreateCheckoutSession)
		pay.POST("/verify", paymentCtrl.Verify)
		pay.GET("/status/:intentId", paymentCtrl.Status)
		pay.GET("/orders", customer, paymentCtrl.MyOrders)
		pay.GET("/orders/:id", customer, paymentCtrl.MyOrder)
	}

	// Admin reporting
	ad := v1.Group("/admin")
	{
		ad.GET("/stats", admin, adminCtrl.Stats)
		ad.GET("/sales-report", admin, adminCtrl.SalesReport)
		ad.GET("/customer-report", admin, adminCtrl.CustomerReport)
		ad.GET("/export/orders", admin, adminCtrl.ExportOrders)
		ad.GET("/ws/orders", middlewares.WSAuthMiddleware(c.AdminTokens, c.Auth, c.Auth), c.Feed.HandleWebSocket)
	}
}
