package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/valelectronic/dera-backend/internal/handler"    // import the handlers that implement business logic
	"github.com/valelectronic/dera-backend/internal/middleware" // import middleware for session auth and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check,
// which load balancers and monitoring systems use to verify that the
// service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", handler.Health)
}

// RegisterAuth registers all authentication-related routes.  Credential
// operations live under /api/auth without session middleware; profile is
// protected because it returns the user the session middleware resolved.
// The optional limiter middleware (redis token bucket) fronts the
// credential endpoints to slow down guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, protect echo.MiddlewareFunc, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	// Signup and login mint a fresh token pair and set both cookies.
	g.POST("/signup", a.SignUp)
	g.POST("/login", a.LogIn)
	// Logout is reachable without a valid access token: it only needs the
	// refresh cookie, and succeeds even without one (idempotent).
	g.POST("/logout", a.LogOut)
	// Refresh exchanges the refresh cookie for a fresh access cookie.
	g.POST("/refresh", a.Refresh)
	// Profile requires a live session.
	g.GET("/profile", a.Profile, protect)
}

// RegisterCatalog registers the product browse and admin routes.  The
// public GETs sit behind the redis response cache when one is configured.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, protect echo.MiddlewareFunc, cache echo.MiddlewareFunc) {
	g := e.Group("/api/product")
	pub := []echo.MiddlewareFunc{}
	if cache != nil {
		pub = append(pub, cache)
	}
	g.GET("/featured", p.Featured, pub...)
	g.GET("/category/:category", p.ByCategory, pub...)

	admin := g.Group("", protect, middleware.RequireAdmin())
	admin.GET("", p.List)
	admin.POST("", p.Create)
	admin.PATCH("/:id", p.ToggleFeatured)
	admin.DELETE("/:id", p.Delete)
}

// RegisterCart registers the per-user cart routes; every route requires a
// session.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, protect echo.MiddlewareFunc) {
	g := e.Group("/api/cart", protect)
	g.POST("", h.Add)
	g.GET("", h.List)
	g.PUT("/:id", h.UpdateQuantity)
	g.DELETE("/:id", h.Remove)
	g.DELETE("", h.Clear)
}

// RegisterCoupons registers the coupon routes; both require a session.
func RegisterCoupons(e *echo.Echo, h *handler.CouponHandler, protect echo.MiddlewareFunc) {
	g := e.Group("/api/coupons", protect)
	g.GET("", h.Get)
	g.POST("/validate", h.Validate)
}

// RegisterPayments registers checkout and reconciliation routes.  The
// webhook is deliberately unauthenticated at the session level: the
// gateway is not a logged-in user, and the HMAC signature over the raw
// body is its only credential.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, protect echo.MiddlewareFunc) {
	g := e.Group("/api/payments")
	g.POST("/checkout", h.CreateCheckoutSession, protect)
	g.POST("/webhook", h.Webhook)
	g.POST("/verify", h.VerifyPayment, protect)
}

// RegisterAnalytics registers the admin dashboard aggregate route.
func RegisterAnalytics(e *echo.Echo, h *handler.AnalyticsHandler, protect echo.MiddlewareFunc) {
	e.GET("/api/analytics", h.Summary, protect, middleware.RequireAdmin())
}
