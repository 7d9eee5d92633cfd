package main // Entry point package

import (
	"context"  // lifetime of the background reconciliation sweep
	"log"      // Logging library
	"net/http" // CORS method constants

	"github.com/joho/godotenv"               // Loads .env files in development
	"github.com/labstack/echo/v4"            // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's bundled CORS middleware

	"github.com/valelectronic/dera-backend/internal/config"
	"github.com/valelectronic/dera-backend/internal/database"
	"github.com/valelectronic/dera-backend/internal/gateway"
	"github.com/valelectronic/dera-backend/internal/handler"
	"github.com/valelectronic/dera-backend/internal/middleware"
	"github.com/valelectronic/dera-backend/internal/queue"
	"github.com/valelectronic/dera-backend/internal/reconcile"
	"github.com/valelectronic/dera-backend/internal/repository"
	"github.com/valelectronic/dera-backend/internal/router"
	queue_publisher "github.com/valelectronic/dera-backend/internal/service"
)

func main() {
	// Load variables from a local .env file when present; real deployments
	// set the environment directly and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open MySQL: users, products, carts, coupons, orders.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis backs the refresh-token store, so unlike caching and rate
	// limiting it cannot degrade: refusing to start beats a deployment
	// where every refresh fails closed.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; refresh token store requires it")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenStore(rdb, cfg.RefreshTTLDays)
	products := repository.NewProductRepo(db)
	cart := repository.NewCartRepo(db)
	coupons := repository.NewCouponRepo(db)
	orders := repository.NewOrderRepo(db)
	analytics := repository.NewAnalyticsRepo(db)

	paystack := gateway.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecret)

	e := echo.New() // Create Echo instance
	e.HideBanner = true

	// Credentialed CORS for the browser front end.
	origins := append([]string{cfg.ClientURL}, cfg.AllowedOrigins...)
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowCredentials: true,
	}))

	protect := middleware.Protect(cfg.AccessSecret, users)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), protect, limiter)
	router.RegisterCatalog(e, handler.NewProductHandler(products), protect, cache)
	router.RegisterCart(e, handler.NewCartHandler(cart), protect)
	router.RegisterCoupons(e, handler.NewCouponHandler(coupons), protect)
	router.RegisterPayments(e,
		handler.NewPaymentHandler(cfg, orders, coupons, paystack, queue_publisher.PublishOrderPaid), protect)
	router.RegisterAnalytics(e, handler.NewAnalyticsHandler(users, products, analytics), protect)

	// Background consumer that appends paid-order lines to logs/orders.log.
	go func() {
		if err := queue.StartOrderPaidConsumer(); err != nil {
			log.Printf("order-consumer stopped: %v", err)
		}
	}()

	// Periodic sweep that verifies stale unpaid orders directly with the
	// gateway, covering webhook deliveries that never arrived.
	sweeper := &reconcile.Reconciler{
		Orders:  orders,
		Gateway: paystack,
		Publish: queue_publisher.PublishOrderPaid,
	}
	go sweeper.Run(context.Background())

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
