package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"storefront/internal/analytics"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/categories"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain/user"
	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/mail"
	"storefront/internal/metrics"
	"storefront/internal/orders"
	"storefront/internal/outbox"
	"storefront/internal/products"
	"storefront/internal/reviews"
	"storefront/internal/seo"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg)

	sessions := cart.NewSessions(cfg.CartTTL)
	sessions.OnResize(func(n int) { m.CartSessions.Set(float64(n)) })
	go sessions.Run(ctx, time.Hour, func(removed int) {
		logger.Info("expired carts swept", zap.Int("removed", removed))
	})

	kafkaClient := events.NewClient(cfg.KafkaBrokers)
	if kafkaClient.Enabled() {
		w := kafkaClient.NewWriter(cfg.KafkaTopic)
		defer func() { _ = w.Close() }()
		go outbox.NewRelay(pool, w, logger, cfg.OutboxPoll).Run(ctx)
		logger.Info("outbox relay started", zap.String("topic", cfg.KafkaTopic))
	}

	r := newRouter(cfg, pool, sessions, m, reg, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func newRouter(cfg config.Config, pool *pgxpool.Pool, sessions *cart.Sessions, m *metrics.ServerMetrics, reg *prometheus.Registry, logger *zap.Logger) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtMgr := auth.NewJWTManager(auth.JWTConfig{
		Issuer:         cfg.JWTIssuer,
		AccessSecret:   cfg.JWTAccessSecret,
		RefreshSecret:  cfg.JWTRefreshSecret,
		AccessTTLMin:   cfg.AccessTokenTTLMin,
		RefreshTTLDays: cfg.RefreshTokenTTLDays,
	})
	authHandler := auth.NewHandler(auth.NewUserRepo(pool), auth.NewRefreshRepo(pool), jwtMgr, logger)

	prodRepo := products.NewRepo(pool)
	prodHandler := products.NewHandler(prodRepo, logger)
	catHandler := categories.NewHandler(categories.NewRepo(pool), logger)
	cartHandler := cart.NewHandler(prodRepo, logger)
	seoHandler := seo.NewHandler(seo.NewRepo(pool), logger)
	reviewHandler := reviews.NewHandler(reviews.NewRepo(pool), logger)
	statsHandler := analytics.NewHandler(analytics.NewRepo(pool), logger)

	orderSvc := orders.NewService(orders.NewRepo(pool, cfg.KafkaTopic), newNotifier(cfg, logger), logger, orders.Options{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
		Country:               cfg.ShopCountry,
		Observe:               m.ObserveCheckout,
	})
	orderHandler := orders.NewHandler(orderSvc, logger, cfg.RequestTimeout)

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger), m.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", auth.AuthMiddleware(jwtMgr), authHandler.Me)
	}

	// Public catalogue.
	api.GET("/categories", catHandler.List)
	api.GET("/products", withTimeout(cfg.RequestTimeout), prodHandler.ListPublic)
	api.GET("/products/:id", prodHandler.GetPublic)
	api.GET("/products/:id/seo", seoHandler.Get)
	api.POST("/analytics/visits", statsHandler.RecordVisit)

	// Only adding an item creates a session.
	lookup := cart.LookupMiddleware(sessions)
	cartGroup := api.Group("/cart")
	{
		cartGroup.GET("", lookup, cartHandler.GetCart)
		cartGroup.GET("/count", lookup, cartHandler.Count)
		cartGroup.POST("/items", cart.SessionMiddleware(sessions), cartHandler.AddItem)
		cartGroup.PATCH("/items/:id", lookup, cartHandler.UpdateQty)
		cartGroup.DELETE("/items/:id", lookup, cartHandler.RemoveItem)
		cartGroup.DELETE("", lookup, cartHandler.Clear)
	}
	api.POST("/checkout", lookup, orderHandler.Checkout)
	api.GET("/orders/track/:code", orderHandler.Track)
	api.POST("/orders/track/:code/review", reviewHandler.Submit)

	admin := api.Group("/admin", auth.AuthMiddleware(jwtMgr), auth.RequireRole(user.RoleAdmin))
	{
		admin.GET("/categories", catHandler.List)
		admin.POST("/categories", catHandler.AdminCreate)
		admin.PATCH("/categories/:id", catHandler.AdminUpdate)
		admin.DELETE("/categories/:id", catHandler.AdminDelete)

		admin.POST("/products", prodHandler.AdminCreate)
		admin.PATCH("/products/:id", prodHandler.AdminUpdate)
		admin.DELETE("/products/:id", prodHandler.AdminDelete)
		admin.PUT("/products/:id/seo/:lang", seoHandler.AdminPut)
		admin.DELETE("/products/:id/seo/:lang", seoHandler.AdminDelete)

		admin.GET("/orders", orderHandler.AdminList)
		admin.PATCH("/orders/:order_id/status", orderHandler.AdminUpdateStatus)

		admin.GET("/stats", statsHandler.AdminStats)
		admin.GET("/analytics", statsHandler.AdminAnalytics)
	}

	return r
}

// newNotifier prefers SendGrid over SMTP. Nil means new orders are not mailed.
func newNotifier(cfg config.Config, logger *zap.Logger) orders.Notifier {
	if !cfg.MailEnabled() {
		logger.Info("order mail disabled")
		return nil
	}
	if cfg.SendGridAPIKey != "" {
		mailer, err := mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SMTPFrom, cfg.MailFromName)
		if err == nil {
			return mail.NewOrderNotifier(mailer, cfg.OrderNotifyEmail)
		}
		logger.Warn("sendgrid mailer unavailable", zap.Error(err))
		if cfg.SMTPHost == "" {
			return nil
		}
	}
	return mail.NewOrderNotifier(mail.NewSMTPMailer(mail.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}), cfg.OrderNotifyEmail)
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
