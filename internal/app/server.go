// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"invoicely-service/internal/config"
	"invoicely-service/internal/db"
	wstypes "invoicely-service/internal/domain/websocket"
	adminHandler "invoicely-service/internal/handlers/admin"
	analyticsHandler "invoicely-service/internal/handlers/analytics"
	authHandler "invoicely-service/internal/handlers/auth"
	invoiceHandler "invoicely-service/internal/handlers/invoice"
	pmHandler "invoicely-service/internal/handlers/paymentmethod"
	supportHandler "invoicely-service/internal/handlers/support"
	wsHandler "invoicely-service/internal/handlers/websocket"
	"invoicely-service/internal/middleware"
	"invoicely-service/internal/pkg/jwt"
	"invoicely-service/internal/pkg/sequence"
	"invoicely-service/internal/pkg/session"
	"invoicely-service/internal/repository/postgres"
	"invoicely-service/internal/scheduler"
	adminUsecase "invoicely-service/internal/service/admin"
	analyticsUsecase "invoicely-service/internal/service/analytics"
	authUsecase "invoicely-service/internal/service/auth"
	"invoicely-service/internal/service/email"
	invoiceUsecase "invoicely-service/internal/service/invoice"
	pmUsecase "invoicely-service/internal/service/paymentmethod"
	supportUsecase "invoicely-service/internal/service/support"
	"invoicely-service/internal/websocket"
	wsHandlers "invoicely-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer  *http.Server
	pool        *pgxpool.Pool
	redisClient *redis.Client
	planExpiry  *scheduler.PlanExpiryScheduler
	hub         *websocket.Hub
	stopHub     context.CancelFunc

	authService *authUsecase.AuthService

	// ready is closed once Start has finished wiring, successfully or not.
	// Fields above are only read by Shutdown after that.
	ready     chan struct{}
	readyOnce sync.Once
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger, ready: make(chan struct{})}
}

func (s *Server) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Start connects the stores, wires every component and serves HTTP until
// Shutdown is called.
func (s *Server) Start() error {
	defer s.markReady()

	ctx := context.Background()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:             s.cfg.DatabaseURL,
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redisClient = redisClient
	logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Email -----
	var sender authUsecase.Sender
	if s.cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		sender = email.NewLogSender(logger)
	} else {
		sender = email.NewEmailSender(
			s.cfg.SMTPHost,
			s.cfg.SMTPPort,
			s.cfg.SMTPUser,
			s.cfg.SMTPPass,
			s.cfg.SMTPFromName,
			s.cfg.SMTPSecure,
		)
	}
	mailer := authUsecase.NewEmailHelper(sender, logger, s.cfg.PasswordResetURL)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	userRepo := postgres.NewUserRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	feedbackRepo := postgres.NewFeedbackRepository(pool)
	paymentMethodRepo := postgres.NewPaymentMethodRepository(pool, dbWrapper)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, sessionManager, logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.hub, s.stopHub = hub, stopHub
	go hub.Run(hubCtx)

	// ----- Auth Provider -----
	provider, err := s.authProvider(userRepo)
	if err != nil {
		return err
	}

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(
		userRepo,
		provider,
		jwtManager,
		sessionManager,
		rateLimiter,
		mailer,
		hub,
		s.cfg.PasswordResetURL,
		logger,
	)
	s.authService = authService

	adminService := adminUsecase.NewAdminService(
		userRepo,
		invoiceRepo,
		ticketRepo,
		feedbackRepo,
		sessionManager,
		hub,
		logger,
	)
	invoiceService := invoiceUsecase.NewInvoiceService(invoiceRepo, hub, logger)
	analyticsService := analyticsUsecase.NewAnalyticsService(invoiceRepo, sequence.New(), logger)
	paymentMethodService := pmUsecase.NewPaymentMethodService(paymentMethodRepo, logger)
	supportService := supportUsecase.NewSupportService(ticketRepo, feedbackRepo, hub, logger)

	hub.RegisterHandler(wsHandlers.NewStatsHandler(adminService))

	// ----- Admin bootstrap -----
	s.bootstrapAdmins()

	// ----- Plan expiry -----
	s.planExpiry = scheduler.NewPlanExpiryScheduler(userRepo, sessionManager, hub, s.cfg.PlanExpirySchedule, logger)
	if err := s.planExpiry.Start(); err != nil {
		return fmt.Errorf("failed to start plan expiry scheduler: %w", err)
	}

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtManager.Verifier, sessionManager)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:          authHandler.NewAuthHandler(authService, logger),
		AdminHandler:         adminHandler.NewAdminHandler(adminService, logger),
		InvoiceHandler:       invoiceHandler.NewInvoiceHandler(invoiceService, logger),
		AnalyticsHandler:     analyticsHandler.NewAnalyticsHandler(analyticsService, logger),
		PaymentMethodHandler: pmHandler.NewPaymentMethodHandler(paymentMethodService, logger),
		SupportHandler:       supportHandler.NewSupportHandler(supportService, logger),
		WSHandler:            wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, logger),
		AuthMiddleware:       authMiddleware,
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.markReady()

	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.String("auth_provider", provider.Name()))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown waits for Start to finish wiring, then drains HTTP, stops
// background work and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return fmt.Errorf("server still starting: %w", ctx.Err())
	}

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.planExpiry != nil {
		s.planExpiry.Stop()
	}
	if s.hub != nil {
		s.hub.BroadcastSystemAlert(&wstypes.SystemAlertData{
			Severity: "warning",
			Title:    "Server restarting",
			Message:  "Live updates will reconnect shortly.",
		})
		s.stopHub()
	}
	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil {
			s.logger.Warn("failed to close Redis client", zap.Error(cerr))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *Server) authProvider(users *postgres.UserRepository) (authUsecase.Provider, error) {
	switch s.cfg.AuthProvider {
	case "", "local":
		return authUsecase.NewLocalProvider(users), nil
	case "supabase":
		provider, err := authUsecase.NewSupabaseProvider(s.cfg.SupabaseURL, s.cfg.SupabaseKey)
		if err != nil {
			return nil, fmt.Errorf("failed to configure supabase auth: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", s.cfg.AuthProvider)
	}
}

// bootstrapAdmins promotes the configured existing accounts. Accounts are never created here.
func (s *Server) bootstrapAdmins() {
	if len(s.cfg.AdminBootstrapEmail) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.authService.PromoteBootstrapAdmins(ctx, s.cfg.AdminBootstrapEmail)
}
