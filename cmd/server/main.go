package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/topicless/hub/internal/config"
	"github.com/topicless/hub/internal/database"
	"github.com/topicless/hub/internal/handlers"
	"github.com/topicless/hub/internal/logging"
	"github.com/topicless/hub/internal/middleware"
	"github.com/topicless/hub/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env": cfg.Server.Environment,
		})
	}

	logger.Info("Starting Topicless Hub server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter)
	providerAuthService := services.NewProviderAuthService(dbAdapter)
	questionService := services.NewQuestionService(dbAdapter)
	pollService := services.NewPollService(dbAdapter)
	ideaService := services.NewIdeaService(dbAdapter)
	wyrService := services.NewWyrService(dbAdapter)
	postService := services.NewPostService(dbAdapter)
	subscriberService := services.NewSubscriberService(dbAdapter, newEmailSender(cfg, logger), cfg.Server.BaseURL)
	accountService := services.NewAccountService(userService, questionService, pollService, ideaService, wyrService)

	oauthProviders := map[services.Provider]services.OAuthProvider{}
	if cfg.OAuth.Google.Enabled {
		googleProvider, err := services.NewOIDCProvider(context.Background(), services.OIDCProviderConfig{
			Provider:     services.ProviderGoogle,
			ClientID:     cfg.OAuth.Google.ClientID,
			ClientSecret: cfg.OAuth.Google.ClientSecret,
			RedirectURL:  cfg.OAuth.Google.RedirectURL,
			IssuerURL:    cfg.OAuth.Google.IssuerURL,
			Scopes:       cfg.OAuth.Google.Scopes,
		})
		if err != nil {
			return fmt.Errorf("initializing google oidc provider: %w", err)
		}
		oauthProviders[services.ProviderGoogle] = googleProvider
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(dbAdapter, redisDB.Client)
	authHandler := handlers.NewAuthHandler(userService, authService, cfg.Server.Secure)
	providerAuthHandler := handlers.NewProviderAuthHandler(providerAuthService, authService, oauthProviders, cfg.Server.Secure)
	questionHandler := handlers.NewQuestionHandler(questionService)
	pollHandler := handlers.NewPollHandler(pollService)
	ideaHandler := handlers.NewIdeaHandler(ideaService)
	wyrHandler := handlers.NewWyrHandler(wyrService)
	postHandler := handlers.NewPostHandler(postService)
	subscriberHandler := handlers.NewSubscriberHandler(subscriberService)
	accountHandler := handlers.NewAccountHandler(accountService, authService)
	ogImageHandler := handlers.NewOGImageHandler(pollService)

	// Initialize middleware
	authenticator := middleware.NewAuthenticator(authService, userService)
	requestLogger := middleware.NewRequestLogger(logger)

	ipKey := func(r *http.Request) string { return middleware.GetClientIP(r) }
	authRateLimiter := middleware.NewRateLimiter(redisDB.Client, 20, 15*time.Minute, "ratelimit:auth:", ipKey, true)
	subscribeRateLimiter := middleware.NewRateLimiter(redisDB.Client, 5, time.Hour, "ratelimit:subscribe:", ipKey, true)

	requireSession := middleware.RequireSession
	requireAdmin := middleware.RequireAdmin

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Ready)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Auth endpoints
	mux.Handle("POST /api/auth/register", authRateLimiter.Middleware(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authRateLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/logout", http.HandlerFunc(authHandler.Logout))
	mux.Handle("GET /api/auth/me", requireSession(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/profile", requireSession(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("GET /api/auth/{provider}/start", http.HandlerFunc(providerAuthHandler.Start))
	mux.Handle("GET /api/auth/{provider}/callback", http.HandlerFunc(providerAuthHandler.Callback))

	// Question storm endpoints
	mux.Handle("POST /api/questions", requireSession(http.HandlerFunc(questionHandler.Create)))
	mux.Handle("GET /api/questions", http.HandlerFunc(questionHandler.List))
	mux.Handle("GET /api/questions/{id}", http.HandlerFunc(questionHandler.Get))
	mux.Handle("DELETE /api/questions/{id}", requireSession(http.HandlerFunc(questionHandler.Delete)))
	mux.Handle("POST /api/questions/{id}/answers", requireSession(http.HandlerFunc(questionHandler.Answer)))
	mux.Handle("POST /api/answers/{answerID}/reactions", requireSession(http.HandlerFunc(questionHandler.ToggleReaction)))

	// Poll endpoints
	mux.Handle("POST /api/polls", requireSession(http.HandlerFunc(pollHandler.Create)))
	mux.Handle("GET /api/polls", http.HandlerFunc(pollHandler.List))
	mux.Handle("GET /api/polls/{id}", http.HandlerFunc(pollHandler.Get))
	mux.Handle("DELETE /api/polls/{id}", requireSession(http.HandlerFunc(pollHandler.Delete)))
	mux.Handle("POST /api/polls/{id}/vote", requireSession(http.HandlerFunc(pollHandler.Vote)))
	mux.Handle("GET /api/polls/votes", requireSession(http.HandlerFunc(pollHandler.Votes)))

	// Daily idea endpoints
	mux.Handle("POST /api/ideas", requireSession(http.HandlerFunc(ideaHandler.Create)))
	mux.Handle("GET /api/ideas", http.HandlerFunc(ideaHandler.List))
	mux.Handle("GET /api/ideas/random", http.HandlerFunc(ideaHandler.Random))
	mux.Handle("GET /api/ideas/leaderboard", http.HandlerFunc(ideaHandler.Leaderboard))
	mux.Handle("DELETE /api/ideas/{id}", requireSession(http.HandlerFunc(ideaHandler.Delete)))
	mux.Handle("POST /api/ideas/{id}/reactions", requireSession(http.HandlerFunc(ideaHandler.ToggleReaction)))

	// Would-you-rather endpoints
	mux.Handle("POST /api/wyr", requireSession(http.HandlerFunc(wyrHandler.Create)))
	mux.Handle("GET /api/wyr", http.HandlerFunc(wyrHandler.List))
	mux.Handle("DELETE /api/wyr/{id}", requireSession(http.HandlerFunc(wyrHandler.Delete)))
	mux.Handle("POST /api/wyr/{id}/vote", requireSession(http.HandlerFunc(wyrHandler.Vote)))
	mux.Handle("GET /api/wyr/votes", requireSession(http.HandlerFunc(wyrHandler.Votes)))
	mux.Handle("POST /api/wyr/{id}/comments", requireSession(http.HandlerFunc(wyrHandler.Comment)))
	mux.Handle("GET /api/wyr/{id}/comments", http.HandlerFunc(wyrHandler.Comments))

	// Admin post endpoints (reads are public)
	mux.Handle("POST /api/posts", requireAdmin(http.HandlerFunc(postHandler.Create)))
	mux.Handle("GET /api/posts", http.HandlerFunc(postHandler.List))
	mux.Handle("GET /api/posts/featured", http.HandlerFunc(postHandler.Featured))
	mux.Handle("GET /api/posts/{id}", http.HandlerFunc(postHandler.Get))
	mux.Handle("PUT /api/posts/{id}", requireAdmin(http.HandlerFunc(postHandler.Update)))
	mux.Handle("DELETE /api/posts/{id}", requireAdmin(http.HandlerFunc(postHandler.Delete)))

	// Newsletter endpoints
	mux.Handle("POST /api/subscribers", subscribeRateLimiter.Middleware(http.HandlerFunc(subscriberHandler.Subscribe)))
	mux.Handle("GET /api/subscribers/confirm", http.HandlerFunc(subscriberHandler.Confirm))
	mux.Handle("POST /api/subscribers/unsubscribe", http.HandlerFunc(subscriberHandler.Unsubscribe))
	mux.Handle("GET /api/subscribers/count", http.HandlerFunc(subscriberHandler.Count))

	// Account endpoints
	mux.Handle("GET /api/account/content", requireSession(http.HandlerFunc(accountHandler.Content)))
	mux.Handle("GET /api/account/export", requireSession(http.HandlerFunc(accountHandler.Export)))
	mux.Handle("DELETE /api/account", requireSession(http.HandlerFunc(accountHandler.Delete)))

	// OpenGraph images (public)
	mux.Handle("GET /og/polls/{id}", http.HandlerFunc(ogImageHandler.Poll))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authenticator.Authenticate(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

func newEmailSender(cfg *config.Config, logger *logging.Logger) services.EmailSender {
	from := fmt.Sprintf("%s <%s>", cfg.Email.FromName, cfg.Email.FromAddress)
	switch cfg.Email.Provider {
	case "resend":
		return services.NewResendSender(cfg.Email.ResendAPIKey, from)
	case "smtp":
		return services.NewSMTPSender(cfg.Email.SMTPHost, cfg.Email.SMTPPort, from)
	default:
		if cfg.Email.Provider != "console" {
			logger.Warn("Unknown email provider; falling back to console delivery", map[string]interface{}{
				"provider": cfg.Email.Provider,
			})
		}
		return services.NewConsoleSender(logger)
	}
}
