package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"actuarialhub/internal/config"
	"actuarialhub/internal/content"
	"actuarialhub/internal/database"
	"actuarialhub/internal/handlers"
	"actuarialhub/internal/quest"
	"actuarialhub/internal/realtime"
	"actuarialhub/internal/repository"
	"actuarialhub/internal/security"
	"actuarialhub/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Serve the startup status while initializing
	gate := &handlers.StartupGate{}
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      gate,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Initialize database with config (supports sqlite, postgres, mysql)
	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	handlers.CompleteStep(handlers.StepDatabase)

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	handlers.CompleteStep(handlers.StepMigrations)

	log.Println("Migrations completed successfully")

	// Seed quests, news, achievements and community posts
	handlers.SetCurrentStep(handlers.StepContent)
	seed, err := content.Load()
	if err != nil {
		log.Fatalf("Failed to load seed content: %v", err)
	}
	if err := seed.Apply(db); err != nil {
		log.Printf("Warning: Failed to seed content: %v", err)
	}
	handlers.CompleteStep(handlers.StepContent)

	// Seed bad words filter
	handlers.SetCurrentStep(handlers.StepBadWords)
	if cfg.SeedBadWords {
		if err := db.SeedBadWords(ctx); err != nil {
			log.Printf("Warning: Failed to seed bad words filter: %v", err)
		}
	}
	handlers.CompleteStep(handlers.StepBadWords)

	handlers.SetCurrentStep(handlers.StepServices)

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	tracker := quest.NewTracker()
	tokens := security.NewTokenIssuer(cfg.JWTSecret)
	csrf := security.NewCSRFGuard(cfg.CSRFSecret)

	hub := realtime.NewHub(cfg.AllowedOrigins)
	go hub.Run(ctx)

	authService := service.NewAuthService(db, tokens, emailService, cfg.SessionDuration)
	profileService := service.NewProfileService(repository.NewProfileRepository(db))
	appContextService := service.NewAppContextService(authService, profileService, tracker)
	achievementService := service.NewAchievementService(db)
	questService := service.NewQuestService(db, tracker, achievementService)
	sandboxService := service.NewSandboxService(repository.NewProfileRepository(db), achievementService, cfg.SandboxDelay)
	newsService := service.NewNewsService(repository.NewNewsRepository(db))
	communityService := service.NewCommunityService(db, achievementService, db, hub)
	backupService := service.NewBackupService(db)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	authLimiter := security.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	// Initialize handlers
	routes := &handlers.Routes{
		Middleware:   handlers.NewMiddleware(appContextService, csrf),
		AuthLimiter:  authLimiter,
		Auth:         handlers.NewAuthHandler(authService, appContextService, csrf, cfg.EmailDebug),
		OAuth:        handlers.NewOAuthHandler(oauthProviders, appContextService, cfg.SessionSecret, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL),
		Profile:      handlers.NewProfileHandler(profileService),
		Quests:       handlers.NewQuestHandler(questService),
		Sandbox:      handlers.NewSandboxHandler(sandboxService),
		News:         handlers.NewNewsHandler(newsService),
		Community:    handlers.NewCommunityHandler(communityService, hub),
		Achievements: handlers.NewAchievementHandler(achievementService),
		Admin:        handlers.NewAdminHandler(authService, backupService),
	}

	mux := http.NewServeMux()
	routes.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", security.CSRFHeader},
		AllowCredentials: true,
	})

	handlers.CompleteStep(handlers.StepServices)

	// Wrap with CORS and logging middleware
	gate.SetHandler(c.Handler(handlers.Logging(mux)))
	handlers.MarkReady()
	log.Println("Server ready")

	// Start background maintenance
	go runMaintenance(ctx, authService, seed, db)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// runMaintenance removes expired sessions every hour and retries any seed
// content that was waiting on a prerequisite
func runMaintenance(ctx context.Context, authService *service.AuthService, seed *content.Seed, db *database.DB) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
			if err := seed.Apply(db); err != nil {
				log.Printf("Warning: Failed to seed content: %v", err)
			}
		}
	}
}
