package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"estatehub/internal/cache"
	"estatehub/internal/config"
	"estatehub/internal/handlers"
	"estatehub/internal/migrations"
	"estatehub/internal/repositories"
	"estatehub/internal/routes"
	"estatehub/internal/search"
	"estatehub/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "estatehub/docs"
)

const cacheKeyPrefix = "estatehub"

type stores struct {
	users    repositories.UserRepository
	listings repositories.ListingRepository
	close    func()
}

// openStores выбирает Postgres или in-memory по database.url.
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.DSN == "" {
		log.Printf("[app] database.url is empty, using in-memory stores")
		return &stores{
			users:    repositories.NewMemoryUserRepository(),
			listings: repositories.NewMemoryListingRepository(),
			close:    func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if cfg.Migrate {
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Printf("[app] migrations applied")
	}
	return &stores{
		users:    repositories.NewUserRepository(db),
		listings: repositories.NewListingRepository(db),
		close: func() {
			if err := db.Close(); err != nil {
				log.Printf("[app] db close: %v", err)
			}
		},
	}, nil
}

// openCache returns the search result cache; without Redis caching is off.
func openCache(ctx context.Context, cfg config.RedisConfig) (*search.ResultCache, func()) {
	if cfg.URL == "" {
		log.Printf("[app] redis.url is empty, search cache disabled")
		return search.NewResultCache(nil, cfg.CacheTTL()), func() {}
	}
	client, err := cache.Connect(ctx, cfg.URL)
	if err != nil {
		// поиск работает и без кеша
		log.Printf("[app] redis unavailable, search cache disabled: %v", err)
		return search.NewResultCache(nil, cfg.CacheTTL()), func() {}
	}
	store := cache.NewRedisStore(client, cacheKeyPrefix)
	return search.NewResultCache(store, cfg.CacheTTL()), func() {
		if err := client.Close(); err != nil {
			log.Printf("[app] redis close: %v", err)
		}
	}
}

// NewRouter wires services, handlers and routes over the given stores.
func NewRouter(cfg *config.Config, users repositories.UserRepository, listings repositories.ListingRepository, resultCache *search.ResultCache, mailer services.MailSender) *gin.Engine {
	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL(), cfg.Auth.ResetTokenTTL())
	hasher := services.NewPasswordHasher(0)
	settings := services.AuthSettings{
		VerificationTTL: cfg.Auth.VerificationTTL(),
		ResetOTPTTL:     cfg.Auth.ResetOTPTTL(),
	}
	emailService := services.NewEmailService(mailer, cfg.Email.FromName, settings)

	authService := services.NewAuthService(users, emailService, hasher, tokens, settings)
	resetService := services.NewPasswordResetService(users, emailService, hasher, tokens, settings)
	userService := services.NewUserService(users, listings, hasher)
	listingService := services.NewListingService(listings, users, resultCache)

	cookies := handlers.CookieSettings{
		Production: cfg.IsProduction(),
		SessionTTL: tokens.SessionTTL(),
		ResetTTL:   tokens.ResetTTL(),
	}
	authHandler := handlers.NewAuthHandler(authService, resetService, cookies)
	userHandler := handlers.NewUserHandler(userService, listingService, cookies)
	listingHandler := handlers.NewListingHandler(listingService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.Server.ClientURL))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return routes.SetupRoutes(router, tokens, authHandler, userHandler, listingHandler)
}

func Run() {
	cfg := config.LoadConfig()
	ctx := context.Background()

	// === Stores ===
	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer st.close()

	resultCache, closeCache := openCache(ctx, cfg.Redis)
	defer closeCache()

	// === Mail ===
	mailer := services.NewSMTPMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.FromName,
	)

	router := NewRouter(cfg, st.users, st.listings, resultCache, mailer)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s (env=%s)", listenAddr, cfg.Server.Environment)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

// corsMiddleware разрешает фронтенд с cookie; без client_url — любой origin без credentials.
func corsMiddleware(clientURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if clientURL != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
