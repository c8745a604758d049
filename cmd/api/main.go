package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/uchennaezeilo/ExamCert/internal/config"
	"github.com/uchennaezeilo/ExamCert/internal/handler"
	"github.com/uchennaezeilo/ExamCert/internal/middleware"
	pgRepo "github.com/uchennaezeilo/ExamCert/internal/repository/postgres"
	redisRepo "github.com/uchennaezeilo/ExamCert/internal/repository/redis"
	"github.com/uchennaezeilo/ExamCert/internal/service"
	"github.com/uchennaezeilo/ExamCert/pkg/auth"
	"github.com/uchennaezeilo/ExamCert/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get sql.DB: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, database.DefaultMigrationsSource); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis: rate limiting, cooldown писем сброса, Pub/Sub инвалидаций JWT
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	certRepo := pgRepo.NewCertificationRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	examRepo := pgRepo.NewExamRepo(db)
	invalidTokenRepo := pgRepo.NewInvalidTokenRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Контекст жизненного цикла фоновых горутин JWTService
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pubSubProvider auth.PubSubProvider = &auth.NoOpPubSub{}
	if cfg.Redis.PubSubEnabled {
		redisProvider, errProv := auth.NewRedisPubSub(redisClient)
		if errProv != nil {
			log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Инвалидации JWT будут локальными.", errProv)
		} else {
			log.Println("Redis PubSub провайдер успешно инициализирован")
			pubSubProvider = redisProvider
		}
	}

	jwtService, err := auth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.ExpirationHrs,
		invalidTokenRepo,
		cfg.JWT.CleanupInterval,
		pubSubProvider,
		ctx,
	)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.ResendAPIKey != "" {
		resendService, errEmail := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if errEmail != nil {
			log.Printf("Failed to initialize Resend email service: %v", errEmail)
			os.Exit(1)
		}
		emailService = resendService
	} else {
		log.Println("RESEND_API_KEY не задан: письма сброса пароля только пишутся в лог")
	}

	// Инициализируем сервисы
	authService, err := service.NewAuthService(userRepo, cacheRepo, jwtService, emailService, service.AuthConfig{
		PasswordResetURL:      cfg.Auth.PasswordResetURL,
		PasswordResetTTL:      cfg.Auth.PasswordResetTTL,
		PasswordResetCooldown: cfg.Auth.PasswordResetCooldown,
		MinPasswordLength:     cfg.Auth.MinPasswordLength,
	})
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}
	catalogService := service.NewCatalogService(certRepo, questionRepo)
	examService := service.NewExamService(examRepo, certRepo, questionRepo, cfg.Exam.AttemptTTL())

	// Инициализируем обработчики и middleware
	routes := &handler.Router{
		Auth:           handler.NewAuthHandler(authService),
		Catalog:        handler.NewCatalogHandler(catalogService),
		Exam:           handler.NewExamHandler(examService),
		Health:         handler.NewHealthHandler(sqlDB),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtService),
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cacheRepo)
		routes.AuthLimiter = limiter.Limit(middleware.StrictAuthRateLimitConfig(
			cfg.RateLimit.AuthRequests,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		))
	}

	// Инициализируем роутер Gin
	router := gin.Default()

	// В production не доверяем прокси-заголовкам (защита от IP spoofing для rate limiter)
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Веб-клиент ходит через /api, остальные клиенты - без префикса
	routes.Register(router.Group("/"))
	routes.Register(router.Group("/api"))

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем фоновые горутины JWTService
	cancel()

	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited properly")
}
