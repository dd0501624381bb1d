package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"todoapi/api/handler"
	apiMiddleware "todoapi/api/middleware"
	"todoapi/api/routes"
	"todoapi/config"
	"todoapi/internal/entity"
	"todoapi/internal/repository"
	"todoapi/internal/service"
	"todoapi/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	db, err := config.ConnectionDb(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database")
	}
	if cfg.RunMigrations {
		if err := config.Migrate(db); err != nil {
			logger.WithError(err).Fatal("migrations")
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	clock := service.RealClock{}

	accessManager := utils.JWTManager{
		Secret:         []byte(cfg.JWT.Key),
		Issuer:         cfg.JWT.Issuer,
		Audience:       cfg.JWT.Audience,
		AccessTokenTTL: cfg.JWT.TTL(),
	}
	tokenIssuer := service.JWTTokenIssuer{Manager: &accessManager, Clock: clock}

	emailSender := service.NewResendEmailSender(cfg.Email.ResendAPIKey, cfg.Email.From)
	if !emailSender.Configured() {
		logger.Warn("RESEND_API_KEY or EMAIL_FROM missing, registrations will fail to deliver codes")
	}

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewAuthEventRepository(db)
	users := repository.NewGenericRepository[entity.User](db)
	todos := repository.NewGenericRepository[entity.Todo](db)
	subTasks := repository.NewGenericRepository[entity.SubTask](db)
	notifications := repository.NewGenericRepository[entity.Notification](db)

	authService := service.NewAuthService(
		userRepo,
		eventRepo,
		emailSender,
		service.BcryptPasswordHasher{Cost: cfg.BcryptCost},
		tokenIssuer,
		clock,
		service.AuthConfig{
			CodeDigits:     cfg.Verification.CodeDigits,
			CodeTTL:        cfg.Verification.CodeTTL(),
			ResendCooldown: cfg.Verification.ResendCooldown(),
		},
		logger,
	)
	todoService := service.NewTodoService(todos, users, clock, logger)
	subTaskService := service.NewSubTaskService(subTasks, todos, logger)
	notificationService := service.NewNotificationService(notifications, users, todos, logger)

	var authRate apiMiddleware.Limiter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("redis")
		}
		defer client.Close()
		authRate = apiMiddleware.NewRedisLimiter(client, "ratelimit:auth", cfg.AuthRateLimitPerMinute, time.Minute)
	}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.BodyLimit("1M"))
	app.Use(apiMiddleware.RequestLogger(logger))

	router := routes.NewRouter(
		app,
		handler.NewAuthHandler(authService, validate),
		handler.NewTodoHandler(todoService, validate),
		handler.NewSubTaskHandler(subTaskService, validate),
		handler.NewNotificationHandler(notificationService, validate),
		apiMiddleware.AuthMiddleware{JWT: &accessManager},
		authRate,
		cfg.AuthRateLimitPerMinute,
		logger,
	)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}
