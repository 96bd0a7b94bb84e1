package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"numbers_duel/internal/bot"
	"numbers_duel/internal/config"
	"numbers_duel/internal/db"
	httpServer "numbers_duel/internal/http"
	"numbers_duel/internal/http/handlers"
	"numbers_duel/internal/http/middleware"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/relay"
	"numbers_duel/internal/repository"
	"numbers_duel/internal/service"
	"numbers_duel/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	// Инициализация структурированного логгера
	jsonLogs := os.Getenv("LOG_FORMAT") == "json"
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(logLevel, jsonLogs)
	log := logger.Get()

	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	// Redis используется для ретрансляции событий между экземплярами
	// и для лимитера запросов. Без него приложение работает в режиме
	// одного экземпляра на внутрипроцессном ретрансляторе
	var eventRelay relay.Relay
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis недоступен, события остаются внутри процесса", "error", err)
			eventRelay = relay.NewMemoryRelay()
		} else {
			middleware.InitRedisRateLimiter(redisClient)
			eventRelay = relay.NewRedisRelay(redisClient)
			log.Info("redis подключен", "addr", cfg.RedisAddr)
		}
	} else {
		eventRelay = relay.NewMemoryRelay()
	}

	matchRepo := repository.NewMatchRepository(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	auditService := service.NewAuditService(dbPool)

	matchService := service.NewMatchService(matchRepo, eventRelay, cfg.MatchLockTimeout, nil)
	matchService.SetStatsRecorder(userRepo)

	hub := ws.NewHub(eventRelay)
	wsHandler := ws.NewWSHandler(hub, matchService)
	h := handlers.NewHandler(dbPool, matchService, userRepo, auditService, cfg.BotToken)

	r := gin.Default()

	// CORS для прода и связи фронта с бэкендом(разные домены)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, h, wsHandler)

	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled && len(cfg.AdminTelegramIDs) > 0 {
		var err error
		adminBot, err = bot.NewAdminBot(cfg.BotToken, matchRepo, userRepo, auditService, cfg.AdminTelegramIDs)
		if err != nil {
			log.Error("failed to start admin bot", "error", err)
		} else {
			go adminBot.Start()
			log.Info("admin bot started", "admin_ids", cfg.AdminTelegramIDs)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Плавная остановка бота
	if adminBot != nil {
		adminBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
