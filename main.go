package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/my2dworld/api/rest"
	"github.com/kasuganosora/my2dworld/api/sse"
	apiws "github.com/kasuganosora/my2dworld/api/ws"
	"github.com/kasuganosora/my2dworld/audit"
	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/config"
	dbadapter "github.com/kasuganosora/my2dworld/db"
	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/protocol"
	"github.com/kasuganosora/my2dworld/game/session"
	mw "github.com/kasuganosora/my2dworld/middleware"
	"github.com/kasuganosora/my2dworld/model"
	"github.com/kasuganosora/my2dworld/scheduler"
	"github.com/kasuganosora/my2dworld/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if len(os.Args) > 1 {
			log.Fatalf("config: %v", err)
		}
		log.Printf("config: %v; using defaults", err)
		cfg = config.Default()
	}

	// ---- Logger ----
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database, logger)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Session layer ----
	users := store.New(db).WithHashCost(cfg.Security.BcryptCost)
	gateway := store.NewCached(users, c, cfg.Game.LookupCacheTTL, logger)
	reg := session.NewRegistry(logger)
	bc := broadcast.New(reg, logger)
	proto := protocol.New(gateway, reg, bc, cfg.Game, auditSvc, logger)

	wsRouter := apiws.NewRouter(logger)
	apiws.RegisterRoutes(wsRouter, proto)
	wsH := apiws.NewHandler(reg, proto, wsRouter, cfg.Security, logger)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	go func() {
		if err := bc.RelayAnnouncements(relayCtx, pubsub); err != nil {
			logger.Error("announcement relay stopped", zap.Error(err))
		}
	}()

	// ---- Scheduler ----
	limiter := mw.NewKeyedLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	sched := scheduler.New(logger)
	sched.AddTicker(scheduler.TaskStaleSessionSweep, cfg.Game.SweepInterval,
		scheduler.StaleSessionSweep(reg, logger))
	sched.AddTicker(scheduler.TaskRegistryStats, cfg.Game.StatsInterval,
		scheduler.RegistryStats(reg, c, logger))
	sched.AddTicker(scheduler.TaskRateLimitSweep, 5*time.Minute,
		scheduler.RateLimitSweep(limiter, 10*time.Minute, logger))

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(limiter))

	r.GET("/health", apirest.NewHealthHandler(db, c, reg).Health)

	authH := apirest.NewAuthHandler(users, cfg.Security, logger)
	shardH := apirest.NewShardHandler(users, reg, logger)
	adminH := apirest.NewAdminHandler(reg, sched, c, pubsub, gateway, logger)
	sseH := sse.NewHandler(pubsub, reg, cfg.Game.StatsInterval, logger)

	api := r.Group("/api")
	{
		api.POST("/auth/register", authH.Register)
		api.GET("/shards", shardH.List)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminAllowedIPs), mw.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/sessions", adminH.ListSessions)
		adminG.POST("/kick/:user_id", adminH.KickUser)
		adminG.POST("/announce", adminH.Announce)
		adminG.POST("/cache/invalidate", adminH.InvalidateCache)
		adminG.GET("/events", sseH.ServeSSE)
	}

	// WebSocket endpoint
	r.GET("/ws", wsH.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- Graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Closing a session ends its read pump, which persists the user's
	// location and tells the room they left.
	reg.CloseAll(cfg.Server.ShutdownTimeout / 2)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopRelay()
	sched.Stop()
	auditSvc.Stop(ctx)
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Server.Debug {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
