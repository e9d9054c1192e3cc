package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"roomchatgo/internal/chat"
	"roomchatgo/internal/config"
	"roomchatgo/internal/database/db_client"
	"roomchatgo/internal/database/mongo_client"
	"roomchatgo/internal/http/http_server"
	"roomchatgo/internal/redis/redis_client"
	"roomchatgo/internal/store"
	"roomchatgo/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (only the redis cache backend needs it)
	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" {
		redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		Log.Debug("Redis client created successfully")
	}

	// 4. Durable message store
	var msgStore store.IMessageStore
	switch cfg.StoreBackend {
	case "mongo":
		mongoClient, err := mongo_client.Connect(cfg.MongoURL)
		if err != nil {
			Log.Fatal("mongo-open", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())
		msgStore = store.NewMongoStore(mongoClient.Database(cfg.MongoDb))
	default:
		pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()
		msgStore = store.NewPgStore(pgDb)
	}

	// 5. Room registry + broadcast engine
	registry := chat.NewRoomRegistry()
	engine := chat.NewBroadcastEngine(registry)

	// 6. Rate limiter, history cache and presence, per cache backend
	var (
		limiter  chat.RateLimiter
		history  chat.HistoryStore
		presence chat.PresenceTracker
	)
	if cfg.CacheBackend == "redis" {
		limiter = chat.NewRedisRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
		history = chat.NewRedisHistory(redisClient, cfg.HistoryCacheSize)
		presence = chat.NewRedisPresence(redisClient)
	} else {
		limiter = chat.NewMemoryRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		history = chat.NewMemoryHistory(cfg.HistoryCacheSize)
		presence = chat.NewRegistryPresence(registry)
	}

	// 7. The message pipeline
	chatService := chat.NewChatService(limiter, history, msgStore, engine, presence)

	// 8. Initialize the WS server
	wsSrv := ws.NewWsServer(registry, chatService, presence, cfg.HistoryPageSize)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, chatService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
