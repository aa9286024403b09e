package bootstrap

import (
	"context"
	"time"

	"docgen-selection-be/internal/config"
	"docgen-selection-be/internal/controller"
	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/internal/pkg/serverutils"
	"docgen-selection-be/internal/repository/cache"
	"docgen-selection-be/internal/repository/memory"
	"docgen-selection-be/internal/repository/unitofwork"
	"docgen-selection-be/internal/service"
	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/internal/websocket"
	"docgen-selection-be/pkg/broadcast"
	pktNats "docgen-selection-be/pkg/nats"
	"docgen-selection-be/pkg/restore"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	FavoriteController controller.IFavoriteController
	FormController     controller.IFormController
	WsController       controller.IWsController

	// Auth guards every route but /metrics and /health.
	Auth fiber.Handler

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	uowFactory := unitofwork.NewRepositoryFactory(db)

	instanceID := cfg.App.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	// 2. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Redis unavailable, running single-node", map[string]interface{}{"error": err.Error()})
		} else {
			rdb = client
			c.closers = append(c.closers, func() { _ = client.Close() })
		}
	}

	slotStore := newSlotStore(cfg, rdb, sysLogger)

	trackerClient := tracker.NewHTTPClient(tracker.ClientOptions{
		BaseURL:        cfg.Tracker.BaseURL,
		Token:          cfg.Tracker.Token,
		RequestTimeout: cfg.Tracker.RequestTimeout,
		CacheTTL:       cfg.Tracker.CacheTTL,
	}, sysLogger)

	// 3. Event Bus
	broadcaster := broadcast.New(instanceID, sysLogger)
	c.closers = append(c.closers, func() { _ = broadcaster.Close() })
	c.wireNats(ctx, cfg, broadcaster, sysLogger)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	hub := websocket.NewHub(rdb, instanceID, wsLogger)
	hubCtx, stopHub := context.WithCancel(ctx)
	go hub.Run(hubCtx)
	c.closers = append(c.closers, stopHub)
	c.WebSocketHub = hub

	// 4. Services
	favoriteService := service.NewFavoriteService(uowFactory, sysLogger)
	formService := service.NewFormService(
		favoriteService,
		slotStore,
		trackerClient,
		broadcaster,
		hub,
		service.FormOptions{
			SlotTTL:     cfg.Session.SlotTTL,
			WaitTimeout: cfg.Session.RestoreWaitTimeout,
		},
		sysLogger,
	)
	c.closers = append(c.closers, formService.Close)

	// 5. Controllers
	c.Auth = serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)
	c.FavoriteController = controller.NewFavoriteController(favoriteService)
	c.FormController = controller.NewFormController(formService)
	c.WsController = controller.NewWsController(hub, formService)

	sysLogger.Info("BOOTSTRAP", "Container ready", map[string]interface{}{
		"instance_id":   instanceID,
		"session_store": cfg.Session.Store,
		"redis":         rdb != nil,
	})
	return c
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newSlotStore(cfg *config.Config, rdb *redis.Client, log logger.ILogger) restore.SlotStore {
	if cfg.Session.Store == "redis" {
		if rdb != nil {
			return cache.NewRedisSlotRepository(rdb, cfg.Session.SlotTTL)
		}
		log.Warn("BOOTSTRAP", "SESSION_STORE=redis without a reachable REDIS_URL, using memory", nil)
	}
	return memory.NewSlotRepository(cfg.Session.SlotTTL)
}

func (c *Container) wireNats(ctx context.Context, cfg *config.Config, b *broadcast.Broadcaster, log logger.ILogger) {
	if cfg.App.NatsURL == "" {
		return
	}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		return
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		natsPub.Close()
		log.Warn("BOOTSTRAP", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	c.closers = append(c.closers, natsPub.Close, natsSub.Close)

	bridge := broadcast.NewNatsBridge(natsPub, natsSub, b, log)
	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	stop, err := bridge.Start(startCtx)
	if err != nil {
		log.Warn("BOOTSTRAP", "Clear-tab bridge not started", map[string]interface{}{"error": err.Error()})
		return
	}
	c.closers = append(c.closers, stop)
	b.SetBridge(bridge)
}
