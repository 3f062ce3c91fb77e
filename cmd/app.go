package cmd

import (
	"context"
	"fmt"
	"time"

	"kiosk-service/cache"
	"kiosk-service/config"
	"kiosk-service/controllers"
	"kiosk-service/database"
	"kiosk-service/events"
	"kiosk-service/logger"
	"kiosk-service/middleware"
	"kiosk-service/printer"
	"kiosk-service/realtime"
	"kiosk-service/repository"
	"kiosk-service/routes"
	"kiosk-service/services"
	"kiosk-service/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application is the fully wired service.
type application struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	router    *gin.Engine
	hub       *realtime.Hub
	orders    services.OrderService
	devices   services.DeviceService
	publisher services.EventPublisher
	limiter   *middleware.RateLimiter

	closers []func() error
}

// openDatabase opens and migrates the configured database.
func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}
	applied, err := database.Migrate(ctx, db, log)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	if len(applied) > 0 {
		log.Info("Applied migrations", zap.Strings("migrations", applied))
	}
	return db, nil
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageStore == "s3" {
		client, err := storage.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client, cfg.S3Bucket), nil
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

// newOrderService builds the order service. The broadcaster is optional.
func newOrderService(db *gorm.DB, cfg *config.Config, broadcaster services.Broadcaster, publisher services.EventPublisher, log *zap.Logger) services.OrderService {
	return services.NewOrderService(
		repository.NewGormOrderRepository(db),
		repository.NewGormMenuRepository(db),
		broadcaster,
		publisher,
		services.OrderServiceConfig{
			Policy:    services.StatusPolicy(cfg.StatusPolicy),
			Retention: cfg.OrderRetention,
		},
		log,
	)
}

// buildApplication wires storage, services, the websocket hub and the router.
// Redis and Kafka are used only when configured; a Redis that cannot be
// reached disables the cache instead of failing startup.
func buildApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app := &application{cfg: cfg, log: log, db: db}
	app.closers = append(app.closers, func() error { return database.Close(db) })

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	var catalogCache services.CatalogCache = cache.Noop{}
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			catalogCache = cache.NewCatalogCache(client, cfg.CacheTTL, log)
			app.closers = append(app.closers, client.Close)
			log.Info("Catalog cache enabled", zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	var publisher services.EventPublisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log)
		publisher = kp
		app.closers = append(app.closers, kp.Close)
		log.Info("Order events mirrored to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	printerCfg, err := printer.LoadConfig(cfg.PrinterConfig, cfg.Printers)
	if err != nil {
		app.Close()
		return nil, err
	}
	printers := printer.NewGateway(printerCfg, printer.NewCUPSDriver(nil), log)

	app.devices = services.NewDeviceService(repository.NewGormDeviceRepository(db), cfg.HeartbeatTimeout, nil, log)
	app.hub = realtime.NewHub(app.devices, log)

	categoryRepo := repository.NewGormCategoryRepository(db)
	menuRepo := repository.NewGormMenuRepository(db)
	categorySvc := services.NewCategoryService(categoryRepo, images, catalogCache, log)
	menuSvc := services.NewMenuService(menuRepo, categoryRepo, images, catalogCache, app.hub, log)
	app.publisher = publisher
	app.orders = newOrderService(db, cfg, app.hub, publisher, log)
	reportSvc := services.NewReportService(database.NewGateway(db), app.hub, cfg.Version, log)

	validator := controllers.NewRequestValidator(cfg.MaxUploadBytes)
	app.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 5*time.Minute)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.Recovery(log, cfg.IsProduction()),
		logger.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
	)
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	routes.RegisterRoutes(r, routes.Controllers{
		Categories: controllers.NewCategoryController(categorySvc, validator),
		Menu:       controllers.NewMenuController(menuSvc, validator),
		Orders:     controllers.NewOrderController(app.orders, validator),
		Devices:    controllers.NewDeviceController(app.devices),
		Reports:    controllers.NewReportController(reportSvc),
		Printer:    controllers.NewPrinterController(printers, app.orders),
		Images:     controllers.NewImageController(images, log),
		Socket:     app.hub.Handler(realtime.NewUpgrader(cfg.AllowedOrigins)),
	},
		middleware.NoStore(),
		app.limiter.Middleware(),
		middleware.Timeout(cfg.RequestTimeout),
	)
	app.router = r
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("Failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
}
