package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/controller"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/pkg/database"
	"mentorhub_backend/pkg/logger"
	"mentorhub_backend/pkg/monitoring"
	"mentorhub_backend/pkg/security"
	"mentorhub_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	stopTasks       chan struct{}
}

type repositories struct {
	user         *repository.UserRepository
	schedule     *repository.ScheduleRepository
	subscription *repository.SubscriptionRepository
	progress     *repository.ProgressRepository
	verification *repository.VerificationRepository
	slotRequest  *repository.SlotRequestRepository
	booking      *repository.BookingRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	notification *service.NotificationService
	slot         *service.SlotService
	subscription *service.SubscriptionService
	eligibility  *service.EligibilityService
	slotRequest  *service.SlotRequestService
	booking      *service.BookingService
}

type controllers struct {
	auth         *controller.AuthController
	schedule     *controller.ScheduleController
	subscription *controller.SubscriptionController
	eligibility  *controller.EligibilityController
	slotRequest  *controller.SlotRequestController
	booking      *controller.BookingController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig runs every registered hot-reload callback with the new config.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		schedule:     repository.NewScheduleRepository(db),
		subscription: repository.NewSubscriptionRepository(db),
		progress:     repository.NewProgressRepository(db),
		verification: repository.NewVerificationRepository(db),
		slotRequest:  repository.NewSlotRequestRepository(db),
		booking:      repository.NewBookingRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)

	s.notification = service.NewNotificationService(repos.notification, rdb, cfg.Booking.NotificationQueueSize)
	go s.notification.Run()

	s.slot = service.NewSlotService(repos.schedule, s.notification, cfg.Booking.ReserveRetries)
	s.subscription = service.NewSubscriptionService(repos.subscription, cfg.Booking.ReserveRetries)
	s.eligibility = service.NewEligibilityService(repos.progress, repos.verification, s.notification, service.LevelCheckPolicy{
		AutoCheck:      cfg.Booking.AutoLevelCheck,
		AllowLevelJump: cfg.Booking.AllowLevelJump,
		MaxLevelGap:    cfg.Booking.MaxGroupLevelGap,
	})
	s.slotRequest = service.NewSlotRequestService(repos.slotRequest, s.slot, s.notification)
	s.booking = service.NewBookingService(s.slot, s.subscription, s.eligibility, repos.booking, repos.schedule, s.notification)

	// Booking policy follows config reloads without a restart.
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.eligibility.SetPolicy(service.LevelCheckPolicy{
			AutoCheck:      newCfg.Booking.AutoLevelCheck,
			AllowLevelJump: newCfg.Booking.AllowLevelJump,
			MaxLevelGap:    newCfg.Booking.MaxGroupLevelGap,
		})
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		schedule:     controller.NewScheduleController(s.slot),
		subscription: controller.NewSubscriptionController(s.subscription),
		eligibility:  controller.NewEligibilityController(s.eligibility, s.storage),
		slotRequest:  controller.NewSlotRequestController(s.slotRequest),
		booking:      controller.NewBookingController(s.booking),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	interval := time.Duration(cfg.Booking.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	a.stopTasks = make(chan struct{})
	go sweepLoop(interval, a.stopTasks, func() {
		count, err := s.subscription.SweepExpired()
		if err != nil {
			logger.Log.Error("subscription expiry sweep failed", zap.Error(err))
			return
		}
		if count > 0 {
			logger.Log.Info("subscription expiry sweep", zap.Int("expired", count))
		}
	})
}

// sweepLoop runs sweep on every tick until stop is closed.
func sweepLoop(interval time.Duration, stop <-chan struct{}, sweep func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-stop:
			return
		}
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if database.ShouldMigrate(cfg.Server.Mode, cfg.ForceMigrate) {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to run database migrations", zap.Error(err))
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("mentorhub-booking", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.stopTasks != nil {
		close(a.stopTasks)
	}

	// Drain the notification queue before the process exits.
	if a.services != nil && a.services.notification != nil {
		a.services.notification.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
