package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coaching_backend/internal/config"
	"coaching_backend/internal/controller"
	"coaching_backend/internal/repository"
	"coaching_backend/internal/service"
	"coaching_backend/pkg/database"
	"coaching_backend/pkg/events"
	"coaching_backend/pkg/logger"
	"coaching_backend/pkg/monitoring"
	"coaching_backend/pkg/security"
	"coaching_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Bus             *events.Bus
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	batch        *repository.BatchRepository
	assessment   *repository.AssessmentRepository
	attempt      *repository.AttemptRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	assessment   *service.AssessmentService
	attempt      *service.AttemptService
	result       *service.ResultService
	notification *service.NotificationService
}

type controllers struct {
	auth         *controller.AuthController
	assessment   *controller.AssessmentController
	attempt      *controller.AttemptController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 热更新回调入口，由配置监听器触发
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		batch:        repository.NewBatchRepository(db),
		assessment:   repository.NewAssessmentRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client, bus *events.Bus) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.batch, db, bus)
	s.attempt = service.NewAttemptService(repos.attempt, repos.assessment, repos.batch, db, bus, logger.Log)
	s.result = service.NewResultService(repos.attempt, repos.assessment, repos.user, rdb, logger.Log)
	s.notification = service.NewNotificationService(repos.notification, repos.batch, s.result, logger.Log)

	// 站内通知通过事件总线挂接，发布/交卷都不等通知落库
	s.notification.SubscribeTo(bus)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		assessment:   controller.NewAssessmentController(s.assessment, s.result, s.auth),
		attempt:      controller.NewAttemptController(s.attempt, s.result, s.auth),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	bus := events.NewBus()

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Bus:    bus,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb, bus)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("coaching-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, repos, cfg)

	// 日志级别支持热更新
	app.RegisterConfigCallback(func(next *config.Config) {
		logger.SetLevel(next.Server.Mode)
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
