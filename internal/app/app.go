package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"closer_club_backend/internal/config"
	"closer_club_backend/internal/controller"
	"closer_club_backend/internal/repository"
	"closer_club_backend/internal/service"
	"closer_club_backend/internal/upload"
	"closer_club_backend/internal/util"
	"closer_club_backend/pkg/database"
	"closer_club_backend/pkg/logger"
	"closer_club_backend/pkg/monitoring"
	"closer_club_backend/pkg/security"
	"closer_club_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	cron            *cron.Cron
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	lesson      *repository.LessonRepository
	quiz        *repository.QuizRepository
	progress    *repository.ProgressRepository
	enrollment  *repository.EnrollmentRepository
	video       *repository.VideoRepository
	certificate *repository.CertificateRepository
	lead        *repository.LeadRepository
}

type services struct {
	auth        *service.AuthService
	user        *service.UserService
	course      *service.CourseService
	quiz        *service.QuizService
	progress    *service.ProgressService
	enrollment  *service.EnrollmentService
	storage     *service.StorageService
	video       *service.VideoService
	certificate *service.CertificateService
	lead        *service.LeadService
}

type controllers struct {
	auth        *controller.AuthController
	user        *controller.UserController
	course      *controller.CourseController
	quiz        *controller.QuizController
	progress    *controller.ProgressController
	enrollment  *controller.EnrollmentController
	video       *controller.VideoController
	certificate *controller.CertificateController
	lead        *controller.LeadController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig fans a reloaded configuration out to registered callbacks.
// Components that cache config values opt in via RegisterConfigCallback.
func (a *App) ApplyConfig(cfg *config.Config) {
	logger.Log.Info("Configuration reloaded")
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		lesson:      repository.NewLessonRepository(db),
		quiz:        repository.NewQuizRepository(db),
		progress:    repository.NewProgressRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		video:       repository.NewVideoRepository(db),
		certificate: repository.NewCertificateRepository(db),
		lead:        repository.NewLeadRepository(db),
	}
}

// sessionStore picks where upload sessions persist. Redis keeps them across
// instances, the file store is the single-node default.
func (a *App) sessionStore(cfg *config.Config, rdb *redis.Client) upload.SessionStore {
	if cfg.Upload.SessionStore == "redis" && rdb != nil {
		ttl := time.Duration(cfg.Upload.SessionTTLHours) * time.Hour
		return upload.NewRedisSessionStore(rdb, ttl)
	}
	store, err := upload.NewFileSessionStore(cfg.Upload.SessionDir)
	if err != nil {
		logger.Log.Fatal("Failed to open upload session store", zap.Error(err))
	}
	return store
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.course = service.NewCourseService(repos.course, repos.lesson)
	s.quiz = service.NewQuizService(repos.quiz)
	s.progress = service.NewProgressService(repos.progress)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course)

	manager := upload.NewManager(a.sessionStore(cfg, rdb))
	cdn := service.NewCDNClient(&cfg.Video)
	s.video = service.NewVideoService(repos.video, cdn, manager, cfg)

	s.certificate = service.NewCertificateService(
		repos.certificate, repos.user, repos.course, s.progress, s.storage, &cfg.Certificate)
	s.lead = service.NewLeadService(repos.lead, repos.user, db, cfg.Mail)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		user:        controller.NewUserController(s.user),
		course:      controller.NewCourseController(s.course, s.quiz),
		quiz:        controller.NewQuizController(s.quiz, s.course),
		progress:    controller.NewProgressController(s.progress),
		enrollment:  controller.NewEnrollmentController(s.enrollment),
		video:       controller.NewVideoController(s.video),
		certificate: controller.NewCertificateController(s.certificate),
		lead:        controller.NewLeadController(s.lead),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks schedules the upload-session garbage collector.
func (a *App) startBackgroundTasks(s *services) {
	a.cron = cron.New()
	_, err := a.cron.AddFunc("@hourly", func() {
		s.video.CleanupSessions(context.Background())
	})
	if err != nil {
		logger.Log.Error("Failed to schedule session cleanup", zap.Error(err))
	}
	a.cron.Start()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Upload.SessionStore == "redis" {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("closer-club", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	if a.cron != nil {
		a.cron.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := tracing.Shutdown(a.tracer); err != nil {
			logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
	logger.Sync()
}
