package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/curator/internal/ai"
	"github.com/therealutkarshpriyadarshi/curator/internal/analysis"
	"github.com/therealutkarshpriyadarshi/curator/internal/analytics"
	"github.com/therealutkarshpriyadarshi/curator/internal/apicache"
	"github.com/therealutkarshpriyadarshi/curator/internal/cache"
	"github.com/therealutkarshpriyadarshi/curator/internal/config"
	"github.com/therealutkarshpriyadarshi/curator/internal/database"
	"github.com/therealutkarshpriyadarshi/curator/internal/enhance"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/internal/middleware"
	"github.com/therealutkarshpriyadarshi/curator/internal/queue"
	"github.com/therealutkarshpriyadarshi/curator/internal/quota"
	"github.com/therealutkarshpriyadarshi/curator/internal/tracing"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Repo is the persistence surface the handlers use
type Repo interface {
	Health(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	GetPlaylistForUser(ctx context.Context, id, userID string) (*models.Playlist, error)
	ListPlaylists(ctx context.Context, userID string, limit, offset int) ([]*models.Playlist, error)
	UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error
	DeletePlaylist(ctx context.Context, id string) error

	ListVideos(ctx context.Context, playlistID string, limit int) ([]*models.PlaylistVideo, error)
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	ReorderVideos(ctx context.Context, playlistID string, orderedIDs []string) error

	CreateImportJob(ctx context.Context, job *models.ImportJob) error
	GetImportJob(ctx context.Context, id string) (*models.ImportJob, error)
	ListImportJobs(ctx context.Context, userID string, limit int) ([]*models.ImportJob, error)
}

// Enhancer drives AI description enhancement
type Enhancer interface {
	EnhanceDescription(ctx context.Context, playlistID, userID string) (*models.EnhancementResult, error)
	History(ctx context.Context, playlistID, userID string, limit int) ([]*models.EnhancementRecord, error)
	Rate(ctx context.Context, recordID, userID string, rating int) error
	Revert(ctx context.Context, recordID, userID string) error
	Preferences(ctx context.Context, userID string) (*models.EnhancementPreferences, error)
	UpdatePreferences(ctx context.Context, prefs *models.EnhancementPreferences) error
	Usage(ctx context.Context, userID string, days int) (*models.UsageSummary, error)
}

// Analyzer derives content analyses
type Analyzer interface {
	Analyze(ctx context.Context, playlist *models.Playlist, kind string, videos []*models.PlaylistVideo) (*models.AnalysisResult, error)
	AnalyzeAll(ctx context.Context, playlist *models.Playlist, videos []*models.PlaylistVideo) (*models.ComprehensiveAnalysis, error)
	Invalidate(ctx context.Context, playlistID string) error
}

// QuotaReader exposes upstream quota standing
type QuotaReader interface {
	Usage(ctx context.Context, apiName string) (*models.QuotaRecord, int, error)
	Budget() int
}

// Sweeper evicts expired response-cache rows
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Publisher hands import jobs to workers
type Publisher interface {
	PublishImport(ctx context.Context, req *models.ImportRequest) error
	GetQueueDepth() (int, error)
}

// Coordinator is the Redis-backed session and locking layer
type Coordinator interface {
	SetSession(ctx context.Context, token string, session *cache.Session, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*cache.Session, error)
	DeleteSession(ctx context.Context, token string) error
	AcquirePlaylistLock(ctx context.Context, playlistID string, ttl time.Duration) (bool, error)
	ReleasePlaylistLock(ctx context.Context, playlistID string) error
	GetImportJob(ctx context.Context, jobID string) (*models.ImportJob, error)
	SetImportJob(ctx context.Context, job *models.ImportJob, ttl time.Duration) error
}

type API struct {
	cfg       *config.Config
	repo      Repo
	coord     Coordinator
	queue     Publisher
	enhancer  Enhancer
	analyzer  Analyzer
	ledger    QuotaReader
	respCache Sweeper
	analytics *analytics.Service
	logger    *logging.Logger
}

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	// Tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize tracer")
		}
		defer closer.Close()
	}

	// Database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repo := database.NewRepository(db)

	// Redis session and coordination store
	coord, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer coord.Close()

	// Queue
	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to queue")
	}
	defer q.Close()

	// Upstream quota ledger and response cache
	ledger := quota.NewLedger(repo, cfg.YouTube.DailyQuota, logger)
	respCache := apicache.New(repo, ledger, logger)

	// AI enhancement
	oracle := ai.NewClient(cfg.AI, logger)
	enhancer := enhance.NewService(repo, oracle, cfg.AI.Cooldown, logger)
	analyzer := analysis.NewEngine(repo, oracle, logger)

	api := &API{
		cfg:       cfg,
		repo:      repo,
		coord:     coord,
		queue:     q,
		enhancer:  enhancer,
		analyzer:  analyzer,
		ledger:    ledger,
		respCache: respCache,
		analytics: analytics.NewService(repo, logger),
		logger:    logger,
	}

	// Metrics server
	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsSrv.Start(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(ctx)
		}()
	}

	// Setup router
	router := setupRouter(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("addr", addr).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

func setupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(api.logger))

	limiter := middleware.NewRateLimiter(20, 40)
	router.Use(middleware.RateLimit(limiter))

	// Health check
	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/register", api.register)
	v1.POST("/auth/login", api.login)

	// Authenticated routes
	auth := v1.Group("")
	auth.Use(middleware.JWTAuth())
	{
		auth.POST("/auth/logout", api.logout)
		auth.GET("/auth/me", api.currentUser)

		// Playlists
		auth.GET("/playlists", api.listPlaylists)
		auth.GET("/playlists/:id", api.getPlaylist)
		auth.PATCH("/playlists/:id", api.updatePlaylist)
		auth.DELETE("/playlists/:id", api.deletePlaylist)

		// Playlist videos
		auth.GET("/playlists/:id/videos", api.listPlaylistVideos)
		auth.DELETE("/playlists/:id/videos/:videoId", api.removePlaylistVideo)
		auth.PUT("/playlists/:id/videos/order", api.reorderPlaylistVideos)

		// Imports
		auth.POST("/imports", api.createImport)
		auth.GET("/imports", api.listImports)
		auth.GET("/imports/:id", api.getImport)

		// Enhancement
		enhanceGroup := auth.Group("")
		if coord, ok := api.coord.(middleware.RequestCounter); ok {
			enhanceGroup.Use(middleware.EnhancementBudget(coord, 30, time.Hour))
		}
		enhanceGroup.POST("/playlists/:id/enhance", api.enhancePlaylist)

		auth.GET("/playlists/:id/enhancements", api.enhancementHistory)
		auth.POST("/enhancements/:id/rate", api.rateEnhancement)
		auth.POST("/enhancements/:id/revert", api.revertEnhancement)
		auth.GET("/preferences", api.getPreferences)
		auth.PUT("/preferences", api.updatePreferences)
		auth.GET("/usage", api.usageSummary)

		// Analysis
		auth.GET("/playlists/:id/analysis", api.comprehensiveAnalysis)
		auth.GET("/playlists/:id/analysis/:kind", api.analyzePlaylist)

		// Activity and operations
		auth.GET("/activity", api.activityFeed)
		auth.GET("/quota", api.quotaStatus)
		auth.POST("/admin/cache/sweep", api.sweepCache)
		auth.GET("/admin/queue", api.queueDepth)
	}

	return router
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
