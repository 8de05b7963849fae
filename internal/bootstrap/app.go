package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"internship-backend/internal/applications"
	"internship-backend/internal/audit"
	googleauth "internship-backend/internal/auth"
	"internship-backend/internal/notifications"
	"internship-backend/internal/queue"
	"internship-backend/internal/services/health"
	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/config"
	"internship-backend/internal/shared/server"
	"internship-backend/internal/shared/server/middleware"
	"internship-backend/internal/shared/storage/db"
	"internship-backend/internal/shared/storage/object"
	localstore "internship-backend/internal/shared/storage/object/local"
	s3store "internship-backend/internal/shared/storage/object/s3"
	"internship-backend/internal/shared/telemetry"
	"internship-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Objects object.ObjectStore
	Queue   queue.Client
	Redis   *redis.Client
	Signer  *auth.Signer

	UsersRepo         users.Repo
	AuditRepo         audit.Repo
	NotificationsRepo notifications.Repo
	ApplicationStore  applications.Store

	UsersService         *users.Service
	NotificationsService *notifications.Service
	AuditService         *audit.Service
	Engine               *applications.Engine

	// Memory is set when no database is configured.
	Memory *MemoryStores
}

// MemoryStores exposes the in-memory backends so dev seeding and tests can
// reach them.
type MemoryStores struct {
	Users         *users.MemoryRepo
	Audit         *audit.MemoryRepo
	Notifications *notifications.MemoryRepo
	Applications  *applications.MemoryStore
}

// Build connects the configured backends and wires services, handlers and routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL, cfg.DevLike())
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := buildObjects(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := buildRedis(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Objects: objects,
		Queue:   queueClient,
		Redis:   redisClient,
		Signer:  signer,
	}
	buildRepos(app)
	buildServices(app)

	var limiter middleware.Limiter
	if redisClient != nil {
		limiter = middleware.NewRedisLimiter(redisClient)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:               cfg,
		Verifier:             signer,
		Limiter:              limiter,
		Health:               health.NewService(pinger(sqlDB)),
		GoogleAuth:           googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, signer, app.UsersService),
		UsersHandler:         users.NewHandler(app.UsersService),
		ApplicationsHandler:  applications.NewHandler(app.Engine, cfg.MaxUploadSize),
		AuditHandler:         audit.NewHandler(app.AuditService),
		NotificationsHandler: notifications.NewHandler(app.NotificationsService),
	})

	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.DevLike() {
			telemetry.Warn("bootstrap.memory_stores", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return sqlDB, nil
}

func buildObjects(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStore {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.NotifyQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.NotifyQueueURL)
}

func buildRedis(cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func buildRepos(app *App) {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.AuditRepo = audit.NewPGRepo(app.DB)
		app.NotificationsRepo = &notifications.PGRepo{DB: app.DB}
		app.ApplicationStore = applications.NewPGStore(app.DB)
		return
	}

	mem := &MemoryStores{
		Users:         users.NewMemoryRepo(),
		Audit:         audit.NewMemoryRepo(),
		Notifications: notifications.NewMemoryRepo(),
	}
	mem.Applications = applications.NewMemoryStore(mem.Users, mem.Audit)
	app.Memory = mem
	app.UsersRepo = mem.Users
	app.AuditRepo = mem.Audit
	app.NotificationsRepo = mem.Notifications
	app.ApplicationStore = mem.Applications
}

func buildServices(app *App) {
	app.UsersService = users.NewService(app.UsersRepo)
	app.NotificationsService = notifications.NewService(app.NotificationsRepo, app.Queue)
	app.Engine = applications.NewEngine(app.ApplicationStore, app.Objects, app.NotificationsService, app.UsersService)
	app.AuditService = audit.NewService(app.AuditRepo, app.Engine.AuditAccess())
}

// pinger keeps a nil *sql.DB from becoming a non-nil interface.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
