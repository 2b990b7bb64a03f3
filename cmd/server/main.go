package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/auth"
	"github.com/vibecut/api/internal/config"
	"github.com/vibecut/api/internal/engine"
	"github.com/vibecut/api/internal/handler"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/middleware"
	"github.com/vibecut/api/internal/service"
	ws "github.com/vibecut/api/internal/websocket"
	"github.com/vibecut/api/internal/worker"
	"github.com/vibecut/api/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logging.NewLogger(cfg.Server.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis not available", zap.Error(err))
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	eng := engine.New(cfg, log)

	// Zitadel JWKS verifier is optional; legacy HMAC tokens keep working
	var tokenVerifier auth.TokenVerifier
	if cfg.Zitadel.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(ctx, &cfg.Zitadel)
		if err != nil {
			log.Warn("JWKS verifier not initialized", zap.Error(err))
		} else {
			defer jwksVerifier.Close()
			tokenVerifier = jwksVerifier
		}
	}

	jobStore := service.NewRedisJobStore(redisClient)
	jobs := service.NewJobManager(jobStore, asynqClient)

	editService := service.NewEditService(jobs)
	indexService := service.NewIndexService(jobs, jobStore, eng.VideoDB, cfg.VideoDB.Collection, cfg.Indexing.ScenePrompt)
	searchService := eng.Search(cfg, log)
	uploadService := service.NewUploadService(eng.Storage, eng.VideoDB, log)

	editHandler := handler.NewEditHandler(editService, validate)
	indexHandler := handler.NewIndexHandler(indexService, validate)
	searchHandler := handler.NewSearchHandler(searchService, validate)
	uploadHandler := handler.NewUploadHandler(uploadService, cfg.Server.BodyLimitMB)
	authHandler := handler.NewAuthHandler(tokenVerifier, cfg.JWT.Secret)

	var apiAuth fiber.Handler
	if cfg.Gateway.Enabled {
		// behind Traefik ForwardAuth
		log.Info("gateway mode enabled, using header-based auth")
		apiAuth = middleware.GatewayAuthMiddleware()
	} else {
		apiAuth = middleware.NewAuthMiddleware(tokenVerifier, cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: response.FromError,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		services := fiber.Map{"auth": tokenVerifier != nil || cfg.JWT.Secret != ""}
		for name, ok := range eng.Services() {
			services[name] = ok
		}
		return c.JSON(fiber.Map{
			"status":   "ok",
			"services": services,
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	api := app.Group("/api", apiAuth)

	api.Get("/presets", handler.ListPresets)
	api.Get("/presets/:name", handler.GetPreset)

	upload := api.Group("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour))
	upload.Post("/video", uploadHandler.Video)
	upload.Delete("/video/:key", uploadHandler.DeleteVideo)

	index := api.Group("/index")
	index.Post("/start", rateLimiter.IndexLimit(cfg.RateLimit.IndexPerHour), indexHandler.Start)
	index.Get("/status/:jobId", indexHandler.Status)
	index.Get("/result/:jobId", indexHandler.Result)

	collections := api.Group("/collections")
	collections.Post("/", rateLimiter.IndexLimit(cfg.RateLimit.IndexPerHour), indexHandler.CreateCollection)
	collections.Get("/videos", indexHandler.CollectionVideos)

	api.Post("/search", rateLimiter.SearchLimit(cfg.RateLimit.SearchPerMin), searchHandler.Search)

	edit := api.Group("/edit")
	edit.Post("/start", rateLimiter.EditLimit(cfg.RateLimit.EditPerHour), editHandler.Start)
	edit.Get("/status/:jobId", editHandler.Status)
	edit.Get("/result/:jobId", editHandler.Result)
	edit.Post("/cancel/:jobId", editHandler.Cancel)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("jobId"))
	}))

	workers := startWorkerServer(redisOpt, cfg, jobs, eng, hub, log)

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
		workers.Shutdown()
	}()

	addr := ":" + cfg.Server.Port
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// startWorkerServer runs the edit and index queues in one asynq server.
func startWorkerServer(redisOpt asynq.RedisClientOpt, cfg *config.Config, jobs *service.JobManager, eng *engine.Engine, hub *ws.Hub, log *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			service.QueueEdit:  6,
			service.QueueIndex: 4,
		},
		Logger: log.Sugar().Named("asynq"),
	})

	editWorker := worker.NewEditWorker(jobs, eng.Workflow, hub, log)
	indexWorker := worker.NewIndexWorker(jobs, eng.Batch, eng.Collections, hub, cfg.Indexing.MaxConcurrency, log)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeEdit, editWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypeIndex, indexWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		log.Error("asynq worker error", zap.Error(err))
	}
	return srv
}
