package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/synergylearning/moodle-mod-onlyoffice/handlers"
	actrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/activity/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/callback"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/config"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/crypt"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/database"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/docserver"
	docrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/document/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/editor"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/events"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/oidc"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/logger"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/metrics"
	"github.com/synergylearning/moodle-mod-onlyoffice/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: docserver=%v mongo=%v redis=%v secret_set=%v",
		cfg.DocServer.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.DocServer.Secret != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and event sink can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Domain events go to Redis when available, otherwise stay in memory
	var sink events.Sink = events.NewMemorySink()
	if redisClient != nil {
		sink = events.NewRedisSink(redisClient, events.DefaultChannel)
	}

	// MongoDB-backed repositories with in-memory fallback
	var acts actrepo.Repository = actrepo.NewMemoryRepo()
	var docs docrepo.Repository = docrepo.NewMemoryRepo()
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		// retry/backoff to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts, using in-memory repositories: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			db := mongoClient.Database(cfg.MongoDB.Database)
			acts = actrepo.NewMongoRepo(db.Collection("activities"))
			docs = docrepo.NewMongoRepo(db.Collection("documents"))
		}
	}

	// MinIO-backed file storage with in-memory fallback
	var files storage.Storage
	minioCfg := storage.LoadMinIOConfig()
	if minioCfg.Endpoint != "" {
		s, err := storage.NewMinIOStorage(minioCfg)
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage, files will not survive restarts: %v", err)
			files = storage.NewMemoryStorage()
		} else {
			files = s
		}
	} else {
		logger.Warnf("MINIO_ENDPOINT not set, files will not survive restarts")
		files = storage.NewMemoryStorage()
	}

	// OIDC verifier for the management API; opt-in insecure mode for
	// integration tests
	var verifier middleware.Verifier
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}

	// core wiring
	codec := crypt.NewCodec(cfg.DocServer.Secret)
	docStore := store.New(docs, files, sink)
	client := docserver.NewClient(cfg.DocServer.URL, cfg.DocServer.FetchTimeout)
	builder := editor.NewBuilder(codec, cfg.Server.PublicURL, cfg.LMS.CourseViewURL)
	callbacks := callback.New(acts, docStore, client)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: the edit surface needs the shared secret; admin needs OIDC
	// when configured
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"secret":  codec.Configured(),
			"storage": true,
			"oidc":    true,
			"redis":   true,
		}
		if !codec.Configured() {
			ready = false
		}
		if cfg.OIDC.IssuerURL != "" && verifier == nil {
			deps["oidc"] = false
			ready = false
		}
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis && redisClient == nil {
			deps["redis"] = false
			ready = false
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	adminAuth := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "management API requires OIDC"})
	}
	if verifier != nil {
		adminAuth = middleware.AuthMiddleware(verifier)
	}

	h := handlers.New(acts, docStore, files, codec, builder, client, callbacks, sink, cfg.DocServer.URL, cfg.Defaults)
	h.Register(r, middleware.LaunchAuth(codec), gin.HandlerFunc(adminAuth))
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting onlyoffice bridge on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
