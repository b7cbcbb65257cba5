package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"photodoctor/internal/cache"
	"photodoctor/internal/config"
	"photodoctor/internal/engine"
	"photodoctor/internal/knowledge"
	"photodoctor/internal/logging"
	"photodoctor/internal/repository"
	"photodoctor/internal/service"
	"photodoctor/internal/transport/rest"
	"photodoctor/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logging.Component(logger, "server")
	ctx := context.Background()

	// Knowledge bundle
	kb, err := knowledge.Load(cfg.KnowledgeDir)
	if err != nil {
		log.Fatal("Failed to load knowledge bundle", zap.Error(err))
	}
	log.Info("Knowledge bundle loaded",
		zap.String("dir", cfg.KnowledgeDir),
		zap.Int("questions", len(kb.Questions)),
		zap.Int("products", len(kb.Catalog)))

	// AI config
	aiConfig := config.DefaultAIConfig()
	var gen service.Generator
	if aiConfig.IsEnabled() {
		gemini, err := service.NewGeminiClient(ctx, aiConfig)
		if err != nil {
			log.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		defer gemini.Close()
		gen = gemini
		log.Info("AI configured", zap.String("vision", aiConfig.Models.Vision))
	} else {
		log.Warn("GEMINI_API_KEY not set, using mock photo reads")
	}

	// MongoDB connection; the service keeps diagnosing without it
	var db *mongo.Database
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = mongoClient.Ping(pingCtx, nil)
		cancel()
	}
	if err != nil {
		log.Warn("MongoDB unavailable, incidents and photos disabled", zap.Error(err))
	} else {
		defer mongoClient.Disconnect(context.Background())
		db = mongoClient.Database(cfg.MongoDB)
		log.Info("Connected to MongoDB", zap.String("db", cfg.MongoDB))
	}

	// Redis connection; without it every start reads the photo again
	var visionCache cache.VisionCache
	if rdb, err := connectRedis(ctx, cfg.RedisURI); err != nil {
		log.Warn("Redis unavailable, vision cache disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		visionCache = cache.NewVisionCache(rdb, cfg.VisionCacheTTL)
		log.Info("Connected to Redis")
	}

	// Initialize repositories
	var (
		incidentRepo repository.IncidentRepo
		photoSvc     *service.PhotoService
		incidentSvc  *service.IncidentService
	)
	if db != nil {
		incidentRepo = repository.NewIncidentRepo(db, logging.Component(logger, "incidents"))
		incidentRepo.EnsureIndexes(ctx)
		incidentSvc = service.NewIncidentService(incidentRepo)

		photoRepo, err := repository.NewPhotoRepo(db)
		if err != nil {
			log.Warn("GridFS unavailable, photo storage disabled", zap.Error(err))
		} else {
			photoSvc = service.NewPhotoService(photoRepo, cfg.PublicBaseURL)
		}

		if cfg.UseMongoCatalog() {
			products, err := repository.NewCatalogRepo(db).List(ctx)
			if err != nil {
				log.Fatal("Failed to read catalog", zap.Error(err))
			}
			if kb, err = kb.WithCatalog(products); err != nil {
				log.Fatal("Invalid catalog in MongoDB", zap.Error(err))
			}
			log.Info("Catalog loaded from MongoDB", zap.Int("products", len(products)))
		}
	} else if cfg.UseMongoCatalog() {
		log.Fatal("CATALOG_SOURCE=mongo requires MongoDB")
	}

	// Engine and services
	eng := engine.New(kb, engine.Options{
		MinQuestions: cfg.MinQuestions,
		MaxQuestions: cfg.MaxQuestions,
		MaxItems:     cfg.MaxItems,
		MaxPaidRatio: cfg.MaxPaidRatio,
	})
	vision := service.NewVisionService(kb, aiConfig, gen, logging.Component(logger, "vision"))
	diagnosisSvc := service.NewDiagnosisService(eng, vision, visionCache, incidentRepo, photoSvc,
		service.DiagnosisOptions{AuditTimeout: cfg.AuditTimeout, ReadTimeout: cfg.ReadTimeout},
		logging.Component(logger, "diagnosis"))

	// Initialize WebSocket hub (wsHub implements service.Broadcaster)
	wsHub := ws.NewHub(logging.Component(logger, "ws"))
	diagnosisSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		DiagnosisService: diagnosisSvc,
		PhotoService:     photoSvc,
		IncidentService:  incidentSvc,
		WSHub:            wsHub,
		Logger:           logging.Component(logger, "http"),
		CORSOrigins:      cfg.CORSOrigins,
		MaxUploadBytes:   cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		log.Info("Endpoints: POST /v1/diagnose, POST /v1/photos, GET /v1/photos/{id}, GET /v1/incidents, GET /v1/incidents/{id}, WS /v1/ws/incidents, GET /health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	diagnosisSvc.Wait()
	wsHub.Close()

	log.Info("Server exited")
}

func connectRedis(ctx context.Context, uri string) (*redis.Client, error) {
	if !strings.Contains(uri, "://") {
		uri = "redis://" + uri
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
