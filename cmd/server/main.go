package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"merchant-service/internal/api"
	"merchant-service/internal/auth"
	"merchant-service/internal/config"
	"merchant-service/internal/domain/repositories"
	"merchant-service/internal/messaging"
	"merchant-service/internal/metrics"
	"merchant-service/internal/services"
	"merchant-service/internal/storage"
	"merchant-service/internal/storage/memory"
	"merchant-service/shared/kafka"
	"merchant-service/shared/logger"
	"merchant-service/shared/middleware"
	"merchant-service/shared/nacos"

	"github.com/gin-gonic/gin"
)

const serviceName = "merchant-service"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// The logger depends on config; fall back to a default one.
		bootLog, _ := logger.NewLogger(logger.Config{Level: logger.LevelInfo, ServiceName: serviceName, JSONFormat: true})
		bootLog.Fatal("load config: %v", err)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: serviceName,
		FilePath:    cfg.Log.FilePath,
		JSONFormat:  cfg.Log.JSONFormat,
	})
	if err != nil {
		bootLog, _ := logger.NewLogger(logger.Config{Level: logger.LevelInfo, ServiceName: serviceName, JSONFormat: true})
		bootLog.Fatal("init logger: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	var repo repositories.MerchantRepository
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory merchant store; data is lost on restart")
		repo = memory.NewMerchantRepository()
	default:
		if cfg.Database.AutoMigrate {
			if err := storage.Migrate(cfg.Database.URL(), "up"); err != nil {
				log.Fatal("migrate database: %v", err)
			}
			log.Info("database schema is up to date")
		}

		db, err := storage.NewDBConnection(cfg.Database)
		if err != nil {
			log.Fatal("connect database: %v", err)
		}
		repos := storage.NewRepositories(db)
		defer repos.Close()
		repo = repos.MerchantRepository
	}

	m := metrics.New()
	merchantService := services.NewMerchantService(repo, log,
		services.WithIdentifierGenerator(services.NewRandomIdentifierGenerator(cfg.Merchant.IDPrefix, cfg.Merchant.IDLength)),
		services.WithMaxIdentifierAttempts(cfg.Merchant.IDMaxAttempts),
		services.WithPageSizes(cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize),
		services.WithMetrics(m),
	)

	var tokens *auth.JWTService
	if cfg.JWT.Secret != "" {
		tokens = auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	} else {
		log.Warn("jwt.secret is empty; merchant routes are unauthenticated")
	}

	router := api.NewRouter(api.Dependencies{
		MerchantService: merchantService,
		Tokens:          tokens,
		Metrics:         m,
		Logger:          log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           middleware.TraceMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var consumer *kafka.Consumer
	if cfg.Kafka.Enable {
		consumer, err = messaging.NewStatusCommandConsumer(cfg.Kafka, merchantService, log)
		if err != nil {
			log.WithError(err).Error("kafka consumer disabled")
		} else {
			consumer.Start(ctx)
		}
	}

	var (
		nacosClient   *nacos.Client
		nacosInstance nacos.Instance
	)
	if cfg.Nacos.Enable {
		nacosClient, err = nacos.NewClient(nacos.Config{
			ServerAddr:  cfg.Nacos.ServerAddr,
			NamespaceID: cfg.Nacos.NamespaceID,
			Group:       cfg.Nacos.Group,
			LogDir:      cfg.Nacos.LogDir,
			CacheDir:    cfg.Nacos.CacheDir,
		}, log)
		if err != nil {
			log.WithError(err).Error("nacos client disabled")
		} else {
			port, _ := strconv.Atoi(cfg.Server.Port)
			nacosInstance, err = nacosClient.RegisterService(nacos.Instance{
				ServiceName: cfg.Nacos.ServiceName,
				IP:          cfg.Nacos.ServiceIP,
				Port:        port,
				Weight:      cfg.Nacos.Weight,
				Metadata:    cfg.Nacos.Metadata,
			})
			if err != nil {
				log.WithError(err).Error("nacos registration failed")
				nacosClient.Close()
				nacosClient = nil
			} else {
				log.Info("registered with nacos as %s at %s:%d", nacosInstance.ServiceName, nacosInstance.IP, nacosInstance.Port)
				nacosClient.StartHealthCheck(ctx, nacosInstance, cfg.Nacos.HeartbeatInterval)
			}
		}
	}

	go func() {
		log.Info("merchant service listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down merchant service")

	if nacosClient != nil {
		if err := nacosClient.DeregisterService(nacosInstance); err != nil {
			log.WithError(err).Warn("nacos deregistration failed")
		}
		nacosClient.Close()
	}

	stop()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.WithError(err).Warn("close kafka consumer")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}

	log.Info("merchant service stopped")
}
