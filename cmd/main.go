package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/memberships/internal/config"
	"github.com/mansoorceksport/memberships/internal/server"
	"github.com/mansoorceksport/memberships/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	server.ConfigureLogging(cfg.LogLevel)

	logrus.Info("Starting Membership Service...")

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPHeaders:    telemetry.BasicAuthHeaders(cfg.OTEL.InstanceID, cfg.OTEL.Token),
		Enabled:        cfg.OTEL.Enabled,
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to initialize OpenTelemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelProvider.Shutdown(shutdownCtx)
	}()

	var mongoClient *mongo.Client
	if cfg.Storage.Driver == config.StorageMongo {
		mongoClient, err = server.ConnectMongo(ctx, cfg)
		if err != nil {
			logrus.Fatal(err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logrus.WithError(err).Error("Error disconnecting from MongoDB")
			}
		}()
	} else {
		logrus.Warn("Using in-memory storage, data is lost on restart")
	}

	redisClient, err := server.ConnectRedis(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoClient: mongoClient,
		RedisClient: redisClient,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logrus.Info("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	logrus.Infof("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
