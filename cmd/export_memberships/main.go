package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mansoorceksport/memberships/internal/config"
	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/mansoorceksport/memberships/internal/identity"
	"github.com/mansoorceksport/memberships/internal/repository"
	"github.com/mansoorceksport/memberships/internal/server"
	"github.com/mansoorceksport/memberships/internal/service"
	"github.com/sirupsen/logrus"
)

// Writes every membership and period stored in MongoDB to the snapshot bucket
func main() {
	now := time.Now().UTC()
	key := flag.String("key", fmt.Sprintf("snapshots/memberships-%s.json", now.Format("20060102T150405Z")), "object key to write")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	server.ConfigureLogging(cfg.LogLevel)

	if cfg.Storage.Driver != config.StorageMongo {
		logrus.Fatal("export requires STORAGE_DRIVER=mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mongoClient, err := server.ConnectMongo(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer mongoClient.Disconnect(context.Background())

	files, err := repository.NewSeaweedS3Repository(ctx, cfg.S3)
	if err != nil {
		logrus.Fatalf("Failed to initialize S3 repository: %v", err)
	}

	stores := server.NewStores(cfg, mongoClient, nil)
	exporter := service.NewSnapshotService(stores.Memberships, stores.Periods, nil, domain.FixedClock(now), identity.UUIDGenerator{})

	url, err := exporter.ExportTo(ctx, files, *key)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.WithField("url", url).Info("Export complete")
}
