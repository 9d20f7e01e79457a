package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/mansoorceksport/memberships/internal/config"
	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/mansoorceksport/memberships/internal/identity"
	"github.com/mansoorceksport/memberships/internal/repository"
	"github.com/mansoorceksport/memberships/internal/server"
	"github.com/mansoorceksport/memberships/internal/service"
	"github.com/sirupsen/logrus"
)

// Imports a membership snapshot into MongoDB, either from a local JSON file or from
// the snapshot bucket. The file layout is {"memberships": [...], "membershipPeriods": [...]}.
func main() {
	file := flag.String("file", "", "path of a local snapshot file")
	key := flag.String("key", "", "object key of a snapshot in the S3 bucket")
	flag.Parse()

	if (*file == "") == (*key == "") {
		logrus.Fatal("exactly one of -file or -key is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	server.ConfigureLogging(cfg.LogLevel)

	if cfg.Storage.Driver != config.StorageMongo {
		logrus.Fatal("seeding requires STORAGE_DRIVER=mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mongoClient, err := server.ConnectMongo(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer mongoClient.Disconnect(context.Background())

	ids, err := identity.New(cfg.Membership.IDFormat)
	if err != nil {
		logrus.Fatal(err)
	}

	// Writes go straight to Mongo; the cache is dropped once the import is done
	stores := server.NewStores(cfg, mongoClient, nil)
	importer := service.NewSnapshotService(stores.Memberships, stores.Periods, stores.Transactor, domain.SystemClock{}, ids)

	var summary *service.ImportSummary
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			logrus.Fatalf("Failed to read %s: %v", *file, err)
		}
		snapshot, err := service.DecodeSnapshot(data)
		if err != nil {
			logrus.Fatal(err)
		}
		summary, err = importer.Import(ctx, snapshot)
		if err != nil {
			logrus.Fatal(err)
		}
	} else {
		files, err := repository.NewSeaweedS3Repository(ctx, cfg.S3)
		if err != nil {
			logrus.Fatalf("Failed to initialize S3 repository: %v", err)
		}
		summary, err = importer.ImportFrom(ctx, files, *key)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	redisClient, err := server.ConnectRedis(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Warn("Imported, but the membership cache could not be cleared")
	} else if redisClient != nil {
		defer redisClient.Close()
		if err := repository.NewRedisCacheRepository(redisClient).InvalidateMemberships(ctx); err != nil {
			logrus.WithError(err).Warn("Imported, but the membership cache could not be cleared")
		}
	}

	logrus.WithFields(logrus.Fields{
		"memberships": summary.Memberships,
		"periods":     summary.Periods,
	}).Info("Seeding complete")
}
