package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/mansoorceksport/memberships/internal/config"
	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/mansoorceksport/memberships/internal/handler"
	"github.com/mansoorceksport/memberships/internal/identity"
	"github.com/mansoorceksport/memberships/internal/middleware"
	"github.com/mansoorceksport/memberships/internal/repository"
	"github.com/mansoorceksport/memberships/internal/service"
	"github.com/mansoorceksport/memberships/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config *config.Config
	// MongoClient is required when the storage driver is mongo
	MongoClient *mongo.Client
	// RedisClient enables list caching and idempotent POST replay; nil disables both
	RedisClient *redis.Client
	// Clock and IDs default to the system clock and the configured id format
	Clock domain.Clock
	IDs   domain.IDGenerator
}

// Stores is the storage stack selected by the configuration
type Stores struct {
	Memberships domain.MembershipRepository
	Periods     domain.MembershipPeriodRepository
	Transactor  domain.Transactor
}

// NewStores builds the membership and period repositories for the configured driver,
// wrapped in the Redis cache when a client is given.
func NewStores(cfg *config.Config, mongoClient *mongo.Client, redisClient *redis.Client) Stores {
	var stores Stores

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		stores.Memberships = repository.NewMemoryMembershipRepository()
		stores.Periods = repository.NewMemoryMembershipPeriodRepository()
		stores.Transactor = domain.NoopTransactor{}
	default:
		db := mongoClient.Database(cfg.MongoDB.Database)
		stores.Memberships = repository.NewMongoMembershipRepository(db)
		stores.Periods = repository.NewMongoMembershipPeriodRepository(db)
		if cfg.MongoDB.Transactions {
			stores.Transactor = repository.NewMongoTransactor(mongoClient)
		} else {
			stores.Transactor = domain.NoopTransactor{}
		}
	}

	if redisClient != nil {
		cache := repository.NewRedisCacheRepository(redisClient)
		stores.Memberships = repository.NewCachedMembershipRepository(stores.Memberships, cache, cfg.Membership.ListCacheTTL)
		stores.Periods = repository.NewCachedMembershipPeriodRepository(stores.Periods, cache, cfg.Membership.ListCacheTTL)
	}

	return stores
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	cfg := deps.Config

	clock := deps.Clock
	if clock == nil {
		clock = domain.SystemClock{}
	}
	ids := deps.IDs
	if ids == nil {
		generator, err := identity.New(cfg.Membership.IDFormat)
		if err != nil {
			logrus.WithError(err).Warn("[Server] falling back to uuid identifiers")
			generator = identity.UUIDGenerator{}
		}
		ids = generator
	}

	stores := NewStores(cfg, deps.MongoClient, deps.RedisClient)

	membershipService := service.NewMembershipService(
		stores.Memberships,
		stores.Periods,
		stores.Transactor,
		clock,
		ids,
		cfg.Membership.DefaultUserID,
	)
	membershipHandler := handler.NewMembershipHandler(membershipService)

	app := fiber.New(fiber.Config{
		AppName:      "Membership Service",
		BodyLimit:    cfg.Server.BodyLimitKB * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Correlation-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	memberships := app.Group("/memberships")
	if deps.RedisClient != nil {
		memberships.Post("/", middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Membership.IdempotencyTTL), membershipHandler.CreateMembership)
	} else {
		memberships.Post("/", membershipHandler.CreateMembership)
	}
	memberships.Get("/", membershipHandler.ListMemberships)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	label := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		label = utils.StatusMessage(code)
	}
	if code >= fiber.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Path()).Error("[Server] request failed")
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   label,
		"message": err.Error(),
	})
}
