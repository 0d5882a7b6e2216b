// Inkwell Core - blog and storefront content API
//
// This is the main entry point for the Inkwell Core service. It wires the
// SQLite store, the JWT session layer and the HTTP API, plus the optional
// MQTT event bus, InfluxDB telemetry, Redis rate limiter and S3 banner
// storage. Only the database is required; the rest degrade to no-ops.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/nerrad567/inkwell-core/migrations"

	"github.com/nerrad567/inkwell-core/internal/api"
	"github.com/nerrad567/inkwell-core/internal/audit"
	"github.com/nerrad567/inkwell-core/internal/auth"
	"github.com/nerrad567/inkwell-core/internal/blog"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/config"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/database"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/logging"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/inkwell-core/internal/infrastructure/objectstore"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Inkwell Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"environment", cfg.Server.Environment,
		"level", cfg.Logging.Level,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	codec, err := auth.NewCodec(cfg.Codec())
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}
	users := auth.NewUserRepository(db.DB)
	tokens := auth.NewTokenStore(db.DB)
	sessions := auth.NewSessionService(codec, tokens, users, cfg.Security.AdminEmails, log.Logger)

	seeded, err := auth.SeedAdmin(ctx, users, cfg.Security.SeedAdmin.Email, cfg.Security.SeedAdmin.Password, log.Logger)
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if seeded {
		log.Info("seed admin created", "email", cfg.Security.SeedAdmin.Email)
	}

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		DevMode:  cfg.IsDevelopment(),
		Version:  version,
		Logger:   log,
		Codec:    codec,
		Sessions: sessions,
		Users:    users,
		Blogs:    blog.NewSQLiteRepository(db.DB),
		Comments: blog.NewSQLiteCommentRepository(db.DB),
		Likes:    blog.NewSQLiteLikeRepository(db.DB),
		Audit:    audit.NewSQLiteRepository(db.DB),
		DB:       db,
		Checks:   make(map[string]api.HealthChecker),
	}

	if mqttClient := connectMQTT(cfg, log); mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		deps.Events = mqttClient
		deps.Checks["mqtt"] = mqttClient
	}

	if influxClient := connectInfluxDB(cfg, log); influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		deps.Telemetry = influxClient
		deps.Checks["influxdb"] = influxClient
	}

	if redisClient := connectRedis(ctx, cfg, log); redisClient != nil {
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()
		deps.Redis = redisClient
		deps.Checks["redis"] = redisCheck{redisClient}
	}

	store, err := objectstore.New(ctx, cfg.Storage)
	switch {
	case errors.Is(err, objectstore.ErrNotConfigured):
		log.Warn("banner storage disabled, blog create and banner updates will fail")
	case err != nil:
		return fmt.Errorf("configuring banner storage: %w", err)
	default:
		deps.Banners = store
		deps.Checks["storage"] = store
		log.Info("banner storage configured", "bucket", cfg.Storage.Bucket)
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

func getConfigPath() string {
	if path := os.Getenv("INKWELL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT returns nil when the bus is disabled or unreachable. Events
// are then only audited and broadcast over WebSocket.
func connectMQTT(cfg *config.Config, log *logging.Logger) *mqtt.Client {
	if !cfg.MQTT.Enabled {
		log.Info("MQTT disabled")
		return nil
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT unavailable, continuing without event bus", "error", err)
		return nil
	}
	client.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client
}

func connectInfluxDB(cfg *config.Config, log *logging.Logger) *influxdb.Client {
	client, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
		return nil
	case err != nil:
		log.Warn("InfluxDB unavailable, continuing without telemetry", "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client
}

// connectRedis returns nil when Redis is disabled or does not answer a
// ping. The rate limiter then runs in-process only.
func connectRedis(ctx context.Context, cfg *config.Config, log *logging.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, rate limiting in-process")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting in-process", "addr", cfg.Redis.Addr, "error", err)
		client.Close() //nolint:errcheck // never used
		return nil
	}

	log.Info("Redis connected", "addr", cfg.Redis.Addr)
	return client
}

// redisCheck adapts a Redis client to api.HealthChecker.
type redisCheck struct {
	client redis.UniversalClient
}

func (c redisCheck) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
