// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package main is the entry point for the Vigilo server.
//
// Vigilo is a perimeter surveillance pipeline: cameras submit detection
// envelopes over the REST API, a queue-fed classifier scores them for
// threat severity, and high-severity classifications raise alerts that
// operators acknowledge through the same API or watch live over
// WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, and VIGILO_* environment variables (Koanf v2)
//  2. Logging: zerolog, structured JSON by default
//  3. Grant store: BadgerDB for token grants and detection snapshots
//  4. Database: DuckDB for classifications and alerts
//  5. Token authority: JWT signing, bcrypt directory, Casbin role matrix
//  6. NATS JetStream: embedded or external broker, detection and alert streams
//  7. Classifier and consumers: rule-based or weights-file scorer
//  8. HTTP server: chi router with auth, rate limiting, and Prometheus metrics
//  9. Supervisor tree: suture v4 runs everything and restarts what crashes
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - VIGILO_* environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
//
// For production:
//   - VIGILO_SECURITY_JWT_SECRET: 32+ character secret for token signing
//   - VIGILO_SECURITY_ADMIN_PASSWORD: admin account password
//   - VIGILO_SECURITY_GRANT_STORE_PATH: Badger directory so revocations
//     survive restarts
//
// In development both secrets may be omitted: the server generates an
// ephemeral signing secret and seeds demo accounts.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Drains the queue consumers, then shuts down the broker
//   - Closes the grant store and database
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/vigilo/internal/api"
	"github.com/tomtom215/vigilo/internal/auth"
	"github.com/tomtom215/vigilo/internal/authz"
	"github.com/tomtom215/vigilo/internal/cache"
	"github.com/tomtom215/vigilo/internal/classifier"
	"github.com/tomtom215/vigilo/internal/config"
	"github.com/tomtom215/vigilo/internal/database"
	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/pipeline"
	"github.com/tomtom215/vigilo/internal/snapshot"
	"github.com/tomtom215/vigilo/internal/stats"
	"github.com/tomtom215/vigilo/internal/supervisor"
	ws "github.com/tomtom215/vigilo/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const recentAlertCapacity = 100

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Vigilo")

	// Ephemeral dev secret: restarting invalidates outstanding tokens,
	// which is acceptable outside production (Validate enforces a real
	// secret there).
	jwtSecret := cfg.Security.JWTSecret
	if jwtSecret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			logging.Fatal().Err(err).Msg("Failed to generate ephemeral JWT secret")
		}
		jwtSecret = hex.EncodeToString(buf)
		logging.Warn().Msg("jwt_secret not set, using an ephemeral secret; tokens will not survive restarts")
	}

	// Badger backs both the grant store and the detection snapshots.
	// Without a path it runs in memory and a restart revokes every
	// outstanding token.
	badgerOpts := badger.DefaultOptions(cfg.Security.GrantStorePath).WithLogger(nil)
	if cfg.Security.GrantStorePath == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
		logging.Warn().Msg("grant_store_path not set, grants and snapshots are in-memory only")
	}
	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open grant store")
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing grant store")
		}
	}()

	grants := auth.NewBadgerGrantStore(badgerDB)
	gaugeDone := auth.StartGrantGaugeRoutine(grants, time.Minute)
	defer close(gaugeDone)

	snapshots := snapshot.NewStore(badgerDB, cfg.Snapshot.TTL)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("db_path", cfg.Database.Path).Msg("Database initialized")

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		PolicyPath:   cfg.Security.Casbin.PolicyPath,
		CacheEnabled: cfg.Security.Casbin.CacheEnabled,
		CacheTTL:     cfg.Security.Casbin.CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize role enforcer")
	}
	defer enforcer.Close()

	directory, err := auth.NewStaticDirectory(seedUsers(cfg), cfg.Security.ServiceNames)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build user directory")
	}

	jwtManager, err := auth.NewJWTManager(jwtSecret, cfg.Security.TokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	authority := auth.NewAuthority(jwtManager, grants, directory, enforcer)
	authMW := auth.NewMiddleware(authority)

	// Broker: embedded JetStream by default, external URL otherwise.
	natsURL := cfg.NATS.URL
	var embedded *pipeline.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		serverCfg := pipeline.DefaultServerConfig()
		if cfg.NATS.StoreDir != "" {
			serverCfg.StoreDir = cfg.NATS.StoreDir
		}
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}
		embedded, err = pipeline.NewEmbeddedServer(&serverCfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
		}
		natsURL = embedded.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer nc.Close()

	streamMgr, err := pipeline.NewStreamManager(nc)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream manager")
	}
	streamCtx, streamCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = streamMgr.EnsureAll(streamCtx, cfg.NATS.MaxStore)
	streamCancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to provision JetStream streams")
	}

	wmLogger := logging.NewWatermillAdapter()

	publisher, err := pipeline.NewPublisher(pipeline.DefaultPublisherConfig(natsURL), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
	}()
	publisher.SetCircuitBreaker(pipeline.NewCircuitBreaker(
		pipeline.DefaultCircuitBreakerConfig("nats-publish")))

	var threatClassifier *classifier.Classifier
	if cfg.Classifier.WeightsPath != "" {
		threatClassifier = classifier.NewFromWeightsFile(cfg.Classifier.WeightsPath)
	} else {
		threatClassifier = classifier.New(nil)
	}

	classifierStats := stats.NewClassifierStats()
	alertCounter := stats.NewAlertCounter()
	recentAlerts := cache.NewRecentAlerts(recentAlertCapacity)
	hub := ws.NewHub()

	classifierConsumer := pipeline.NewClassifierConsumer(
		threatClassifier, db, classifierStats,
		publisher, publisher.WatermillPublisher(), cfg.NATS.PoisonTopic)
	alertConsumer := pipeline.NewAlertConsumer(db, alertCounter, recentAlerts, hub)

	handler := api.NewHandler(api.HandlerConfig{
		Authority:       authority,
		DB:              db,
		Snapshots:       snapshots,
		Publisher:       publisher,
		ClassifierStats: classifierStats,
		AlertCounter:    alertCounter,
		RecentAlerts:    recentAlerts,
		Hub:             hub,
		Version:         version,
	})
	handler.AddReadinessCheck("nats", func(ctx context.Context) error {
		if status := nc.Status(); status != natsgo.CONNECTED {
			return fmt.Errorf("nats connection %s", status)
		}
		return nil
	})

	router := api.NewRouter(handler, authMW, api.NewGuards(&cfg.Security))
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if embedded != nil {
		tree.AddPipelineService(supervisor.NewBrokerService(embedded, treeCfg.ShutdownTimeout))
	}

	// Detection consumers scale horizontally inside the queue group;
	// each gets its own subscription so one slow handler does not stall
	// the rest.
	detectionCfg := pipeline.SubscriberConfigFor(&cfg.NATS, pipeline.StreamDetections, "detections")
	for i := 0; i < cfg.NATS.SubscribersCount; i++ {
		sub, err := pipeline.NewSubscriber(&detectionCfg, wmLogger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create detection subscriber")
		}
		defer sub.Close() //nolint:gocritic // subscribers live for the process lifetime
		tree.AddPipelineService(supervisor.ServiceFunc{
			Name: fmt.Sprintf("classifier-consumer-%d", i),
			Run: func(ctx context.Context) error {
				return classifierConsumer.Serve(ctx, sub)
			},
		})
	}

	alertCfg := pipeline.SubscriberConfigFor(&cfg.NATS, pipeline.StreamAlerts, "alerts")
	alertSub, err := pipeline.NewSubscriber(&alertCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create alert subscriber")
	}
	defer alertSub.Close()
	tree.AddPipelineService(supervisor.ServiceFunc{
		Name: "alert-consumer",
		Run: func(ctx context.Context) error {
			return alertConsumer.Serve(ctx, alertSub)
		},
	})

	tree.AddMessagingService(supervisor.NewHubService(hub))
	tree.AddMessagingService(supervisor.NewStatsBroadcastService(hub,
		func(ctx context.Context) (int64, int64, error) {
			active, err := db.CountUnacknowledged(ctx)
			if err != nil {
				return 0, 0, err
			}
			return alertCounter.Snapshot().TotalAlerts, active, nil
		}, 30*time.Second))

	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, treeCfg.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", httpServer.Addr).
		Int("detection_consumers", cfg.NATS.SubscribersCount).
		Msg("Supervisor tree starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		return
	}
	logging.Info().Msg("Shutdown complete")
}

// seedUsers builds the directory seed list. The admin account comes
// from configuration; outside production the demo operator and viewer
// accounts are seeded too so the API is usable out of the box.
func seedUsers(cfg *config.Config) []auth.UserSeed {
	adminPassword := cfg.Security.AdminPassword
	if adminPassword == "" {
		adminPassword = "admin123"
		logging.Warn().Msg("admin_password not set, using development default")
	}

	users := []auth.UserSeed{
		{Username: cfg.Security.AdminUsername, Password: adminPassword, Role: authz.RoleAdmin},
	}
	if cfg.Server.Environment != "production" {
		users = append(users,
			auth.UserSeed{Username: "operator", Password: "operator123", Role: authz.RoleOperator},
			auth.UserSeed{Username: "viewer", Password: "viewer123", Role: authz.RoleViewer},
		)
	}
	return users
}
