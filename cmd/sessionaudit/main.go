// Session Audit - login/logout correlation and audit service.
//
// This is the main entry point. It wires the SQLite stores, token issuer,
// session correlator and audit gate behind the HTTP API, and optionally
// fans session events out to MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/session-audit/internal/api"
	"github.com/nerrad567/session-audit/internal/audit"
	"github.com/nerrad567/session-audit/internal/auth"
	"github.com/nerrad567/session-audit/internal/infrastructure/config"
	"github.com/nerrad567/session-audit/internal/infrastructure/database"
	"github.com/nerrad567/session-audit/internal/infrastructure/influxdb"
	"github.com/nerrad567/session-audit/internal/infrastructure/logging"
	"github.com/nerrad567/session-audit/internal/infrastructure/mqtt"
	"github.com/nerrad567/session-audit/internal/session"
	"github.com/nerrad567/session-audit/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupHealthTimeout bounds the health check run once everything is wired.
const startupHealthTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting session audit",
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
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := auth.NewUserRepository(db.DB)
	sessions := audit.NewSQLiteRepository(db.DB)
	tokens := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.GetTokenTTL())
	accounts := auth.NewAccounts(users)

	if _, seedErr := auth.SeedAuditor(ctx, users, cfg.Security.Seed.AuditorUsername, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding auditor account: %w", seedErr)
	}

	dispatcher := session.NewDispatcher(log.Logger)
	integrations := make(map[string]api.Connectivity)

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		topics := mqttClient.Topics()
		dispatcher.Subscribe(session.NewMQTTNotifier(mqttClient, session.Topics{
			Opened: topics.SessionOpened(),
			Closed: topics.SessionClosed(),
		}, byte(cfg.MQTT.QoS)))
		integrations["mqtt"] = mqttClient
	}

	influxClient, err := connectInfluxDB(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		dispatcher.Subscribe(session.NewMetricsNotifier(influxClient))
		integrations["influxdb"] = influxClient
	}

	correlator := session.NewCorrelator(users, tokens, sessions, log.Logger, session.WithPublisher(dispatcher))
	gate := audit.NewGate(tokens, users, sessions, audit.GateConfig{
		AllowCrossUser:  cfg.Security.Audit.AllowCrossUser,
		DefaultPageSize: cfg.Security.Audit.DefaultPageSize,
		MaxPageSize:     cfg.Security.Audit.MaxPageSize,
	})

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Audit:        cfg.Security.Audit,
		Logger:       log,
		Accounts:     accounts,
		Correlator:   correlator,
		Gate:         gate,
		Tokens:       tokens,
		DB:           db,
		Events:       dispatcher,
		Version:      version,
		Integrations: integrations,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// The dispatcher drains queued events when stopped; wait for it before
	// the notifier clients are closed by the defers above.
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()
	defer func() {
		stopDispatch()
		<-dispatchDone
	}()

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	healthCtx, cancel := context.WithTimeout(ctx, startupHealthTimeout)
	defer cancel()
	if healthErr := healthCheck(healthCtx, db, mqttClient, influxClient); healthErr != nil {
		log.Warn("startup health check failed", "error", healthErr)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"cross_user_audit", cfg.Security.Audit.AllowCrossUser,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// connectMQTT connects the optional session event publisher. It returns
// nil when MQTT is disabled.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
		"topic_prefix", client.Topics().Prefix(),
	)
	return client, nil
}

// connectInfluxDB connects the optional session metrics writer. It returns
// nil when InfluxDB is disabled.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client, nil
}

// getConfigPath returns SESSIONAUDIT_CONFIG, or the default path.
func getConfigPath() string {
	if path := os.Getenv("SESSIONAUDIT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the database and any connected integrations.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
