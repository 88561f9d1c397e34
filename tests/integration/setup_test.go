//go:build integration

// Package integration contains integration tests for the notification service.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle
// - WebSocket tests: connection, targeted delivery
// - Database tests: migrations, atomic trigger claims
//
// Integration tests use build tag "integration" to separate from unit tests.
// Run with: go test -tags=integration ./tests/integration/...
//
// A reachable Postgres is required; connection is taken from TEST_DB_*
// environment variables. Tests are skipped when the database is unavailable.
package integration

import (
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"notifier/internal/api"
	"notifier/internal/config"
	"notifier/internal/repository"
	"notifier/internal/service"
	"notifier/internal/websocket"
	"notifier/migrations"
	"notifier/pkg/crypto"
	"notifier/pkg/ratelimit"
	"notifier/pkg/utils"
)

// testServiceToken is the plaintext token used against ServiceAuth in tests
const testServiceToken = "integration-test-token"

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB     *sql.DB
	Router *mux.Router
	Server *httptest.Server
	Hub    *websocket.Hub

	AlertRepo        *repository.AlertRepository
	PreferenceRepo   *repository.PreferenceRepository
	NotificationRepo *repository.NotificationRepository

	Cleanup func()
}

func testEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openTestDB connects to the test database or skips the test
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		testEnv("TEST_DB_HOST", "localhost"),
		testEnv("TEST_DB_PORT", "5432"),
		testEnv("TEST_DB_USER", "postgres"),
		testEnv("TEST_DB_PASSWORD", "postgres"),
		testEnv("TEST_DB_NAME", "notifier_test"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Skipf("open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database unavailable: %v", err)
	}
	return db
}

// setupSchema applies service migrations and creates the tables normally
// owned by the main backend (alert_rules, users, notification_preferences)
func setupSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	backendTables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS alert_rules (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			watch_list_id UUID NOT NULL,
			symbol VARCHAR(12) NOT NULL,
			alert_type VARCHAR(32) NOT NULL,
			conditions JSONB NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT true,
			frequency VARCHAR(16) NOT NULL DEFAULT 'once',
			notify_email BOOLEAN NOT NULL DEFAULT false,
			notify_in_app BOOLEAN NOT NULL DEFAULT true,
			name VARCHAR(255) NOT NULL DEFAULT '',
			last_triggered_at TIMESTAMPTZ,
			trigger_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS notification_preferences (
			user_id UUID PRIMARY KEY,
			email_enabled BOOLEAN NOT NULL DEFAULT true,
			email_address VARCHAR(255),
			email_verified BOOLEAN NOT NULL DEFAULT false,
			quiet_hours_enabled BOOLEAN NOT NULL DEFAULT false,
			quiet_hours_start VARCHAR(8) NOT NULL DEFAULT '22:00:00',
			quiet_hours_end VARCHAR(8) NOT NULL DEFAULT '08:00:00',
			quiet_hours_timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
			max_alerts_per_day INTEGER NOT NULL DEFAULT 0,
			max_emails_per_day INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range backendTables {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create backend table: %v", err)
		}
	}
}

// truncateAll clears every table between tests
func truncateAll(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{"notifications", "alert_logs", "alert_rules", "notification_preferences", "users"}
	for _, table := range tables {
		if _, err := db.Exec("TRUNCATE TABLE " + table + " CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

// newTestServer wires the full delivery pipeline against the test database.
// SMTP stays unconfigured: the email channel is a silent no-op, which keeps
// integration tests offline.
func newTestServer(t *testing.T) *TestServer {
	t.Helper()

	db := openTestDB(t)
	setupSchema(t, db)
	truncateAll(t, db)

	logger := utils.InitLogger(utils.LogConfig{Level: "fatal", Format: "json"})

	alertRepo := repository.NewAlertRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := websocket.NewHub(logger)
	go hub.Run()

	cfg := &config.Config{
		FrontendURL: "http://localhost:3000",
		Delivery: config.DeliveryConfig{
			EmailRatePerSec: 100,
			EmailBurst:      100,
		},
	}

	gate := service.NewPreferenceGate(prefRepo, alertRepo, logger)
	limiter := ratelimit.NewRateLimiter(cfg.Delivery.EmailRatePerSec, cfg.Delivery.EmailBurst)
	emailChannel := service.NewEmailChannel(cfg, gate, prefRepo, limiter, logger)
	inAppChannel := service.NewInAppChannel(gate, notificationRepo, hub, logger)
	router := service.NewRouter(emailChannel, inAppChannel, logger)

	tokenHash, err := crypto.HashToken(testServiceToken)
	if err != nil {
		t.Fatalf("hash service token: %v", err)
	}

	deps := &api.Dependencies{
		TriggerService:   service.NewTriggerService(alertRepo, router, logger),
		FeedService:      service.NewFeedService(notificationRepo, hub, logger),
		Canary:           emailChannel,
		DB:               db,
		Hub:              hub,
		Logger:           logger,
		ServiceTokenHash: tokenHash,
	}

	muxRouter := api.SetupRoutes(deps)
	server := httptest.NewServer(muxRouter)

	return &TestServer{
		DB:               db,
		Router:           muxRouter,
		Server:           server,
		Hub:              hub,
		AlertRepo:        alertRepo,
		PreferenceRepo:   prefRepo,
		NotificationRepo: notificationRepo,
		Cleanup: func() {
			server.Close()
			hub.Stop()
			db.Close()
		},
	}
}

// insertUser creates a user row and returns its id
func insertUser(t *testing.T, db *sql.DB, email, fullName string) string {
	t.Helper()

	var id string
	err := db.QueryRow(
		`INSERT INTO users (email, full_name) VALUES ($1, $2) RETURNING id`,
		email, fullName,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// insertAlertRule creates an active alert rule and returns its id
func insertAlertRule(t *testing.T, db *sql.DB, userID, symbol, alertType, conditions, frequency string) string {
	t.Helper()

	var id string
	err := db.QueryRow(`
		INSERT INTO alert_rules (user_id, watch_list_id, symbol, alert_type,
		                         conditions, frequency, notify_in_app, name)
		VALUES ($1, gen_random_uuid(), $2, $3, $4, $5, true, $6)
		RETURNING id`,
		userID, symbol, alertType, conditions, frequency, symbol+" rule",
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert alert rule: %v", err)
	}
	return id
}
