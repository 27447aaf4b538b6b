// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking, and embedded schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/powerwatch/outage-notifier/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must exist:
// statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, StmtHealthCheck).Scan(&n)
}

// Prepared statement names.
const (
	StmtHealthCheck       = "health_check"
	StmtFingerprintGet    = "fingerprint_get"
	StmtFingerprintUpsert = "fingerprint_upsert"
	StmtMessageGet        = "message_get"
	StmtMessageUpsert     = "message_upsert"
	StmtSubscribers       = "subscribers"
	StmtUserSettings      = "user_settings"
	StmtSetNotifications  = "set_notifications"
	StmtSetManualGroup    = "set_manual_group"
	StmtEnsureUser        = "ensure_user"
	StmtClearPrimary      = "address_clear_primary"
	StmtInsertAddress     = "address_insert"
	StmtCleanup           = "cleanup_fingerprints"
)

// registerPreparedStatements registers every statement the store layer uses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		StmtHealthCheck: "SELECT 1",

		// Change detection
		StmtFingerprintGet: "SELECT fingerprint FROM schedule_fingerprints WHERE user_id = $1 AND schedule_date = $2",
		StmtFingerprintUpsert: `INSERT INTO schedule_fingerprints (user_id, schedule_date, fingerprint, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (user_id, schedule_date)
			DO UPDATE SET fingerprint = EXCLUDED.fingerprint, updated_at = NOW()`,

		// Delivered message handles
		StmtMessageGet: "SELECT message_id, schedule_date FROM delivered_messages WHERE user_id = $1",
		StmtMessageUpsert: `INSERT INTO delivered_messages (user_id, message_id, schedule_date, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (user_id)
			DO UPDATE SET message_id = EXCLUDED.message_id, schedule_date = EXCLUDED.schedule_date, updated_at = NOW()`,

		// Users
		StmtSubscribers: "SELECT user_id FROM users WHERE notifications_enabled ORDER BY user_id",
		StmtUserSettings: `SELECT u.notifications_enabled, u.manual_group, u.manual_label,
				a.city_name, a.street_name, a.building_name, a.cherg_gpv
			FROM users u
			LEFT JOIN user_addresses a ON a.user_id = u.user_id AND a.is_primary
			WHERE u.user_id = $1`,
		StmtSetNotifications: `INSERT INTO users (user_id, notifications_enabled)
			VALUES ($1, $2)
			ON CONFLICT (user_id)
			DO UPDATE SET notifications_enabled = EXCLUDED.notifications_enabled, updated_at = NOW()`,
		StmtSetManualGroup: `INSERT INTO users (user_id, manual_group, manual_label)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id)
			DO UPDATE SET manual_group = EXCLUDED.manual_group, manual_label = EXCLUDED.manual_label, updated_at = NOW()`,
		StmtEnsureUser: "INSERT INTO users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING",

		// Addresses
		StmtClearPrimary: "UPDATE user_addresses SET is_primary = FALSE WHERE user_id = $1 AND is_primary",
		StmtInsertAddress: `INSERT INTO user_addresses (user_id, city_name, street_name, building_name, cherg_gpv, is_primary)
			VALUES ($1, $2, $3, $4, $5, TRUE)`,

		// Maintenance
		StmtCleanup: "DELETE FROM schedule_fingerprints WHERE updated_at < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
