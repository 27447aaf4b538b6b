package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/powerwatch/outage-notifier/internal/db"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// Postgres is the relational store. All queries go through statements the
// pool prepares on connect.
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.HealthCheck(ctx)
}

// --------------------------------------------------------------------------
// Fingerprints
// --------------------------------------------------------------------------

func (p *Postgres) Fingerprint(ctx context.Context, userID int64, date string) (string, bool, error) {
	var fp string
	err := p.pool.QueryRow(ctx, db.StmtFingerprintGet, userID, date).Scan(&fp)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get fingerprint: %w", err)
	}
	return fp, true, nil
}

func (p *Postgres) SetFingerprint(ctx context.Context, userID int64, date, fp string) error {
	if _, err := p.pool.Exec(ctx, db.StmtFingerprintUpsert, userID, date, fp); err != nil {
		return fmt.Errorf("upsert fingerprint: %w", err)
	}
	return nil
}

// Cleanup deletes fingerprints last written before cutoff.
func (p *Postgres) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, db.StmtCleanup, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup fingerprints: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// Message handles
// --------------------------------------------------------------------------

func (p *Postgres) LastMessage(ctx context.Context, userID int64) (*notifications.Handle, error) {
	h := notifications.Handle{UserID: userID}
	err := p.pool.QueryRow(ctx, db.StmtMessageGet, userID).Scan(&h.MessageID, &h.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message handle: %w", err)
	}
	return &h, nil
}

func (p *Postgres) SetLastMessage(ctx context.Context, h notifications.Handle) error {
	if _, err := p.pool.Exec(ctx, db.StmtMessageUpsert, h.UserID, h.MessageID, h.Date); err != nil {
		return fmt.Errorf("upsert message handle: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

func (p *Postgres) Subscribers(ctx context.Context) ([]int64, error) {
	rows, err := p.pool.Query(ctx, db.StmtSubscribers)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan subscribers: %w", err)
	}
	return ids, nil
}

// Settings returns ErrNotFound for unknown users.
func (p *Postgres) Settings(ctx context.Context, userID int64) (*Settings, error) {
	var (
		s                                 = Settings{UserID: userID}
		manualGroup, manualLabel          *string
		city, street, building, addrGroup *string
	)
	err := p.pool.QueryRow(ctx, db.StmtUserSettings, userID).Scan(
		&s.NotificationsEnabled, &manualGroup, &manualLabel,
		&city, &street, &building, &addrGroup,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	s.ManualGroup = groupOf(manualGroup)
	s.ManualLabel = deref(manualLabel)
	// city_name is NOT NULL, so a NULL here means the join found no address.
	if city != nil {
		s.Address = &Address{
			City:     deref(city),
			Street:   deref(street),
			Building: deref(building),
			Group:    groupOf(addrGroup),
		}
	}
	return &s, nil
}

// LocalContext implements profile.LocalSource.
func (p *Postgres) LocalContext(ctx context.Context, userID int64) (*profile.Context, error) {
	s, err := p.Settings(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Context(), nil
}

func (p *Postgres) SetNotifications(ctx context.Context, userID int64, enabled bool) error {
	if _, err := p.pool.Exec(ctx, db.StmtSetNotifications, userID, enabled); err != nil {
		return fmt.Errorf("set notifications: %w", err)
	}
	return nil
}

// SetManualGroup stores the user's chosen group; an empty group clears it.
func (p *Postgres) SetManualGroup(ctx context.Context, userID int64, group schedule.GroupCode, label string) error {
	if _, err := p.pool.Exec(ctx, db.StmtSetManualGroup, userID, nullable(string(group)), nullable(label)); err != nil {
		return fmt.Errorf("set manual group: %w", err)
	}
	return nil
}

// SetPrimaryAddress replaces the user's primary address.
func (p *Postgres) SetPrimaryAddress(ctx context.Context, userID int64, a Address) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, db.StmtEnsureUser, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if _, err := tx.Exec(ctx, db.StmtClearPrimary, userID); err != nil {
		return fmt.Errorf("clear primary address: %w", err)
	}
	if _, err := tx.Exec(ctx, db.StmtInsertAddress,
		userID, a.City, a.Street, a.Building, nullable(string(a.Group)),
	); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
