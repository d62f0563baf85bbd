// Package db provides the Postgres campaign store and the Redis publication
// channel consumed by the bid engine.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/schema"
)

// ErrNotFound is returned when a campaign id does not exist.
var ErrNotFound = errors.New("campaign not found")

// Postgres wraps the campaign database handle.
type Postgres struct {
	DB     *sql.DB
	logger *zap.Logger
}

// PoolConfig carries the connection pool knobs.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS campaigns (
	id         UUID PRIMARY KEY,
	active     INT NOT NULL DEFAULT 0,
	rev        INT NOT NULL DEFAULT 1,
	user_id    INT,
	contents   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS campaigns_active_idx ON campaigns (active);
CREATE INDEX IF NOT EXISTS campaigns_user_id_idx ON campaigns (user_id);
`

// InitPostgres opens the database, verifies connectivity and ensures the
// campaigns table exists.
func InitPostgres(dsn string, pool PoolConfig, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.L()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("ensure campaigns schema: %w", err)
	}

	logger.Info("connected to postgres",
		zap.Int("max_open_conns", pool.MaxOpenConns),
		zap.Int("max_idle_conns", pool.MaxIdleConns))
	return &Postgres{DB: db, logger: logger}, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	return p.DB.Close()
}

// Insert stores a new campaign.
func (p *Postgres) Insert(ctx context.Context, c *schema.Campaign) error {
	contents, err := json.Marshal(c.Contents)
	if err != nil {
		return fmt.Errorf("marshal contents: %w", err)
	}
	_, err = p.DB.ExecContext(ctx, `
		INSERT INTO campaigns (id, active, rev, user_id, contents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		c.ID, c.Active, c.Rev, nullableInt(c.UserID), contents)
	if err != nil {
		return fmt.Errorf("insert campaign %s: %w", c.ID, err)
	}
	return nil
}

// Get loads one campaign by id.
func (p *Postgres) Get(ctx context.Context, id string) (*schema.Campaign, error) {
	row := p.DB.QueryRowContext(ctx, `
		SELECT id, active, rev, user_id, contents, created_at, updated_at
		FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return c, nil
}

// ListParams filters and pages the campaign listing.
type ListParams struct {
	// Active filters on the active flag when non-nil.
	Active *int
	// UserID filters on the owning user when non-nil.
	UserID *int
	Limit  int
	Offset int
}

// List returns campaigns ordered by creation time, newest first.
func (p *Postgres) List(ctx context.Context, params ListParams) ([]*schema.Campaign, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, active, rev, user_id, contents, created_at, updated_at
		FROM campaigns WHERE 1=1`
	args := []any{}
	if params.Active != nil {
		args = append(args, *params.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if params.UserID != nil {
		args = append(args, *params.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, params.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []*schema.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

// Update rewrites an existing campaign row.
func (p *Postgres) Update(ctx context.Context, c *schema.Campaign) error {
	contents, err := json.Marshal(c.Contents)
	if err != nil {
		return fmt.Errorf("marshal contents: %w", err)
	}
	res, err := p.DB.ExecContext(ctx, `
		UPDATE campaigns
		SET active = $2, rev = $3, user_id = $4, contents = $5, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Active, c.Rev, nullableInt(c.UserID), contents)
	if err != nil {
		return fmt.Errorf("update campaign %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign %s: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a campaign row.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete campaign %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*schema.Campaign, error) {
	var (
		c        schema.Campaign
		userID   sql.NullInt64
		contents []byte
	)
	if err := row.Scan(&c.ID, &c.Active, &c.Rev, &userID, &contents, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		v := int(userID.Int64)
		c.UserID = &v
	}
	if err := json.Unmarshal(contents, &c.Contents); err != nil {
		return nil, fmt.Errorf("parse contents: %w", err)
	}
	return &c, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
