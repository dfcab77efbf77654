package endpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository defines endpoint config storage.
type Repository interface {
	GetBySecret(ctx context.Context, secret string) (*Config, error)
	ListByConsultant(ctx context.Context, consultantID string) ([]*Config, error)
	// IncrementLeadsCreated and IncrementLeadsSkipped are atomic at the
	// store layer; concurrent webhook deliveries are expected.
	IncrementLeadsCreated(ctx context.Context, id string) error
	IncrementLeadsSkipped(ctx context.Context, id string) error
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores endpoint configs in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("endpoints: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const configColumns = `
	id, consultant_id, provider, COALESCE(config_name, ''),
	secret_key, COALESCE(agent_config_id, ''), COALESCE(target_campaign_id, ''),
	COALESCE(default_source, ''), is_active, leads_created, leads_skipped,
	last_webhook_at, created_at, updated_at
`

// GetBySecret looks up a config by its unique secret key.
func (r *PostgresRepository) GetBySecret(ctx context.Context, secret string) (*Config, error) {
	query := `SELECT ` + configColumns + ` FROM webhook_endpoint_configs WHERE secret_key = $1`
	cfg, err := scanConfig(r.db.QueryRow(ctx, query, secret))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("endpoints: select by secret failed: %w", err)
	}
	return cfg, nil
}

// ListByConsultant returns all configs owned by a consultant, newest first.
func (r *PostgresRepository) ListByConsultant(ctx context.Context, consultantID string) ([]*Config, error) {
	query := `SELECT ` + configColumns + ` FROM webhook_endpoint_configs WHERE consultant_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, consultantID)
	if err != nil {
		return nil, fmt.Errorf("endpoints: list failed: %w", err)
	}
	defer rows.Close()

	var configs []*Config
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("endpoints: scan failed: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// IncrementLeadsCreated bumps the created counter and the last-webhook
// timestamp in a single atomic UPDATE.
func (r *PostgresRepository) IncrementLeadsCreated(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_endpoint_configs
		SET leads_created = leads_created + 1, last_webhook_at = now(), updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("endpoints: increment leads_created failed: %w", err)
	}
	return nil
}

// IncrementLeadsSkipped bumps the skipped counter atomically.
func (r *PostgresRepository) IncrementLeadsSkipped(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_endpoint_configs
		SET leads_skipped = leads_skipped + 1, last_webhook_at = now(), updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("endpoints: increment leads_skipped failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*Config, error) {
	var cfg Config
	err := row.Scan(
		&cfg.ID,
		&cfg.ConsultantID,
		&cfg.Provider,
		&cfg.ConfigName,
		&cfg.SecretKey,
		&cfg.AgentConfigID,
		&cfg.TargetCampaignID,
		&cfg.DefaultSource,
		&cfg.IsActive,
		&cfg.LeadsCreated,
		&cfg.LeadsSkipped,
		&cfg.LastWebhookAt,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
