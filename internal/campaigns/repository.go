package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository defines campaign lookups used by attribution.
type Repository interface {
	// FindActiveBySource returns the consultant's active campaign whose
	// source mappings contain the lowercased source tag, or ErrNotFound.
	FindActiveBySource(ctx context.Context, consultantID, source string) (*Campaign, error)
	// GetByID loads a campaign regardless of its active flag.
	GetByID(ctx context.Context, id string) (*Campaign, error)
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores campaigns in the relational database.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("campaigns: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const campaignColumns = `
	id, consultant_id, name, source_mappings,
	COALESCE(objectives, ''), COALESCE(implicit_desires, ''),
	COALESCE(hook_text, ''), COALESCE(ideal_state, ''),
	is_active, created_at, updated_at
`

func (r *PostgresRepository) FindActiveBySource(ctx context.Context, consultantID, source string) (*Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM marketing_campaigns
		WHERE consultant_id = $1 AND is_active AND $2 = ANY(source_mappings)
		ORDER BY created_at
		LIMIT 1
	`
	c, err := scanCampaign(r.db.QueryRow(ctx, query, consultantID, strings.ToLower(source)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("campaigns: select by source failed: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM marketing_campaigns WHERE id = $1`
	c, err := scanCampaign(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("campaigns: select by id failed: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID,
		&c.ConsultantID,
		&c.Name,
		&c.SourceMappings,
		&c.Objectives,
		&c.ImplicitDesires,
		&c.HookText,
		&c.IdealState,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
