package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository defines the interface for lead storage.
type Repository interface {
	// Create always attempts the insert and interprets the store's conflict
	// response; it never pre-checks existence (that would race).
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const uniqueViolationCode = "23505"

// Create inserts a new lead row. A unique violation on
// (consultant_id, phone_number) maps to ErrDuplicatePhone.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	infoJSON, err := json.Marshal(req.Info)
	if err != nil {
		return nil, fmt.Errorf("leads: marshal lead info: %w", err)
	}
	var snapshotJSON []byte
	if req.CampaignSnapshot != nil {
		snapshotJSON, err = json.Marshal(req.CampaignSnapshot)
		if err != nil {
			return nil, fmt.Errorf("leads: marshal campaign snapshot: %w", err)
		}
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (
			id, consultant_id, agent_config_id, campaign_id,
			first_name, last_name, phone_number,
			lead_info, ideal_state, campaign_snapshot,
			status, contact_schedule
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
		RETURNING created_at
	`
	var createdAt time.Time
	err = r.db.QueryRow(ctx, query,
		id,
		req.ConsultantID,
		req.AgentConfigID,
		req.CampaignID,
		req.FirstName,
		req.LastName,
		req.PhoneNumber,
		infoJSON,
		req.IdealState,
		snapshotJSON,
		StatusPending,
		req.ContactSchedule,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:               id.String(),
		ConsultantID:     req.ConsultantID,
		AgentConfigID:    req.AgentConfigID,
		CampaignID:       req.CampaignID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneNumber:      req.PhoneNumber,
		Info:             req.Info,
		IdealState:       req.IdealState,
		Status:           StatusPending,
		ContactSchedule:  req.ContactSchedule,
		CampaignSnapshot: req.CampaignSnapshot,
		CreatedAt:        createdAt,
	}, nil
}
