// Package agents reads the conversational agent configurations that inbound
// leads are assigned to.
package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoAgent is returned when a consultant has no agent configured at all.
var ErrNoAgent = errors.New("agents: no agent configured")

// AgentConfig is a consultant's conversational agent with its default lead
// copy, used as the fallback tier below campaign defaults.
type AgentConfig struct {
	ID           string
	ConsultantID string
	Name         string

	DefaultObjectives string
	DefaultDesires    string
	DefaultHook       string
	DefaultIdealState string

	CreatedAt time.Time
}

// Repository defines agent config lookups.
type Repository interface {
	GetByID(ctx context.Context, id string) (*AgentConfig, error)
	// FirstForConsultant picks the consultant's oldest agent, used when the
	// endpoint has no agent configured.
	FirstForConsultant(ctx context.Context, consultantID string) (*AgentConfig, error)
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores agent configs in the relational database.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("agents: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const agentColumns = `
	id, consultant_id, name,
	COALESCE(default_objectives, ''), COALESCE(default_desires, ''),
	COALESCE(default_hook, ''), COALESCE(default_ideal_state, ''),
	created_at
`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*AgentConfig, error) {
	query := `SELECT ` + agentColumns + ` FROM agent_configs WHERE id = $1`
	agent, err := scanAgent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoAgent
		}
		return nil, fmt.Errorf("agents: select by id failed: %w", err)
	}
	return agent, nil
}

func (r *PostgresRepository) FirstForConsultant(ctx context.Context, consultantID string) (*AgentConfig, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agent_configs
		WHERE consultant_id = $1
		ORDER BY created_at
		LIMIT 1
	`
	agent, err := scanAgent(r.db.QueryRow(ctx, query, consultantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoAgent
		}
		return nil, fmt.Errorf("agents: select first failed: %w", err)
	}
	return agent, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*AgentConfig, error) {
	var a AgentConfig
	err := row.Scan(
		&a.ID,
		&a.ConsultantID,
		&a.Name,
		&a.DefaultObjectives,
		&a.DefaultDesires,
		&a.DefaultHook,
		&a.DefaultIdealState,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
