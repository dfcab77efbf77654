package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists audit entries via database/sql.
type Store struct {
	db *sql.DB
}

// NewStore creates a new audit store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes one audit entry.
func (s *Store) Insert(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO webhook_audit_logs (
			id, config_id, consultant_id, provider, outcome, message, lead_id,
			first_name, last_name, phone, email, source,
			raw_payload, processed,
			request_method, request_url, remote_ip, user_agent, headers,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		nullString(entry.ConfigID),
		nullString(entry.ConsultantID),
		entry.Provider,
		string(entry.Outcome),
		nullString(entry.Message),
		nullString(entry.LeadID),
		nullString(entry.FirstName),
		nullString(entry.LastName),
		nullString(entry.Phone),
		nullString(entry.Email),
		nullString(entry.Source),
		nullBytes(entry.RawPayload),
		nullBytes(entry.Processed),
		nullString(entry.RequestMethod),
		nullString(entry.RequestURL),
		nullString(entry.RemoteIP),
		nullString(entry.UserAgent),
		nullBytes(entry.Headers),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to insert entry: %w", err)
	}
	return nil
}

// ListByConfig retrieves the newest entries for one endpoint config.
func (s *Store) ListByConfig(ctx context.Context, configID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, config_id, consultant_id, provider, outcome, message, lead_id,
			   first_name, last_name, phone, email, source,
			   raw_payload, processed,
			   request_method, request_url, remote_ip, user_agent, headers,
			   created_at
		FROM webhook_audit_logs
		WHERE config_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, configID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var configID, consultantID, message, leadID sql.NullString
		var firstName, lastName, phone, email, source sql.NullString
		var method, url, ip, agent sql.NullString
		err := rows.Scan(
			&e.ID, &configID, &consultantID, &e.Provider, &e.Outcome, &message, &leadID,
			&firstName, &lastName, &phone, &email, &source,
			&e.RawPayload, &e.Processed,
			&method, &url, &ip, &agent, &e.Headers,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to scan entry: %w", err)
		}
		e.ConfigID = configID.String
		e.ConsultantID = consultantID.String
		e.Message = message.String
		e.LeadID = leadID.String
		e.FirstName = firstName.String
		e.LastName = lastName.String
		e.Phone = phone.String
		e.Email = email.String
		e.Source = source.String
		e.RequestMethod = method.String
		e.RequestURL = url.String
		e.RemoteIP = ip.String
		e.UserAgent = agent.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
