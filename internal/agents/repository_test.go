package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var agentRows = []string{
	"id", "consultant_id", "name",
	"default_objectives", "default_desires", "default_hook", "default_ideal_state",
	"created_at",
}

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM agent_configs WHERE id").
		WithArgs("agent-1").
		WillReturnRows(pgxmock.NewRows(agentRows).AddRow(
			"agent-1", "consultant-1", "Setter",
			"fissare la call", "piu clienti", "offerta gratuita", "agenda piena",
			time.Now(),
		))

	repo := NewPostgresRepository(mock)
	agent, err := repo.GetByID(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if agent.ID != "agent-1" || agent.DefaultObjectives != "fissare la call" {
		t.Fatalf("agent = %+v", agent)
	}
}

func TestGetByIDNoAgent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM agent_configs WHERE id").
		WithArgs("agent-missing").
		WillReturnRows(pgxmock.NewRows(agentRows))

	repo := NewPostgresRepository(mock)
	_, err = repo.GetByID(context.Background(), "agent-missing")
	if !errors.Is(err, ErrNoAgent) {
		t.Fatalf("err = %v, want ErrNoAgent", err)
	}
}

func TestFirstForConsultant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM agent_configs").
		WithArgs("consultant-1").
		WillReturnRows(pgxmock.NewRows(agentRows).AddRow(
			"agent-oldest", "consultant-1", "Setter", "", "", "", "", time.Now(),
		))

	repo := NewPostgresRepository(mock)
	agent, err := repo.FirstForConsultant(context.Background(), "consultant-1")
	if err != nil {
		t.Fatalf("FirstForConsultant: %v", err)
	}
	if agent.ID != "agent-oldest" {
		t.Fatalf("agent = %+v", agent)
	}
}
