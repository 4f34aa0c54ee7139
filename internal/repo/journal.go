package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer — часть pgxpool.Pool, нужная журналу.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema — таблицы журнала.
const Schema = `
CREATE TABLE IF NOT EXISTS graph_runs (
	id          UUID PRIMARY KEY,
	graph_id    TEXT NOT NULL,
	name        TEXT,
	mode        TEXT NOT NULL,
	state       TEXT NOT NULL,
	node_count  INT NOT NULL,
	results     JSONB,
	error       TEXT,
	started_at  TIMESTAMPTZ,
	finished_at TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS graph_runs_graph_id_idx ON graph_runs (graph_id);

CREATE TABLE IF NOT EXISTS swarm_tasks (
	id            UUID PRIMARY KEY,
	swarm_id      TEXT NOT NULL,
	task_id       TEXT NOT NULL,
	topology      TEXT NOT NULL,
	result        JSONB,
	consensus     JSONB,
	failed_agents TEXT[],
	error         TEXT,
	duration_ms   BIGINT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS swarm_tasks_swarm_id_idx ON swarm_tasks (swarm_id);
`

// GraphRunRecord — запись о завершённом выполнении графа.
type GraphRunRecord struct {
	ID         uuid.UUID
	GraphID    string
	Name       string
	Mode       string
	State      string
	NodeCount  int
	Results    map[string]any
	Error      string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
}

// SwarmTaskRecord — запись о выполненной задаче swarm.
type SwarmTaskRecord struct {
	ID           uuid.UUID
	SwarmID      string
	TaskID       string
	Topology     string
	Result       any
	Consensus    any
	FailedAgents []string
	Error        string
	Duration     time.Duration
	CreatedAt    time.Time
}

// JournalRepo пишет историю выполнений.
type JournalRepo struct {
	db Execer
}

// NewJournalRepo создаёт JournalRepo. Обычно db — *pgxpool.Pool.
func NewJournalRepo(db Execer) *JournalRepo {
	return &JournalRepo{db: db}
}

// EnsureSchema создаёт таблицы журнала, если их нет.
func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordGraphRun сохраняет выполнение графа.
func (r *JournalRepo) RecordGraphRun(ctx context.Context, rec *GraphRunRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	resultsJSON, err := marshalNullable(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO graph_runs (id, graph_id, name, mode, state, node_count, results, error, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.Exec(ctx, query,
		rec.ID,
		rec.GraphID,
		nullString(rec.Name),
		rec.Mode,
		rec.State,
		rec.NodeCount,
		resultsJSON,
		nullString(rec.Error),
		rec.StartedAt,
		rec.FinishedAt,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert graph run: %w", err)
	}
	return nil
}

// RecordSwarmTask сохраняет выполнение задачи swarm.
func (r *JournalRepo) RecordSwarmTask(ctx context.Context, rec *SwarmTaskRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := marshalNullable(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	consensusJSON, err := marshalNullable(rec.Consensus)
	if err != nil {
		return fmt.Errorf("marshal consensus: %w", err)
	}

	query := `
		INSERT INTO swarm_tasks (id, swarm_id, task_id, topology, result, consensus, failed_agents, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		rec.ID,
		rec.SwarmID,
		rec.TaskID,
		rec.Topology,
		resultJSON,
		consensusJSON,
		rec.FailedAgents,
		nullString(rec.Error),
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert swarm task: %w", err)
	}
	return nil
}

// marshalNullable возвращает nil для nil-значения (NULL в БД).
func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
