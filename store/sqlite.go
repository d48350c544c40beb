package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homefleet/supervisor/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A shared-cache in-memory DB disappears once every connection
	// closes; pin one open so history survives idle periods.
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			ts DATETIME NOT NULL,
			type TEXT NOT NULL,
			agent_id TEXT,
			task_id TEXT,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			location TEXT,
			priority INTEGER NOT NULL,
			status TEXT NOT NULL,
			agent_id TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordEvent inserts a diagnostic event, stamping id and ts when the
// caller left them empty.
func (s *SQLiteStore) RecordEvent(ctx context.Context, event *domain.Event) error {
	if event.EventID == "" {
		event.EventID = "evt_" + uuid.New().String()[:8]
	}
	if event.Ts.IsZero() {
		event.Ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, ts, type, agent_id, task_id, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		event.EventID, event.Ts, event.Type, event.AgentID, event.TaskID, event.Detail)
	return err
}

// ListEvents returns the most recent events, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, ts, type, agent_id, task_id, detail FROM events ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var evt domain.Event
		var agentID, taskID, detail sql.NullString
		if err := rows.Scan(&evt.EventID, &evt.Ts, &evt.Type, &agentID, &taskID, &detail); err != nil {
			return nil, err
		}
		if agentID.Valid {
			evt.AgentID = agentID.String
		}
		if taskID.Valid {
			evt.TaskID = taskID.String
		}
		if detail.Valid {
			evt.Detail = detail.String
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// CountEvents counts events of the given type.
func (s *SQLiteStore) CountEvents(ctx context.Context, evtType domain.EventType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE type = ?`, evtType).Scan(&count)
	return count, err
}

// RecordTask inserts a task history row.
func (s *SQLiteStore) RecordTask(ctx context.Context, task *domain.Task, status domain.TaskStatus, agentID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tasks (task_id, query, location, priority, status, agent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Query, task.Location, task.Priority, status, agentID, task.CreatedAt)
	return err
}

// UpdateTaskStatus updates a task's terminal status and executing agent.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, agentID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, agent_id = ? WHERE task_id = ?`,
		status, agentID, taskID)
	return err
}

// GetTask retrieves a task history row by id.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*TaskRecord, error) {
	var rec TaskRecord
	var location, agentID sql.NullString
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT task_id, query, location, priority, status, agent_id, created_at FROM tasks WHERE task_id = ?`,
		taskID).Scan(&rec.TaskID, &rec.Query, &location, &rec.Priority, &rec.Status, &agentID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if location.Valid {
		rec.Location = location.String
	}
	if agentID.Valid {
		rec.AgentID = agentID.String
	}
	rec.CreatedAt = createdAt.Format(time.RFC3339)
	return &rec, nil
}
