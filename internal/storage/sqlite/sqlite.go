package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/slok/opentown/internal/log"
	"github.com/slok/opentown/internal/model"
	"github.com/slok/opentown/internal/storage"
	"github.com/slok/opentown/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite event journal.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.EventRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository, applying the pending migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	version, err := migrations.Apply(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Debugf("SQLite journal initialized at %s (schema v%d)", cfg.DBPath, version)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// AppendEvent stores a new event. Events without ID get a new ULID and events without
// creation time get the current time.
func (r *Repository) AppendEvent(ctx context.Context, e model.Event) error {
	if e.Kind == "" {
		return fmt.Errorf("event kind is required: %w", model.ErrNotValid)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = ulid.MustNew(ulid.Timestamp(e.CreatedAt), ulid.DefaultEntropy()).String()
	}

	query := `
		INSERT INTO events (id, kind, task_id, engineer_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		string(e.Kind),
		e.TaskID,
		e.EngineerID,
		e.Message,
		e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: events.") {
			return fmt.Errorf("event %s: %w", e.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert event: %w", err)
	}

	r.logger.Debugf("Appended %s event: %s", e.Kind, e.ID)
	return nil
}

// ListEvents returns the events newest first.
func (r *Repository) ListEvents(ctx context.Context, opts storage.ListEventsOpts) ([]model.Event, error) {
	query := `
		SELECT id, kind, task_id, engineer_id, message, created_at
		FROM events
	`
	args := []any{}
	if opts.TaskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, opts.TaskID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var (
			e         model.Event
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.TaskID, &e.EngineerID, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		e.Kind = model.EventKind(kind)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

var _ storage.EventRepository = &Repository{}
