package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dkazakov/scan-reporting/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = &SQLiteStore{}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveRun records a run with its tickets and errors in one transaction.
func (s *SQLiteStore) SaveRun(
	ctx context.Context,
	run model.ReportRun,
	newTickets, existingTickets []model.TicketRecord,
	errs []model.Error,
) error {
	if run.ID == "" {
		return fmt.Errorf("run id must not be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, testing_type, started_at, finished_at,
			finding_count, new_count, existing_count, error_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.TestingType, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.FindingCount, len(newTickets), len(existingTickets), len(errs),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	const ticketQuery = `
		INSERT INTO tickets (
			run_id, ticket_id, disposition,
			url, priority, status, created, open_date,
			summary, assignee, severity,
			tracker_url, project, epic,
			fields, extra_fields, labels
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, ticketQuery)
	if err != nil {
		return fmt.Errorf("preparing ticket insert: %w", err)
	}
	defer stmt.Close()

	insert := func(disposition string, tickets []model.TicketRecord) error {
		for _, t := range tickets {
			fields, err := json.Marshal(t.Fields)
			if err != nil {
				return fmt.Errorf("marshaling fields for ticket %s: %w", t.ID, err)
			}
			extra, err := json.Marshal(t.ExtraFields)
			if err != nil {
				return fmt.Errorf("marshaling extra fields for ticket %s: %w", t.ID, err)
			}
			labels, err := json.Marshal(t.Labels)
			if err != nil {
				return fmt.Errorf("marshaling labels for ticket %s: %w", t.ID, err)
			}

			_, err = stmt.ExecContext(ctx,
				run.ID, t.ID, disposition,
				t.URL, t.Priority, t.Status, t.Created, t.OpenDate,
				t.Summary, t.Assignee, string(t.Severity),
				t.TrackerURL, t.Project, t.Epic,
				string(fields), string(extra), string(labels),
			)
			if err != nil {
				return fmt.Errorf("inserting ticket %s: %w", t.ID, err)
			}
		}
		return nil
	}
	if err := insert(model.TicketNew, newTickets); err != nil {
		return err
	}
	if err := insert(model.TicketExisting, existingTickets); err != nil {
		return err
	}

	for _, e := range errs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO errors (run_id, tool, message, details) VALUES (?, ?, ?, ?)",
			run.ID, e.Tool, e.Message, e.Details,
		)
		if err != nil {
			return fmt.Errorf("inserting error record: %w", err)
		}
	}

	return tx.Commit()
}

// GetRuns retrieves recent runs, most recent first.
func (s *SQLiteStore) GetRuns(
	ctx context.Context,
	limit int,
) ([]model.ReportRun, error) {
	query := "SELECT * FROM runs ORDER BY started_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []model.ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRunByID retrieves a single run by its ID.
func (s *SQLiteStore) GetRunByID(
	ctx context.Context,
	id string,
) (*model.ReportRun, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM runs WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting run %s: %w", id, err)
		}
		return nil, fmt.Errorf("getting run %s: %w", id, sql.ErrNoRows)
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunTickets retrieves a run's tickets in recorded order.
func (s *SQLiteStore) GetRunTickets(
	ctx context.Context,
	runID string,
) ([]RunTicket, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM tickets WHERE run_id = ? ORDER BY rowid", runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tickets for run %s: %w", runID, err)
	}
	defer rows.Close()

	var tickets []RunTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// GetRunErrors retrieves a run's error records in recorded order.
func (s *SQLiteStore) GetRunErrors(
	ctx context.Context,
	runID string,
) ([]model.Error, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT tool, message, details FROM errors WHERE run_id = ? ORDER BY rowid",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying errors for run %s: %w", runID, err)
	}
	defer rows.Close()

	var errs []model.Error
	for rows.Next() {
		var e model.Error
		if err := rows.Scan(&e.Tool, &e.Message, &e.Details); err != nil {
			return nil, fmt.Errorf("scanning error row: %w", err)
		}
		errs = append(errs, e)
	}

	return errs, rows.Err()
}

// IsNotFound reports whether err means the requested run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// scanRun scans a run row from a sqlx.Rows result set.
func scanRun(rows *sqlx.Rows) (model.ReportRun, error) {
	var run model.ReportRun

	err := rows.Scan(
		&run.ID, &run.TestingType, &run.StartedAt, &run.FinishedAt,
		&run.FindingCount, &run.NewCount, &run.ExistingCount, &run.ErrorCount,
	)
	if err != nil {
		return model.ReportRun{}, fmt.Errorf("scanning run row: %w", err)
	}

	return run, nil
}

// scanTicket scans a ticket row from a sqlx.Rows result set.
func scanTicket(rows *sqlx.Rows) (RunTicket, error) {
	var (
		ticket   RunTicket
		runID    string
		severity string
		fields   string
		extra    string
		labels   string
	)

	err := rows.Scan(
		&runID, &ticket.ID, &ticket.Disposition,
		&ticket.URL, &ticket.Priority, &ticket.Status,
		&ticket.Created, &ticket.OpenDate,
		&ticket.Summary, &ticket.Assignee, &severity,
		&ticket.TrackerURL, &ticket.Project, &ticket.Epic,
		&fields, &extra, &labels,
	)
	if err != nil {
		return RunTicket{}, fmt.Errorf("scanning ticket row: %w", err)
	}

	ticket.Severity = model.Severity(severity)
	if err := json.Unmarshal([]byte(fields), &ticket.Fields); err != nil {
		return RunTicket{}, fmt.Errorf("unmarshaling ticket fields: %w", err)
	}
	if err := json.Unmarshal([]byte(extra), &ticket.ExtraFields); err != nil {
		return RunTicket{}, fmt.Errorf("unmarshaling ticket extra fields: %w", err)
	}
	if err := json.Unmarshal([]byte(labels), &ticket.Labels); err != nil {
		return RunTicket{}, fmt.Errorf("unmarshaling ticket labels: %w", err)
	}

	return ticket, nil
}
