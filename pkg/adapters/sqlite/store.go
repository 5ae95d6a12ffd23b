// Package sqlite persists flow definitions in a local SQLite database using
// the pure Go driver, so a single-instance deployment needs no external
// services.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/schema"
)

// FlowStore implements ports.FlowStore on SQLite. Flow graphs are stored in
// their editor JSON form, so the table doubles as an export of what the
// visual editor produced.
type FlowStore struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func New(path string) (*FlowStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The pure Go driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent API calls.
	db.SetMaxOpenConns(1)

	s := &FlowStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *FlowStore) Close() error {
	return s.db.Close()
}

func (s *FlowStore) migrate() error {
	stmts := `
	PRAGMA journal_mode = WAL;

	CREATE TABLE IF NOT EXISTS flows (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		definition BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_flows_active ON flows(active);
	`
	if _, err := s.db.Exec(stmts); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Save inserts or updates a flow definition. The active flag is managed
// exclusively by Activate: inserts start inactive, updates keep the stored
// flag.
func (s *FlowStore) Save(ctx context.Context, graph *domain.FlowGraph) error {
	data, err := schema.Encode(graph)
	if err != nil {
		return fmt.Errorf("failed to encode flow: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows (id, name, active, definition, updated_at)
		 VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			definition = excluded.definition,
			updated_at = excluded.updated_at`,
		graph.ID, graph.Name, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// Get returns one flow by id.
func (s *FlowStore) Get(ctx context.Context, flowID string) (*domain.FlowGraph, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT definition, active FROM flows WHERE id = ?`, flowID)
	return s.scanFlow(row)
}

// ActiveFlow returns the single active flow.
func (s *FlowStore) ActiveFlow(ctx context.Context) (*domain.FlowGraph, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT definition, active FROM flows WHERE active = 1`)
	graph, err := s.scanFlow(row)
	if errors.Is(err, domain.ErrFlowNotFound) {
		return nil, domain.ErrNoActiveFlow
	}
	return graph, err
}

func (s *FlowStore) scanFlow(row *sql.Row) (*domain.FlowGraph, error) {
	var data []byte
	var active int
	if err := row.Scan(&data, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}

	graph, err := schema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored flow: %w", err)
	}
	graph.Active = active == 1
	return graph, nil
}

// List returns all flows ordered by name.
func (s *FlowStore) List(ctx context.Context) ([]*domain.FlowGraph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT definition, active FROM flows ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var flows []*domain.FlowGraph
	for rows.Next() {
		var data []byte
		var active int
		if err := rows.Scan(&data, &active); err != nil {
			return nil, fmt.Errorf("failed to read flow: %w", err)
		}
		graph, err := schema.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stored flow: %w", err)
		}
		graph.Active = active == 1
		flows = append(flows, graph)
	}
	return flows, rows.Err()
}

// Activate marks flowID active and demotes any previously active flow in the
// same transaction, so there is never a moment with two active flows.
func (s *FlowStore) Activate(ctx context.Context, flowID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE flows SET active = 1 WHERE id = ?`, flowID)
	if err != nil {
		return fmt.Errorf("failed to activate flow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrFlowNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE flows SET active = 0 WHERE id != ?`, flowID); err != nil {
		return fmt.Errorf("failed to demote previous flow: %w", err)
	}

	return tx.Commit()
}

// Delete removes a flow. Deleting the active flow leaves no flow active.
func (s *FlowStore) Delete(ctx context.Context, flowID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, flowID)
	return err
}
