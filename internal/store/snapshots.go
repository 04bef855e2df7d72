package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/promptlens/promptlens/internal/snapshot"
)

// payload is the JSON column holding the structured parts of a snapshot.
type payload struct {
	Prompts     []snapshot.PromptFragment `json:"prompts"`
	PromptOrder []snapshot.OrderEntry     `json:"promptOrder"`
}

// Add persists a snapshot and returns the assigned id. The stored record is
// a copy; the caller's snapshot is not mutated.
func (s *Store) Add(snap *snapshot.Snapshot) (int64, error) {
	if snap == nil {
		return 0, fmt.Errorf("nil snapshot")
	}
	if err := snapshot.Validate(snap); err != nil {
		return 0, fmt.Errorf("refusing to store: %w", err)
	}

	data, err := json.Marshal(payload{Prompts: snap.Prompts, PromptOrder: snap.PromptOrder})
	if err != nil {
		return 0, fmt.Errorf("marshaling snapshot payload: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO snapshots (name, preset_name, enabled_count, timestamp, payload) VALUES (?, ?, ?, ?, ?)`,
		snap.Name, snap.PresetName, snap.EnabledCount, snap.Timestamp, string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading assigned id: %w", err)
	}
	return id, nil
}

// Get loads one snapshot by id.
func (s *Store) Get(id int64) (*snapshot.Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, name, preset_name, enabled_count, timestamp, payload FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no snapshot with id %d", id)
	}
	return snap, err
}

// GetAll loads every stored snapshot, oldest first.
func (s *Store) GetAll() ([]*snapshot.Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, name, preset_name, enabled_count, timestamp, payload FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []*snapshot.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshots: %w", err)
	}
	return out, nil
}

// Delete removes a snapshot by id.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of snapshot %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("no snapshot with id %d", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	var raw string
	if err := row.Scan(&snap.ID, &snap.Name, &snap.PresetName, &snap.EnabledCount, &snap.Timestamp, &raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning snapshot row: %w", err)
	}
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parsing snapshot %d payload: %w", snap.ID, err)
	}
	snap.Prompts = p.Prompts
	snap.PromptOrder = p.PromptOrder
	return &snap, nil
}
