package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteFile exports a snapshot to a JSON file using the persisted record
// layout. The store-assigned ID is dropped so an imported copy is saved as a
// new record rather than colliding with an existing one.
func WriteFile(path string, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("no snapshot to export")
	}
	out := snap.Clone()
	out.ID = 0

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadFile imports a snapshot from a JSON file and validates it.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := Validate(&snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot in %s: %w", path, err)
	}
	return &snap, nil
}

// Validate checks the snapshot invariants: fragment identifiers must be
// present and unique within the snapshot. Order entries referencing unknown
// identifiers are permitted (treated as unresolved downstream).
func Validate(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	seen := make(map[string]bool, len(snap.Prompts))
	for i, p := range snap.Prompts {
		if p.Identifier == "" {
			return fmt.Errorf("prompt %d: missing identifier", i)
		}
		if seen[p.Identifier] {
			return fmt.Errorf("duplicate prompt identifier %q", p.Identifier)
		}
		seen[p.Identifier] = true
	}
	return nil
}
