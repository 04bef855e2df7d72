// Package diff compares two prompt-set snapshots and reports every
// fragment-level change between them as typed records.
package diff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChangeKind discriminates the change record variants.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeContent ChangeKind = "content"
	ChangeEnabled ChangeKind = "enabled"
)

// ChangeRecord is one typed difference between two snapshots' fragment sets.
// ContentA/ContentB are set for ChangeContent. EnabledA/EnabledB are set for
// ChangeEnabled; a nil pointer means the fragment appears in no order list of
// that snapshot, so its flag is undefined there.
type ChangeRecord struct {
	Kind       ChangeKind `json:"kind"`
	Identifier string     `json:"identifier"`
	Name       string     `json:"name"`
	ContentA   string     `json:"content_a,omitempty"`
	ContentB   string     `json:"content_b,omitempty"`
	EnabledA   *bool      `json:"enabled_a,omitempty"`
	EnabledB   *bool      `json:"enabled_b,omitempty"`
}

// Report wraps the change records for one comparison together with the
// snapshot labels, for rendering.
type Report struct {
	SnapshotA  string         `json:"snapshot_a"`
	SnapshotB  string         `json:"snapshot_b"`
	Entries    []ChangeRecord `json:"entries"`
	HasChanges bool           `json:"has_changes"`
}

// JSON returns the report as JSON bytes.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Human returns a one-line-per-change summary of the report.
func (r *Report) Human() string {
	if !r.HasChanges {
		return "No differences found.\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Comparing %s vs %s\n\n", r.SnapshotA, r.SnapshotB))
	b.WriteString(fmt.Sprintf("%d change(s) found:\n\n", len(r.Entries)))

	for i, e := range r.Entries {
		b.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, e.Kind, e.Describe()))
	}
	return b.String()
}

// Describe renders one change record as a short human-readable phrase.
func (e *ChangeRecord) Describe() string {
	label := e.Name
	if label == "" {
		label = e.Identifier
	}
	switch e.Kind {
	case ChangeAdded:
		return fmt.Sprintf("%s added", label)
	case ChangeRemoved:
		return fmt.Sprintf("%s removed", label)
	case ChangeContent:
		return fmt.Sprintf("%s content differs", label)
	case ChangeEnabled:
		return fmt.Sprintf("%s %s -> %s", label, enabledWord(e.EnabledA), enabledWord(e.EnabledB))
	default:
		return label
	}
}

func enabledWord(v *bool) string {
	switch {
	case v == nil:
		return "unlisted"
	case *v:
		return "enabled"
	default:
		return "disabled"
	}
}
