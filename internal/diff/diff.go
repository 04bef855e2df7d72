package diff

import (
	"github.com/promptlens/promptlens/internal/snapshot"
)

// Compare produces the change records between two snapshots. It is pure and
// deterministic: fragments present in A are visited in A's prompt order
// (covering removals, content changes, and enabled changes), followed by pure
// additions in B's prompt order. A single identifier may yield both a content
// and an enabled record.
//
// A nil input yields no records: comparison against a missing snapshot is
// defined as "no differences". Callers that need to distinguish that case
// from true equality must check their inputs first.
func Compare(a, b *snapshot.Snapshot) []ChangeRecord {
	if a == nil || b == nil {
		return nil
	}

	inA := make(map[string]bool, len(a.Prompts))
	inB := make(map[string]snapshot.PromptFragment, len(b.Prompts))
	for _, p := range a.Prompts {
		inA[p.Identifier] = true
	}
	for _, p := range b.Prompts {
		inB[p.Identifier] = p
	}

	var records []ChangeRecord

	for _, pa := range a.Prompts {
		pb, ok := inB[pa.Identifier]
		if !ok {
			records = append(records, ChangeRecord{
				Kind:       ChangeRemoved,
				Identifier: pa.Identifier,
				Name:       pa.Name,
			})
			continue
		}

		// Exact string comparison, no normalization.
		if pa.Content != pb.Content {
			records = append(records, ChangeRecord{
				Kind:       ChangeContent,
				Identifier: pa.Identifier,
				Name:       pa.Name,
				ContentA:   pa.Content,
				ContentB:   pb.Content,
			})
		}

		ea := resolveEnabled(a, pa.Identifier)
		eb := resolveEnabled(b, pa.Identifier)
		if !equalEnabled(ea, eb) {
			records = append(records, ChangeRecord{
				Kind:       ChangeEnabled,
				Identifier: pa.Identifier,
				Name:       pa.Name,
				EnabledA:   ea,
				EnabledB:   eb,
			})
		}
	}

	for _, pb := range b.Prompts {
		if !inA[pb.Identifier] {
			records = append(records, ChangeRecord{
				Kind:       ChangeAdded,
				Identifier: pb.Identifier,
				Name:       pb.Name,
			})
		}
	}

	return records
}

// Diff compares two snapshots and wraps the result in a labeled report.
func Diff(a, b *snapshot.Snapshot) *Report {
	report := &Report{
		SnapshotA: label(a),
		SnapshotB: label(b),
		Entries:   Compare(a, b),
	}
	report.HasChanges = len(report.Entries) > 0
	return report
}

func label(s *snapshot.Snapshot) string {
	if s == nil {
		return "(none)"
	}
	if s.Name != "" {
		return s.Name
	}
	return "(unnamed)"
}

// resolveEnabled returns the first-match enabled flag for the identifier, or
// nil when it appears in no order list of the snapshot.
func resolveEnabled(s *snapshot.Snapshot, id string) *bool {
	if enabled, ok := s.EnabledState(id); ok {
		return &enabled
	}
	return nil
}

// equalEnabled treats two undefined flags as equal; a defined flag never
// equals an undefined one.
func equalEnabled(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
