// Package snapshot defines the immutable-at-rest value types that capture a
// prompt-set configuration, and the capture/materialize operations that move
// configurations between a live session and snapshot form.
package snapshot

import (
	"fmt"
	"time"
)

// PromptFragment is one keyed, named unit of text content within a snapshot.
// Fragments are owned exclusively by the snapshot that contains them and are
// deep-copied on every capture or materialize.
type PromptFragment struct {
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	Marker       bool   `json:"marker,omitempty"`
	SystemPrompt bool   `json:"system_prompt,omitempty"`
}

// DefaultRole is assigned to fragments created without an explicit role.
const DefaultRole = "system"

// OrderRef is one element of an ordering list: a fragment reference plus a
// per-snapshot enabled flag independent of the fragment's content.
type OrderRef struct {
	Identifier string `json:"identifier"`
	Enabled    bool   `json:"enabled"`
}

// OrderEntry is a named ordering list asserting which fragments are active and
// in what sequence. An entry may reference identifiers that resolve to no
// fragment; those are treated as unresolved, not as errors.
type OrderEntry struct {
	Name  string     `json:"name,omitempty"`
	Order []OrderRef `json:"order"`
}

// Snapshot is the unit of comparison: a captured prompt-set configuration.
// ID is assigned by the store on persistence and is zero for a transient
// snapshot. Once captured a snapshot is never mutated in place; every
// transformation works on copies.
type Snapshot struct {
	ID           int64            `json:"id,omitempty"`
	Prompts      []PromptFragment `json:"prompts"`
	PromptOrder  []OrderEntry     `json:"promptOrder"`
	PresetName   string           `json:"presetName"`
	EnabledCount int              `json:"enabledCount"`
	Timestamp    int64            `json:"timestamp"`
	Name         string           `json:"name"`
}

// Clone returns a deep copy of the snapshot with no aliasing into the
// original's slices.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Prompts = ClonePrompts(s.Prompts)
	out.PromptOrder = CloneOrder(s.PromptOrder)
	return &out
}

// ClonePrompts deep-copies a fragment list.
func ClonePrompts(prompts []PromptFragment) []PromptFragment {
	if prompts == nil {
		return nil
	}
	out := make([]PromptFragment, len(prompts))
	copy(out, prompts)
	return out
}

// CloneOrder deep-copies an ordering list, including the nested refs.
func CloneOrder(order []OrderEntry) []OrderEntry {
	if order == nil {
		return nil
	}
	out := make([]OrderEntry, len(order))
	for i, e := range order {
		out[i] = e
		if e.Order != nil {
			out[i].Order = make([]OrderRef, len(e.Order))
			copy(out[i].Order, e.Order)
		}
	}
	return out
}

// Fragment returns the fragment with the given identifier, if present.
func (s *Snapshot) Fragment(id string) (PromptFragment, bool) {
	for _, p := range s.Prompts {
		if p.Identifier == id {
			return p, true
		}
	}
	return PromptFragment{}, false
}

// EnabledState resolves the enabled flag for an identifier by scanning the
// snapshot's order entries for the first one whose list contains it. The
// second return is false when the identifier appears in no order list, in
// which case the flag is undefined. When an identifier appears in multiple
// entries only the first match is consulted.
func (s *Snapshot) EnabledState(id string) (enabled bool, ok bool) {
	if s == nil {
		return false, false
	}
	for _, entry := range s.PromptOrder {
		for _, ref := range entry.Order {
			if ref.Identifier == id {
				return ref.Enabled, true
			}
		}
	}
	return false, false
}

// CountEnabled returns the number of order refs across all entries whose
// enabled flag is set. Used for the persisted enabledCount field.
func CountEnabled(order []OrderEntry) int {
	n := 0
	for _, entry := range order {
		for _, ref := range entry.Order {
			if ref.Enabled {
				n++
			}
		}
	}
	return n
}

// DisplayName builds the default user-facing label for a capture: the active
// preset name combined with the capture instant.
func DisplayName(preset string, at time.Time) string {
	if preset == "" {
		preset = "unnamed"
	}
	return fmt.Sprintf("%s @ %s", preset, at.Format("2006-01-02 15:04:05"))
}
