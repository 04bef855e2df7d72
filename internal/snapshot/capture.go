package snapshot

import "time"

// ConfigSource is the live prompt-configuration collaborator. Current returns
// the live prompts, ordering, and preset label, or ok=false when the
// collaborator is not yet initialized. Replace installs a new configuration
// and triggers whatever re-render the host needs. Both are synchronous.
type ConfigSource interface {
	Current() (prompts []PromptFragment, order []OrderEntry, presetName string, ok bool)
	Replace(prompts []PromptFragment, order []OrderEntry)
}

// Capture reads the live configuration and returns it as a transient
// snapshot, or nil when the source is unavailable. The result shares no
// memory with the live state: fragments and ordering are deep-copied, so
// later live edits cannot reach back into the snapshot.
func Capture(src ConfigSource) *Snapshot {
	if src == nil {
		return nil
	}
	prompts, order, preset, ok := src.Current()
	if !ok {
		return nil
	}
	now := time.Now()
	return &Snapshot{
		Prompts:      ClonePrompts(prompts),
		PromptOrder:  CloneOrder(order),
		PresetName:   preset,
		EnabledCount: CountEnabled(order),
		Timestamp:    now.UnixMilli(),
		Name:         DisplayName(preset, now),
	}
}

// Materialize writes a deep copy of the snapshot's prompts and ordering into
// the live configuration. Returns false when either the destination or the
// snapshot is absent. This is the sole mutation point toward live state; the
// destination never receives a reference into the snapshot, which keeps the
// snapshot immutable against subsequent live edits.
func Materialize(dst ConfigSource, snap *Snapshot) bool {
	if dst == nil || snap == nil {
		return false
	}
	dst.Replace(ClonePrompts(snap.Prompts), CloneOrder(snap.PromptOrder))
	return true
}
