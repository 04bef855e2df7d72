package snapshot

import (
	"fmt"
	"strings"
	"time"
)

// Format renders a snapshot for inspection: the header fields, then the
// fragments in prompt-order sequence with their enabled state, then any
// fragments listed in no order entry.
func Format(s *Snapshot) string {
	if s == nil {
		return "(no snapshot)\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name:     %s\n", s.Name)
	fmt.Fprintf(&b, "Preset:   %s\n", s.PresetName)
	fmt.Fprintf(&b, "Captured: %s\n", time.UnixMilli(s.Timestamp).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Prompts:  %d (%d enabled)\n", len(s.Prompts), s.EnabledCount)

	listed := make(map[string]bool)
	for _, entry := range s.PromptOrder {
		if entry.Name != "" {
			fmt.Fprintf(&b, "\nOrder %q:\n", entry.Name)
		} else {
			b.WriteString("\nOrder:\n")
		}
		for _, ref := range entry.Order {
			listed[ref.Identifier] = true
			mark := " "
			if ref.Enabled {
				mark = "x"
			}
			frag, ok := s.Fragment(ref.Identifier)
			switch {
			case !ok:
				fmt.Fprintf(&b, "  [%s] %s (unresolved)\n", mark, ref.Identifier)
			case frag.Marker:
				fmt.Fprintf(&b, "  [%s] %s (marker)\n", mark, fragmentLabel(frag))
			default:
				fmt.Fprintf(&b, "  [%s] %s (%s, %d chars)\n", mark, fragmentLabel(frag), frag.Role, len(frag.Content))
			}
		}
	}

	var unlisted []PromptFragment
	for _, p := range s.Prompts {
		if !listed[p.Identifier] {
			unlisted = append(unlisted, p)
		}
	}
	if len(unlisted) > 0 {
		b.WriteString("\nUnlisted:\n")
		for _, p := range unlisted {
			fmt.Fprintf(&b, "  [-] %s (%s, %d chars)\n", fragmentLabel(p), p.Role, len(p.Content))
		}
	}
	return b.String()
}

func fragmentLabel(p PromptFragment) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Identifier
}
