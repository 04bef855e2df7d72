package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/promptlens/promptlens/internal/snapshot"
)

// File is the on-disk session format: the live configuration plus the
// transcript, as one JSON document.
type File struct {
	PresetName  string                    `json:"presetName"`
	Prompts     []snapshot.PromptFragment `json:"prompts"`
	PromptOrder []snapshot.OrderEntry     `json:"promptOrder"`
	Transcript  []Message                 `json:"transcript,omitempty"`
}

// Load reads a session file into a live session.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Prompts))
	for i, p := range f.Prompts {
		if p.Identifier == "" {
			return nil, fmt.Errorf("session %s: prompt %d missing identifier", path, i)
		}
		if seen[p.Identifier] {
			return nil, fmt.Errorf("session %s: duplicate prompt identifier %q", path, p.Identifier)
		}
		seen[p.Identifier] = true
	}

	s := New()
	s.Replace(f.Prompts, f.PromptOrder)
	s.SetPreset(f.PresetName)
	s.SetMessages(f.Transcript)
	return s, nil
}

// Save writes the session back to disk in the same format Load reads.
func Save(path string, s *Session) error {
	prompts, order, preset, ok := s.Current()
	if !ok {
		return fmt.Errorf("session unavailable")
	}
	f := File{
		PresetName:  preset,
		Prompts:     prompts,
		PromptOrder: order,
		Transcript:  s.Messages(),
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing session %s: %w", path, err)
	}
	return nil
}
