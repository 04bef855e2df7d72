// Package session holds the live, mutable state a substitution run operates
// on: the active prompt configuration and the chat transcript. It implements
// the collaborator contracts consumed by the snapshot and runner packages.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/promptlens/promptlens/internal/snapshot"
)

// Message is one transcript entry.
type Message struct {
	Speaker   string `json:"speaker"`
	IsUser    bool   `json:"is_user"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Session is the live state. Accessors copy in and out; no caller ever holds
// a reference into the session's own slices. Methods are individually
// thread-safe, but overlapping substitution runs are still unsafe — the
// runner serializes them.
type Session struct {
	mu          sync.Mutex
	prompts     []snapshot.PromptFragment
	promptOrder []snapshot.OrderEntry
	presetName  string
	transcript  []Message

	// onReplace, when set, is invoked after Replace installs a new
	// configuration, standing in for the host's re-render signal.
	onReplace func()
}

// New returns an empty initialized session.
func New() *Session {
	return &Session{}
}

// OnReplace registers the re-render hook.
func (s *Session) OnReplace(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReplace = fn
}

// Current implements snapshot.ConfigSource. A nil session reports itself
// unavailable, modeling a collaborator that is not yet initialized.
func (s *Session) Current() ([]snapshot.PromptFragment, []snapshot.OrderEntry, string, bool) {
	if s == nil {
		return nil, nil, "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.ClonePrompts(s.prompts), snapshot.CloneOrder(s.promptOrder), s.presetName, true
}

// Replace implements snapshot.ConfigSource. The supplied slices become the
// live configuration; callers pass copies, so the session takes ownership.
func (s *Session) Replace(prompts []snapshot.PromptFragment, order []snapshot.OrderEntry) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.prompts = prompts
	s.promptOrder = order
	hook := s.onReplace
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// SetPreset sets the active preset label.
func (s *Session) SetPreset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presetName = name
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Append adds one entry to the transcript.
func (s *Session) Append(m Message) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, m)
}

// SetMessages replaces the transcript verbatim with the supplied entries.
func (s *Session) SetMessages(msgs []Message) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = make([]Message, len(msgs))
	copy(s.transcript, msgs)
}

// NewFragment builds a fragment with a fresh identifier and the default role.
func NewFragment(name, content string) snapshot.PromptFragment {
	return snapshot.PromptFragment{
		Identifier: uuid.NewString(),
		Name:       name,
		Role:       snapshot.DefaultRole,
		Content:    content,
	}
}
