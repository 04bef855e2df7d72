// Package runner temporarily substitutes a snapshot into the live session,
// drives one generation against it, and restores the prior state. The
// restoration is unconditional: whatever the generation does — succeed, fail,
// or hang until timeout — the transcript and configuration that existed
// before the call are put back before Run returns.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/promptlens/promptlens/internal/session"
	"github.com/promptlens/promptlens/internal/snapshot"
)

// GenerateOptions configures one quiet generation. OnPartialText may be
// invoked multiple times before completion; each invocation carries the
// accumulated partial output and is superseded by the next, and finally by
// the returned text.
type GenerateOptions struct {
	SkipContextInjection bool
	ForceResponderName   bool
	OnPartialText        func(text string)
}

// Generator is the external text-generation collaborator. A generation in
// this package is always "quiet": nothing it produces is persisted to the
// transcript.
type Generator interface {
	Generate(ctx context.Context, opts GenerateOptions) (string, error)
}

// Transcript is the mutable message log collaborator. The runner reads its
// full contents as the rollback baseline, appends at most one entry, and
// later replaces its contents verbatim.
type Transcript interface {
	Messages() []session.Message
	Append(m session.Message)
	SetMessages(msgs []session.Message)
}

// Runner orchestrates apply-generate-restore. Overlapping runs would race on
// the shared live state, so a single-slot semaphore serializes them.
type Runner struct {
	config     snapshot.ConfigSource
	transcript Transcript
	gen        Generator
	slot       chan struct{}

	// Timeout bounds the generation call; zero means no bound. Restoration
	// runs either way.
	Timeout time.Duration
	// UserName labels the test-input transcript entry.
	UserName string

	log *slog.Logger
}

// New wires a runner to its collaborators.
func New(config snapshot.ConfigSource, transcript Transcript, gen Generator) *Runner {
	return &Runner{
		config:     config,
		transcript: transcript,
		gen:        gen,
		slot:       make(chan struct{}, 1),
		UserName:   "You",
		log:        slog.Default(),
	}
}

// Run materializes snap into the live configuration, optionally appends
// testInput as a user message, invokes one quiet generation (streaming
// partial text into sink), and restores the pre-call transcript and
// configuration. The return value is the generated text or a descriptive
// error string; Run never returns an error to the caller, and no failure
// path skips the restoration.
func (r *Runner) Run(ctx context.Context, snap *snapshot.Snapshot, testInput string, sink func(text string)) string {
	select {
	case r.slot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Sprintf("Substitution not started: %v", ctx.Err())
	}
	defer func() { <-r.slot }()

	// Rollback baseline. A failed capture (uninitialized collaborator) is
	// tolerated: the configuration restore is then skipped, which is the
	// documented limitation rather than a retry.
	baseline := snapshot.Capture(r.config)
	if baseline == nil {
		r.log.Warn("live configuration unavailable, restore will be skipped")
	}
	var savedTranscript []session.Message
	if r.transcript != nil {
		savedTranscript = r.transcript.Messages()
	}

	defer func() {
		if r.transcript != nil {
			r.transcript.SetMessages(savedTranscript)
		}
		if baseline != nil {
			snapshot.Materialize(r.config, baseline)
		}
	}()

	if !snapshot.Materialize(r.config, snap) {
		return "Substitution failed: no snapshot or live configuration to apply it to."
	}

	if input := strings.TrimSpace(testInput); input != "" && r.transcript != nil {
		r.transcript.Append(session.Message{
			Speaker:   r.UserName,
			IsUser:    true,
			Text:      input,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	if r.gen == nil {
		return "Generation failed: no generation service configured."
	}

	gctx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var lastPartial string
	opts := GenerateOptions{
		SkipContextInjection: true,
		ForceResponderName:   true,
		OnPartialText: func(text string) {
			lastPartial = text
			if sink != nil {
				sink(text)
			}
		},
	}

	text, err := r.gen.Generate(gctx, opts)
	if err != nil {
		r.log.Debug("quiet generation failed", "error", err)
		return fmt.Sprintf("Generation failed: %v", err)
	}
	if text == "" {
		// No final text: the last partial stands.
		text = lastPartial
	}
	return text
}
