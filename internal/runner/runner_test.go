package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlens/promptlens/internal/session"
	"github.com/promptlens/promptlens/internal/snapshot"
)

// fakeGen scripts the generation collaborator. Each callback sees the live
// session mid-substitution, which is how the tests observe the applied state.
type fakeGen struct {
	partials []string
	final    string
	err      error
	during   func(opts GenerateOptions)
}

func (g *fakeGen) Generate(ctx context.Context, opts GenerateOptions) (string, error) {
	if g.during != nil {
		g.during(opts)
	}
	for _, p := range g.partials {
		if opts.OnPartialText != nil {
			opts.OnPartialText(p)
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.final, nil
}

func liveSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New()
	s.SetPreset("Live")
	s.Replace(
		[]snapshot.PromptFragment{{Identifier: "live1", Name: "Live", Content: "live content"}},
		[]snapshot.OrderEntry{{Order: []snapshot.OrderRef{{Identifier: "live1", Enabled: true}}}},
	)
	s.Append(session.Message{Speaker: "You", IsUser: true, Text: "pre-existing", Timestamp: 1})
	return s
}

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Name:    "candidate",
		Prompts: []snapshot.PromptFragment{{Identifier: "c1", Name: "Candidate", Content: "candidate content"}},
		PromptOrder: []snapshot.OrderEntry{
			{Order: []snapshot.OrderRef{{Identifier: "c1", Enabled: true}}},
		},
	}
}

// stateOf captures the observable live state for before/after comparison.
func stateOf(s *session.Session) ([]snapshot.PromptFragment, []snapshot.OrderEntry, []session.Message) {
	prompts, order, _, _ := s.Current()
	return prompts, order, s.Messages()
}

func TestRunReturnsGeneratedText(t *testing.T) {
	sess := liveSession(t)
	r := New(sess, sess, &fakeGen{final: "generated"})

	out := r.Run(context.Background(), testSnapshot(), "", nil)
	assert.Equal(t, "generated", out)
}

func TestRunAppliesSnapshotDuringGeneration(t *testing.T) {
	sess := liveSession(t)
	var seen []snapshot.PromptFragment
	gen := &fakeGen{final: "ok", during: func(GenerateOptions) {
		seen, _, _, _ = sess.Current()
	}}
	r := New(sess, sess, gen)

	r.Run(context.Background(), testSnapshot(), "", nil)
	require.Len(t, seen, 1)
	assert.Equal(t, "c1", seen[0].Identifier)
}

func TestRunRestoresStateOnSuccess(t *testing.T) {
	sess := liveSession(t)
	prompts, order, msgs := stateOf(sess)

	r := New(sess, sess, &fakeGen{final: "ok"})
	r.Run(context.Background(), testSnapshot(), "test input", nil)

	afterPrompts, afterOrder, afterMsgs := stateOf(sess)
	assert.Equal(t, prompts, afterPrompts)
	assert.Equal(t, order, afterOrder)
	assert.Equal(t, msgs, afterMsgs, "appended test input must not survive the run")
}

func TestRunRestoresStateOnFailure(t *testing.T) {
	sess := liveSession(t)
	prompts, order, msgs := stateOf(sess)

	r := New(sess, sess, &fakeGen{err: errors.New("backend exploded")})
	out := r.Run(context.Background(), testSnapshot(), "test input", nil)

	assert.True(t, strings.HasPrefix(out, "Generation failed:"), "got %q", out)
	assert.Contains(t, out, "backend exploded")

	afterPrompts, afterOrder, afterMsgs := stateOf(sess)
	assert.Equal(t, prompts, afterPrompts)
	assert.Equal(t, order, afterOrder)
	assert.Equal(t, msgs, afterMsgs)
}

func TestRunRestoresTranscriptMutatedByCollaborator(t *testing.T) {
	sess := liveSession(t)
	_, _, msgs := stateOf(sess)

	gen := &fakeGen{final: "ok", during: func(GenerateOptions) {
		sess.Append(session.Message{Speaker: "Bot", Text: "stray persistence"})
	}}
	r := New(sess, sess, gen)
	r.Run(context.Background(), testSnapshot(), "", nil)

	assert.Equal(t, msgs, sess.Messages())
}

func TestRunAppendsTrimmedInput(t *testing.T) {
	sess := liveSession(t)
	var seen []session.Message
	gen := &fakeGen{final: "ok", during: func(GenerateOptions) {
		seen = sess.Messages()
	}}
	r := New(sess, sess, gen)
	r.UserName = "Tester"

	r.Run(context.Background(), testSnapshot(), "  hello  ", nil)
	require.Len(t, seen, 2)
	assert.Equal(t, "hello", seen[1].Text)
	assert.Equal(t, "Tester", seen[1].Speaker)
	assert.True(t, seen[1].IsUser)

	// Whitespace-only input appends nothing.
	seen = nil
	r.Run(context.Background(), testSnapshot(), "   ", nil)
	assert.Len(t, seen, 1)
}

func TestRunQuietOptions(t *testing.T) {
	sess := liveSession(t)
	var got GenerateOptions
	gen := &fakeGen{final: "ok", during: func(opts GenerateOptions) { got = opts }}
	r := New(sess, sess, gen)

	r.Run(context.Background(), testSnapshot(), "", nil)
	assert.True(t, got.SkipContextInjection)
	assert.True(t, got.ForceResponderName)
	assert.NotNil(t, got.OnPartialText)
}

func TestRunStreamsPartialsAndFinalSupersedes(t *testing.T) {
	sess := liveSession(t)
	var streamed []string
	gen := &fakeGen{partials: []string{"He", "Hell", "Hello"}, final: "Hello."}
	r := New(sess, sess, gen)

	out := r.Run(context.Background(), testSnapshot(), "", func(text string) {
		streamed = append(streamed, text)
	})
	assert.Equal(t, []string{"He", "Hell", "Hello"}, streamed)
	assert.Equal(t, "Hello.", out)
}

func TestRunEmptyFinalFallsBackToLastPartial(t *testing.T) {
	sess := liveSession(t)
	gen := &fakeGen{partials: []string{"partial text"}, final: ""}
	r := New(sess, sess, gen)

	out := r.Run(context.Background(), testSnapshot(), "", nil)
	assert.Equal(t, "partial text", out)
}

func TestRunMissingSnapshot(t *testing.T) {
	sess := liveSession(t)
	prompts, order, msgs := stateOf(sess)

	r := New(sess, sess, &fakeGen{final: "never"})
	out := r.Run(context.Background(), nil, "", nil)
	assert.True(t, strings.HasPrefix(out, "Substitution failed:"), "got %q", out)

	afterPrompts, afterOrder, afterMsgs := stateOf(sess)
	assert.Equal(t, prompts, afterPrompts)
	assert.Equal(t, order, afterOrder)
	assert.Equal(t, msgs, afterMsgs)
}

func TestRunUnavailableConfigSource(t *testing.T) {
	r := New(nil, nil, &fakeGen{final: "never"})
	out := r.Run(context.Background(), testSnapshot(), "", nil)
	assert.True(t, strings.HasPrefix(out, "Substitution failed:"), "got %q", out)
}

func TestRunMissingGenerator(t *testing.T) {
	sess := liveSession(t)
	_, _, msgs := stateOf(sess)

	r := New(sess, sess, nil)
	out := r.Run(context.Background(), testSnapshot(), "input", nil)
	assert.True(t, strings.HasPrefix(out, "Generation failed:"), "got %q", out)
	assert.Equal(t, msgs, sess.Messages())
}

// hangingGen blocks until its context is canceled.
type hangingGen struct{ started chan struct{} }

func (g *hangingGen) Generate(ctx context.Context, opts GenerateOptions) (string, error) {
	if g.started != nil {
		close(g.started)
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRunTimeoutStillRestores(t *testing.T) {
	sess := liveSession(t)
	prompts, order, msgs := stateOf(sess)

	r := New(sess, sess, &hangingGen{})
	r.Timeout = 20 * time.Millisecond

	out := r.Run(context.Background(), testSnapshot(), "", nil)
	assert.True(t, strings.HasPrefix(out, "Generation failed:"), "got %q", out)
	assert.Contains(t, out, "deadline exceeded")

	afterPrompts, afterOrder, afterMsgs := stateOf(sess)
	assert.Equal(t, prompts, afterPrompts)
	assert.Equal(t, order, afterOrder)
	assert.Equal(t, msgs, afterMsgs)
}

func TestRunSerializesOverlappingCalls(t *testing.T) {
	sess := liveSession(t)
	gen := &hangingGen{started: make(chan struct{})}
	r := New(sess, sess, gen)

	first := make(chan string)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { first <- r.Run(ctx, testSnapshot(), "", nil) }()
	<-gen.started

	// While the first run holds the slot, a second caller cannot enter; a
	// canceled context reports it was never started.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	out := r.Run(ctx2, testSnapshot(), "", nil)
	assert.True(t, strings.HasPrefix(out, "Substitution not started:"), "got %q", out)

	cancel()
	<-first
}
