package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlens/promptlens/internal/snapshot"
)

func snapA(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	return &snapshot.Snapshot{
		Name: "A",
		Prompts: []snapshot.PromptFragment{
			{Identifier: "p1", Name: "Main", Content: "Hello"},
			{Identifier: "p2", Name: "Style", Content: "Be terse"},
			{Identifier: "p3", Name: "Extra", Content: "Unchanged"},
		},
		PromptOrder: []snapshot.OrderEntry{
			{Order: []snapshot.OrderRef{
				{Identifier: "p1", Enabled: true},
				{Identifier: "p2", Enabled: true},
				{Identifier: "p3", Enabled: true},
			}},
		},
	}
}

func find(records []ChangeRecord, kind ChangeKind, id string) *ChangeRecord {
	for i := range records {
		if records[i].Kind == kind && records[i].Identifier == id {
			return &records[i]
		}
	}
	return nil
}

func TestCompareEqualSnapshots(t *testing.T) {
	a := snapA(t)
	assert.Empty(t, Compare(a, a))
	assert.Empty(t, Compare(a, a.Clone()))
}

func TestCompareMissingSnapshot(t *testing.T) {
	a := snapA(t)
	assert.Empty(t, Compare(nil, a))
	assert.Empty(t, Compare(a, nil))
	assert.Empty(t, Compare(nil, nil))
}

func TestCompareContentChanged(t *testing.T) {
	a := &snapshot.Snapshot{
		Prompts: []snapshot.PromptFragment{{Identifier: "p1", Content: "Hello"}},
		PromptOrder: []snapshot.OrderEntry{
			{Order: []snapshot.OrderRef{{Identifier: "p1", Enabled: true}}},
		},
	}
	b := a.Clone()
	b.Prompts[0].Content = "Hi"

	records := Compare(a, b)
	require.Len(t, records, 1)
	assert.Equal(t, ChangeContent, records[0].Kind)
	assert.Equal(t, "p1", records[0].Identifier)
	assert.Equal(t, "Hello", records[0].ContentA)
	assert.Equal(t, "Hi", records[0].ContentB)
}

func TestCompareNoNormalization(t *testing.T) {
	a := &snapshot.Snapshot{Prompts: []snapshot.PromptFragment{{Identifier: "p1", Content: "x"}}}
	b := &snapshot.Snapshot{Prompts: []snapshot.PromptFragment{{Identifier: "p1", Content: "x "}}}
	records := Compare(a, b)
	require.Len(t, records, 1)
	assert.Equal(t, ChangeContent, records[0].Kind)
}

func TestCompareRemovedAndAdded(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	b.Prompts = b.Prompts[:2] // drop p3

	records := Compare(a, b)
	require.NotNil(t, find(records, ChangeRemoved, "p3"))

	reversed := Compare(b, a)
	added := find(reversed, ChangeAdded, "p3")
	require.NotNil(t, added)
	assert.Equal(t, "Extra", added.Name)
}

func TestCompareEnabledFlip(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	b.PromptOrder[0].Order[2].Enabled = false

	records := Compare(a, b)
	require.Len(t, records, 1, "unchanged content must not produce a content record")
	rec := records[0]
	assert.Equal(t, ChangeEnabled, rec.Kind)
	assert.Equal(t, "p3", rec.Identifier)
	require.NotNil(t, rec.EnabledA)
	require.NotNil(t, rec.EnabledB)
	assert.True(t, *rec.EnabledA)
	assert.False(t, *rec.EnabledB)
}

func TestCompareEnabledUndefinedVsDefined(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	// p3 disappears from every order list in B: flag becomes undefined.
	b.PromptOrder[0].Order = b.PromptOrder[0].Order[:2]

	records := Compare(a, b)
	rec := find(records, ChangeEnabled, "p3")
	require.NotNil(t, rec)
	require.NotNil(t, rec.EnabledA)
	assert.True(t, *rec.EnabledA)
	assert.Nil(t, rec.EnabledB)
}

func TestCompareContentAndEnabledForSameID(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	b.Prompts[0].Content = "Howdy"
	b.PromptOrder[0].Order[0].Enabled = false

	records := Compare(a, b)
	assert.NotNil(t, find(records, ChangeContent, "p1"))
	assert.NotNil(t, find(records, ChangeEnabled, "p1"))
}

func TestCompareOrdering(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	b.Prompts = append(b.Prompts, snapshot.PromptFragment{Identifier: "p9", Name: "New"})
	b.Prompts[1].Content = "changed"

	records := Compare(a, b)
	require.Len(t, records, 2)
	// Per-identifier records in A's key order come first, pure additions last.
	assert.Equal(t, ChangeContent, records[0].Kind)
	assert.Equal(t, "p2", records[0].Identifier)
	assert.Equal(t, ChangeAdded, records[1].Kind)
	assert.Equal(t, "p9", records[1].Identifier)
}

func TestCompareInverseConsistency(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	b.Prompts[0].Content = "Howdy"             // content change
	b.PromptOrder[0].Order[1].Enabled = false  // enabled change
	b.Prompts = append(b.Prompts[:2], snapshot.PromptFragment{Identifier: "p9", Name: "New"}) // p3 removed, p9 added

	fwd := Compare(a, b)
	rev := Compare(b, a)
	require.Equal(t, len(fwd), len(rev))

	for _, f := range fwd {
		switch f.Kind {
		case ChangeAdded:
			r := find(rev, ChangeRemoved, f.Identifier)
			require.NotNil(t, r, "added %s has no removed inverse", f.Identifier)
			assert.Equal(t, f.Name, r.Name)
		case ChangeRemoved:
			r := find(rev, ChangeAdded, f.Identifier)
			require.NotNil(t, r, "removed %s has no added inverse", f.Identifier)
		case ChangeContent:
			r := find(rev, ChangeContent, f.Identifier)
			require.NotNil(t, r)
			assert.Equal(t, f.ContentA, r.ContentB)
			assert.Equal(t, f.ContentB, r.ContentA)
		case ChangeEnabled:
			r := find(rev, ChangeEnabled, f.Identifier)
			require.NotNil(t, r)
			assert.Equal(t, f.EnabledA, r.EnabledB)
			assert.Equal(t, f.EnabledB, r.EnabledA)
		}
	}
}

func TestReportHuman(t *testing.T) {
	a := snapA(t)
	report := Diff(a, a.Clone())
	assert.False(t, report.HasChanges)
	assert.Equal(t, "No differences found.\n", report.Human())

	b := snapA(t)
	b.Prompts[0].Content = "Hi"
	report = Diff(a, b)
	assert.True(t, report.HasChanges)
	out := report.Human()
	assert.Contains(t, out, "1 change(s) found")
	assert.Contains(t, out, "Main content differs")
}

func TestReportJSON(t *testing.T) {
	b := snapA(t)
	b.PromptOrder[0].Order[0].Enabled = false
	report := Diff(snapA(t), b)

	data, err := report.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "enabled"`)
	assert.Contains(t, string(data), `"enabled_a": true`)
}

func TestRendererFullContent(t *testing.T) {
	a := snapA(t)
	b := snapA(t)
	b.Prompts[0].Content = "Hello there"

	r := Renderer{Full: true}
	out := r.Render(Diff(a, b))
	assert.Contains(t, out, "Main content differs")
	assert.Contains(t, out, "- Hello")
	assert.Contains(t, out, "+ Hello there")
}
