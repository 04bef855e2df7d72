package textdiff

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Mode selects the diff algorithm. The positional default and the
// edit-distance mode produce differently shaped output for the same inputs,
// so the mode is an explicit caller choice, never inferred from input size.
type Mode string

const (
	// ModePositional compares lines and words index by index.
	ModePositional Mode = "positional"
	// ModeEditDistance computes a minimum-edit alignment, detecting line
	// insertions and deletions that shift subsequent content. Intended for
	// long-form fields where positional alignment degenerates.
	ModeEditDistance Mode = "edit-distance"
)

// ParseMode validates a mode name from configuration or a CLI flag.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePositional:
		return ModePositional, nil
	case ModeEditDistance:
		return ModeEditDistance, nil
	default:
		return "", fmt.Errorf("unknown diff mode %q (want %q or %q)", s, ModePositional, ModeEditDistance)
	}
}

// LineDiffMode runs LineDiff under the given mode.
func LineDiffMode(mode Mode, textA, textB string) (left, right []LineRecord) {
	if mode == ModeEditDistance {
		return editDistanceLineDiff(textA, textB)
	}
	return LineDiff(textA, textB)
}

// editDistanceLineDiff aligns lines with diffmatchpatch's line-mode diff and
// emits the same record shapes as the positional algorithm: unchanged lines
// as Same/Same pairs, unmatched deletions and insertions padded with Empty
// placeholders, and delete/insert runs paired up into Changed lines carrying
// a word-level sub-diff.
func editDistanceLineDiff(textA, textB string) (left, right []LineRecord) {
	dmp := diffmatchpatch.New()
	ra, rb, lines := dmp.DiffLinesToRunes(textA+"\n", textB+"\n")
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(ra, rb, false))

	decode := func(s string) []string {
		var out []string
		for _, r := range s {
			if idx := int(r); idx >= 0 && idx < len(lines) {
				out = append(out, trimLineTerminator(lines[idx]))
			}
		}
		return out
	}

	var dels, ins []string
	flush := func() {
		n := len(dels)
		if len(ins) > n {
			n = len(ins)
		}
		for i := 0; i < n; i++ {
			switch {
			case i >= len(ins):
				left = append(left, LineRecord{Text: dels[i], Op: OpRemoved})
				right = append(right, LineRecord{Op: OpEmpty})
			case i >= len(dels):
				left = append(left, LineRecord{Op: OpEmpty})
				right = append(right, LineRecord{Text: ins[i], Op: OpAdded})
			default:
				wa, wb := editDistanceWordDiff(dels[i], ins[i])
				left = append(left, LineRecord{Text: dels[i], Op: OpChanged, Words: wa})
				right = append(right, LineRecord{Text: ins[i], Op: OpChanged, Words: wb})
			}
		}
		dels, ins = nil, nil
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			for _, line := range decode(d.Text) {
				left = append(left, LineRecord{Text: line, Op: OpSame})
				right = append(right, LineRecord{Text: line, Op: OpSame})
			}
		case diffmatchpatch.DiffDelete:
			dels = append(dels, decode(d.Text)...)
		case diffmatchpatch.DiffInsert:
			ins = append(ins, decode(d.Text)...)
		}
	}
	flush()
	return left, right
}

// editDistanceWordDiff produces word spans from a character-level
// minimum-edit diff of the two lines. Each side's spans still concatenate
// back to that side's original line.
func editDistanceWordDiff(lineA, lineB string) (wordsA, wordsB []WordSpan) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(lineA, lineB, false))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			wordsA = append(wordsA, WordSpan{Text: d.Text, Op: OpSame})
			wordsB = append(wordsB, WordSpan{Text: d.Text, Op: OpSame})
		case diffmatchpatch.DiffDelete:
			wordsA = append(wordsA, WordSpan{Text: d.Text, Op: OpRemoved})
		case diffmatchpatch.DiffInsert:
			wordsB = append(wordsB, WordSpan{Text: d.Text, Op: OpAdded})
		}
	}
	return wordsA, wordsB
}

func trimLineTerminator(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
