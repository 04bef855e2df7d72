// Package textdiff renders the detailed comparison for a pair of text fields:
// a line-level diff with a word-level sub-diff on lines that differ.
//
// The default algorithm is positional: lines and words are compared index by
// index, with no insertion/deletion shifting. That is a deliberate trade-off
// for short configuration text, where alignment by position reads naturally
// and costs O(n). Mode selects an edit-distance algorithm behind the same
// contract for longer documents; the two modes produce differently shaped
// output and callers opt in explicitly.
package textdiff

import "strings"

// Op classifies one line or word in a diff.
type Op string

const (
	OpSame    Op = "same"
	OpAdded   Op = "added"
	OpRemoved Op = "removed"
	OpChanged Op = "changed"
	OpEmpty   Op = "empty"
)

// WordSpan is one token of a word-level diff. Tokens alternate between
// non-whitespace words and the whitespace runs separating them, so joining
// the Text fields of one side reconstructs that side's line exactly.
type WordSpan struct {
	Text string `json:"text"`
	Op   Op     `json:"op"`
}

// LineRecord is one line of a line-level diff. Words is populated only when
// Op is OpChanged, carrying that side's word-level sub-diff.
type LineRecord struct {
	Text  string     `json:"text"`
	Op    Op         `json:"op"`
	Words []WordSpan `json:"words,omitempty"`
}

// LineDiff compares two texts line by line at matching indexes. Both returned
// sequences have length max(lineCountA, lineCountB); a side that has no line
// at an index gets an OpEmpty placeholder while the other side's line is
// marked OpAdded or OpRemoved. Aligned unequal lines are marked OpChanged on
// both sides with an attached word-level sub-diff.
//
// Inputs are split on single newline characters with no trailing-newline
// special case: a trailing newline yields a trailing empty line.
func LineDiff(textA, textB string) (left, right []LineRecord) {
	linesA := strings.Split(textA, "\n")
	linesB := strings.Split(textB, "\n")

	n := len(linesA)
	if len(linesB) > n {
		n = len(linesB)
	}
	left = make([]LineRecord, n)
	right = make([]LineRecord, n)

	for i := 0; i < n; i++ {
		switch {
		case i >= len(linesB):
			left[i] = LineRecord{Text: linesA[i], Op: OpRemoved}
			right[i] = LineRecord{Op: OpEmpty}
		case i >= len(linesA):
			left[i] = LineRecord{Op: OpEmpty}
			right[i] = LineRecord{Text: linesB[i], Op: OpAdded}
		case linesA[i] == linesB[i]:
			left[i] = LineRecord{Text: linesA[i], Op: OpSame}
			right[i] = LineRecord{Text: linesB[i], Op: OpSame}
		default:
			wa, wb := WordDiff(linesA[i], linesB[i])
			left[i] = LineRecord{Text: linesA[i], Op: OpChanged, Words: wa}
			right[i] = LineRecord{Text: linesB[i], Op: OpChanged, Words: wb}
		}
	}
	return left, right
}

// WordDiff compares two lines token by token at matching indexes. Tokens are
// words and the whitespace runs between them, preserved verbatim so each
// side's spans concatenate back to the original line. Equal aligned tokens
// are OpSame on both sides; unequal aligned tokens are OpRemoved on the A
// side and OpAdded on the B side, as are tokens past the other side's length.
// There is no deeper recursion below the word level.
func WordDiff(lineA, lineB string) (wordsA, wordsB []WordSpan) {
	tokensA := splitWords(lineA)
	tokensB := splitWords(lineB)

	for i, tok := range tokensA {
		op := OpRemoved
		if i < len(tokensB) && tokensB[i] == tok {
			op = OpSame
		}
		wordsA = append(wordsA, WordSpan{Text: tok, Op: op})
	}
	for i, tok := range tokensB {
		op := OpAdded
		if i < len(tokensA) && tokensA[i] == tok {
			op = OpSame
		}
		wordsB = append(wordsB, WordSpan{Text: tok, Op: op})
	}
	return wordsA, wordsB
}

// splitWords splits a line into alternating non-whitespace and whitespace
// runs, keeping both so the split is lossless.
func splitWords(line string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range line {
		isSpace := r == ' ' || r == '\t' || r == '\r' || r == '\v' || r == '\f'
		if i == 0 {
			inSpace = isSpace
			continue
		}
		if isSpace != inSpace {
			tokens = append(tokens, line[start:i])
			start = i
			inSpace = isSpace
		}
	}
	if start < len(line) {
		tokens = append(tokens, line[start:])
	}
	return tokens
}
