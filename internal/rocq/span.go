package rocq

// span.go — SpanIndex: turns a FlecheDocument plus the current source
// text into the ordered Step sequence.

import (
	"fmt"
	"sort"
)

// BuildSteps walks doc's spans in order and produces the Step sequence.
// Each step's text is the substring from the end of the previous span (or
// offset 0) to the end of the current span, so leading whitespace and
// comments travel with the step that follows them — this is what lets
// ChangeEngine reinsert a step byte-exactly later.
func BuildSteps(doc *FlecheDocument, text string) ([]Step, error) {
	offsets := newLineOffsets(text)

	steps := make([]Step, 0, len(doc.Spans))
	prevEnd := 0
	for _, span := range doc.Spans {
		end := offsets.toByteOffset(span.Range.End)
		if end > len(text) {
			return nil, fmt.Errorf("span end %v exceeds document length %d", span.Range.End, len(text))
		}
		if end < prevEnd {
			return nil, fmt.Errorf("span end %v precedes previous span end at byte %d", span.Range.End, prevEnd)
		}
		stepText := text[prevEnd:end]
		kind := Classify(stepText, span.Span)
		steps = append(steps, Step{
			Text:   stepText,
			Range:  Range{Start: offsets.toPosition(prevEnd), End: span.Range.End},
			ASTTag: kind,
		})
		prevEnd = end
	}

	if prevEnd != len(text) && len(steps) > 0 {
		// Trailing whitespace/comments after the last recognized sentence;
		// fold it into the final step so the step texts still concatenate
		// back to the full source.
		steps[len(steps)-1].Text += text[prevEnd:]
	}

	return steps, nil
}

// lineOffsets supports O(log n) Position<->byte-offset conversion.
type lineOffsets struct {
	text       string
	lineStarts []int // byte offset of the start of each line
}

func newLineOffsets(text string) *lineOffsets {
	starts := []int{0}
	for i, c := range text {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineOffsets{text: text, lineStarts: starts}
}

func (lo *lineOffsets) toByteOffset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(lo.lineStarts) {
		return len(lo.text)
	}
	off := lo.lineStarts[pos.Line] + pos.Character
	if off > len(lo.text) {
		return len(lo.text)
	}
	return off
}

func (lo *lineOffsets) toPosition(offset int) Position {
	// Binary search for the last line start <= offset.
	i := sort.Search(len(lo.lineStarts), func(i int) bool { return lo.lineStarts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Position{Line: i, Character: offset - lo.lineStarts[i]}
}

// StepIndex supports O(log n) lookup of the step owning a given byte
// offset, built once per successful sync.
type StepIndex struct {
	steps   []Step
	offsets *lineOffsets
	starts  []int // byte offset of each step's Range.Start
}

// NewStepIndex builds a StepIndex over steps using text for offset math.
func NewStepIndex(steps []Step, text string) *StepIndex {
	offsets := newLineOffsets(text)
	starts := make([]int, len(steps))
	for i, s := range steps {
		starts[i] = offsets.toByteOffset(s.Range.Start)
	}
	return &StepIndex{steps: steps, offsets: offsets, starts: starts}
}

// StepAt returns the index of the step containing byte offset, or -1 if
// offset falls outside every step.
func (si *StepIndex) StepAt(offset int) int {
	i := sort.Search(len(si.starts), func(i int) bool { return si.starts[i] > offset }) - 1
	if i < 0 || i >= len(si.steps) {
		return -1
	}
	end := si.offsets.toByteOffset(si.steps[i].Range.End)
	if offset > end {
		return -1
	}
	return i
}

// ConcatText reconstructs the full source text from a step slice.
func ConcatText(steps []Step) string {
	var total int
	for _, s := range steps {
		total += len(s.Text)
	}
	buf := make([]byte, 0, total)
	for _, s := range steps {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}
