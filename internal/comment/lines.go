package comment

import (
	"sort"
	"strings"
)

// LineIndex maps byte offsets to 1-based line numbers.
type LineIndex struct {
	src    []byte
	starts []int
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// Count returns the number of lines.
func (li *LineIndex) Count() int { return len(li.starts) }

// Line returns the line holding offset.
func (li *LineIndex) Line(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
}

// Bounds returns the byte range of line, excluding its line terminator.
func (li *LineIndex) Bounds(line int) (start, end int) {
	if line < 1 || line > len(li.starts) {
		return 0, 0
	}
	start = li.starts[line-1]
	end = len(li.src)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	if end > start && li.src[end-1] == '\r' {
		end--
	}
	return start, end
}

// Text returns the content of line without its terminator.
func (li *LineIndex) Text(line int) string {
	start, end := li.Bounds(line)
	return string(li.src[start:end])
}

// Blank reports whether line holds only whitespace.
func (li *LineIndex) Blank(line int) bool {
	return strings.TrimSpace(li.Text(line)) == ""
}
