// Package comment finds comments in JavaScript source, parses doc tags and
// resolves the code line each comment documents.
package comment

import "regexp"

var spanRe = regexp.MustCompile(`(/\*([^*]|[\r\n]|(\*+([^*/]|[\r\n])))*\*+/)|(//.*)`)

// Span is a raw comment with its half-open byte range.
type Span struct {
	Raw   string
	Start int
	End   int
}

// Extract returns every block and line comment in src, in source order.
// A line comment ends before its newline, or at end of input.
func Extract(src []byte) []Span {
	locs := spanRe.FindAllIndex(src, -1)
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, Span{Raw: string(src[loc[0]:loc[1]]), Start: loc[0], End: loc[1]})
	}
	return spans
}

// Filter keeps the spans for which keep returns true.
func Filter(spans []Span, keep func(Span) bool) []Span {
	out := spans[:0:0]
	for _, s := range spans {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
