package comment

import (
	"regexp"
	"strings"
)

// Type is the physical shape of a comment.
type Type string

const (
	Block  Type = "block"
	Single Type = "single"
)

// Anchor is the code line a comment documents.
type Anchor struct {
	Line    int
	Content string
}

// Comment is a comment resolved against its source file.
type Comment struct {
	Raw         string
	Type        Type
	Description string
	Tags        []*Tag
	Start       int
	End         int
	StartLine   int
	EndLine     int
	Anchor      *Anchor
	Inline      bool
	Doc         bool
	Processed   bool

	leading bool
}

// AnchoredAt reports whether the comment documents line.
func (c *Comment) AnchoredAt(line int) bool {
	return c.Anchor != nil && c.Anchor.Line == line
}

// Pending returns the tags that no processor has consumed yet.
func (c *Comment) Pending() []*Tag {
	var out []*Tag
	for _, t := range c.Tags {
		if !t.Consumed {
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether a pending tag named name is present.
func (c *Comment) HasTag(name string) bool {
	for _, t := range c.Tags {
		if !t.Consumed && t.Tag == name {
			return true
		}
	}
	return false
}

var (
	lineMarkerRe  = regexp.MustCompile(`^/+\s?`)
	blockMarkerRe = regexp.MustCompile(`(?m)\s*\*+/$|^\s*\*+\s?|^/\*+`)
)

// Resolve builds comments from spans and assigns each its anchor line.
func Resolve(src []byte, spans []Span) []*Comment {
	idx := NewLineIndex(src)
	comments := make([]*Comment, 0, len(spans))
	for _, s := range spans {
		c := &Comment{
			Raw:       s.Raw,
			Start:     s.Start,
			End:       s.End,
			StartLine: idx.Line(s.Start),
			EndLine:   idx.Line(max(s.End-1, s.Start)),
			Type:      Single,
		}
		if strings.Contains(s.Raw, "\n") {
			c.Type = Block
		}

		ls, le := idx.Bounds(c.StartLine)
		c.leading = strings.TrimSpace(string(src[ls:s.Start])) == ""
		if c.Type == Single {
			trailing := strings.TrimSpace(string(src[min(s.End, le):le]))
			c.Inline = !c.leading || trailing != ""
		}

		if strings.HasPrefix(s.Raw, "/**") && !strings.HasPrefix(s.Raw, "/**/") {
			c.Doc = true
			c.Description, c.Tags = ParseDoc(s.Raw)
			for _, t := range c.Tags {
				t.Line += c.StartLine
			}
		} else {
			c.Description = stripMarkers(s.Raw)
		}
		comments = append(comments, c)
	}

	for i, c := range comments {
		c.Anchor = anchor(idx, src, comments, i)
	}
	return comments
}

// anchor scans forward from the end of comments[i] to the first line of
// code, skipping blank lines and lines that open with another comment.
func anchor(idx *LineIndex, src []byte, comments []*Comment, i int) *Anchor {
	c := comments[i]
	if c.Inline {
		return &Anchor{Line: c.StartLine, Content: strings.TrimSpace(idx.Text(c.StartLine))}
	}

	line := c.EndLine + 1
	if _, le := idx.Bounds(c.EndLine); strings.TrimSpace(string(src[min(c.End, le):le])) != "" {
		line = c.EndLine
	}

	next := i + 1
	for line <= idx.Count() {
		if line > c.EndLine && idx.Blank(line) {
			line++
			continue
		}
		for next < len(comments) && comments[next].StartLine < line {
			next++
		}
		if next < len(comments) && comments[next].StartLine == line && comments[next].leading && !comments[next].Inline {
			later := comments[next]
			next++
			_, le := idx.Bounds(later.EndLine)
			if strings.TrimSpace(string(src[min(later.End, le):le])) != "" {
				return &Anchor{Line: later.EndLine, Content: strings.TrimSpace(idx.Text(later.EndLine))}
			}
			line = later.EndLine + 1
			continue
		}
		return &Anchor{Line: line, Content: strings.TrimSpace(idx.Text(line))}
	}
	return nil
}

func stripMarkers(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return strings.TrimSpace(lineMarkerRe.ReplaceAllString(raw, ""))
	}
	return strings.TrimSpace(blockMarkerRe.ReplaceAllString(raw, ""))
}
