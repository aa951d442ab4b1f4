package comment

import (
	"regexp"
	"strings"
)

// Tag is one `@tag {type} name description` entry of a doc comment.
type Tag struct {
	Tag         string
	Name        string
	Type        string
	Description string
	Optional    bool
	Default     string
	HasDefault  bool
	Options     []string
	Line        int
	Source      string
	Consumed    bool
}

// Required reports whether the documented value must be supplied.
func (t *Tag) Required() bool { return !t.Optional }

// TagData is the stored form of a tag no processor understood.
type TagData struct {
	Tag         string   `json:"tag" yaml:"tag"`
	Value       string   `json:"value" yaml:"value"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Required    bool     `json:"required" yaml:"required"`
	Default     *string  `json:"default" yaml:"default"`
	Options     []string `json:"options" yaml:"options"`
	Line        int      `json:"line" yaml:"line"`
	Raw         string   `json:"raw" yaml:"raw"`
}

// Data returns the stored form of t.
func (t *Tag) Data() TagData {
	d := TagData{
		Tag:         t.Tag,
		Value:       t.Name,
		Type:        t.Type,
		Description: t.Description,
		Required:    t.Required(),
		Options:     t.Options,
		Line:        t.Line,
		Raw:         t.Source,
	}
	if t.HasDefault {
		def := t.Default
		d.Default = &def
	}
	return d
}

var (
	docLineRe = regexp.MustCompile(`^\s*\*?\s?`)
	optionsRe = regexp.MustCompile(`\s?\((.*)\).*`)
	tagNameRe = regexp.MustCompile(`^@([^\s{]+)`)
)

// ParseDoc splits a `/** ... */` comment into its free-text description and
// its tags. Tag lines are relative to the first line of the comment.
func ParseDoc(raw string) (string, []*Tag) {
	body := strings.TrimPrefix(raw, "/**")
	body = strings.TrimSuffix(body, "*/")
	lines := strings.Split(body, "\n")

	var (
		desc  []string
		tags  []*Tag
		cur   *Tag
		block []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Source = strings.TrimSpace(strings.Join(block, "\n"))
		parseTagBody(cur, cur.Source)
		tags = append(tags, cur)
		cur, block = nil, nil
	}

	for i, line := range lines {
		text := strings.TrimRight(docLineRe.ReplaceAllString(strings.TrimRight(line, "\r"), ""), " \t")
		if i == len(lines)-1 {
			text = strings.TrimRight(strings.TrimRight(text, "*"), " \t")
		}
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "@") && tagNameRe.MatchString(trimmed) {
			flush()
			cur = &Tag{Line: i}
			block = []string{trimmed}
			continue
		}
		if cur != nil {
			block = append(block, trimmed)
		} else {
			desc = append(desc, trimmed)
		}
	}
	flush()

	return joinLines(desc), tags
}

func parseTagBody(t *Tag, source string) {
	m := tagNameRe.FindStringSubmatch(source)
	t.Tag = m[1]
	rest := source[len(m[0]):]

	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "{") {
		if end := matchBrace(rest); end > 0 {
			t.Type = strings.TrimSpace(rest[1:end])
			rest = rest[end+1:]
		}
	}

	crossed := false
	for len(rest) > 0 && strings.ContainsRune(" \t\n", rune(rest[0])) {
		if rest[0] == '\n' {
			crossed = true
		}
		rest = rest[1:]
	}

	var name string
	if strings.HasPrefix(rest, "[") {
		if end := strings.IndexByte(rest, ']'); end > 0 {
			inner := rest[1:end]
			rest = rest[end+1:]
			t.Optional = true
			if k, v, ok := strings.Cut(inner, "="); ok {
				inner = k
				t.Default = strings.TrimSpace(v)
				t.HasDefault = true
			}
			name = strings.TrimSpace(inner)
		}
	}
	if name == "" && !t.Optional {
		end := strings.IndexAny(rest, " \t\n")
		if end < 0 {
			end = len(rest)
		}
		name, rest = rest[:end], rest[end:]
	}
	if crossed && name != "" {
		name = "\n" + name
	}
	t.Name = name
	t.Description = joinLines(strings.Split(rest, "\n"))
	preprocess(t)
}

// preprocess folds a name that started on a later line into the
// description and lifts a trailing parenthesized option list.
func preprocess(t *Tag) {
	if strings.HasPrefix(t.Name, "\n") {
		t.Description = strings.TrimSpace(strings.TrimSpace(t.Name) + " " + t.Description)
		t.Name = ""
	}
	if loc := optionsRe.FindStringSubmatchIndex(t.Description); loc != nil {
		for _, opt := range strings.FieldsFunc(t.Description[loc[2]:loc[3]], func(r rune) bool { return r == ',' || r == '|' }) {
			if opt = strings.TrimSpace(opt); opt != "" {
				t.Options = append(t.Options, opt)
			}
		}
		before := strings.TrimSpace(t.Description[:loc[2]-1])
		after := strings.TrimSpace(t.Description[loc[3]+1:])
		t.Description = strings.TrimSpace(before + " " + after)
	}
}

func matchBrace(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func joinLines(lines []string) string {
	var kept []string
	for _, l := range lines {
		kept = append(kept, strings.TrimSpace(l))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
