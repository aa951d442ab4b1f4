// Package diag collects the recoverable problems found while building the
// API model and routes them to the log according to a policy.
package diag

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Category identifies the kind of problem.
type Category string

const (
	UnrecognizedTag    Category = "unrecognized-tag"
	DuplicateClass     Category = "duplicate-class"
	AssociationFailure Category = "association-failure"
	UnassociatedTag    Category = "unassociated-tag"
	SkippedEvent       Category = "skipped-event"
	NoSourceCode       Category = "no-source-code"
	SkippedTag         Category = "skipped-tag"
	InvalidDefault     Category = "invalid-default"
	Ignored            Category = "ignored"
	ParseFailure       Category = "parse-failure"
	Inheritance        Category = "inheritance"
	Callback           Category = "callback"
	Require            Category = "require"
)

// Severity controls how a diagnostic is surfaced.
type Severity int

const (
	Silent Severity = iota
	Warning
	Audit
)

func (s Severity) String() string {
	switch s {
	case Silent:
		return "silent"
	case Warning:
		return "warning"
	case Audit:
		return "audit"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Policy enables the optional diagnostic classes.
type Policy struct {
	NoCode         bool
	SkippedEvents  bool
	SkippedTags    bool
	CommentFailure bool
}

// DefaultPolicy reports skipped tags and audits association failures.
func DefaultPolicy() Policy {
	return Policy{SkippedTags: true, CommentFailure: true}
}

// Classify returns the severity of a category under p.
func (p Policy) Classify(c Category) Severity {
	switch c {
	case NoSourceCode:
		return enabled(p.NoCode)
	case SkippedEvent:
		return enabled(p.SkippedEvents)
	case SkippedTag:
		return enabled(p.SkippedTags)
	case AssociationFailure:
		if p.CommentFailure {
			return Audit
		}
		return Warning
	}
	return Warning
}

func enabled(on bool) Severity {
	if on {
		return Warning
	}
	return Silent
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Category Category
	Severity Severity
	File     string
	Line     int
	Column   int
	Message  string
}

// Location formats the source position as file:line:col.
func (d Diagnostic) Location() string {
	switch {
	case d.File == "":
		return ""
	case d.Line == 0:
		return d.File
	}
	return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
}

func (d Diagnostic) String() string {
	if loc := d.Location(); loc != "" {
		return d.Message + " (" + loc + ")"
	}
	return d.Message
}

// Reporter is the single diagnostic channel of a build. It is safe for
// concurrent use.
type Reporter struct {
	mu     sync.Mutex
	log    zerolog.Logger
	policy Policy
	all    []Diagnostic
}

// New returns a Reporter logging to log.
func New(log zerolog.Logger, policy Policy) *Reporter {
	return &Reporter{log: log, policy: policy}
}

// Discard returns a Reporter that records diagnostics without logging.
func Discard() *Reporter {
	return New(zerolog.Nop(), DefaultPolicy())
}

// NewConsoleLogger returns a human-readable logger writing to w.
func NewConsoleLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:          zerolog.SyncWriter(w),
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return zerolog.New(out).Level(level)
}

// Logger returns the underlying logger.
func (r *Reporter) Logger() zerolog.Logger { return r.log }

// Report classifies and records a diagnostic.
func (r *Reporter) Report(c Category, file string, line, col int, format string, args ...any) Diagnostic {
	d := Diagnostic{
		Category: c,
		Severity: r.policy.Classify(c),
		File:     file,
		Line:     line,
		Column:   col,
		Message:  fmt.Sprintf(format, args...),
	}

	r.mu.Lock()
	r.all = append(r.all, d)
	r.mu.Unlock()

	var ev *zerolog.Event
	switch d.Severity {
	case Silent:
		ev = r.log.Debug()
	case Warning:
		ev = r.log.Warn()
	default:
		return d
	}
	if loc := d.Location(); loc != "" {
		ev = ev.Str("at", loc)
	}
	ev.Str("category", string(c)).Msg(d.Message)
	return d
}

// Diagnostics returns everything reported so far.
func (r *Reporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.all))
	copy(out, r.all)
	return out
}

// Audit returns the audited failures.
func (r *Reporter) Audit() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics() {
		if d.Severity == Audit {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many diagnostics of category c were reported.
func (r *Reporter) Count(c Category) int {
	n := 0
	for _, d := range r.Diagnostics() {
		if d.Category == c {
			n++
		}
	}
	return n
}

// Summary logs the processed file count followed by the audit list.
func (r *Reporter) Summary(files int) {
	r.log.Info().Msgf("Processed %d file(s).", files)
	for _, d := range r.Audit() {
		r.log.Error().Str("at", d.Location()).Str("category", string(d.Category)).Msg(d.Message)
	}
}
