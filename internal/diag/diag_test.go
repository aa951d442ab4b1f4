package diag

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaults(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	tests := []struct {
		cat  Category
		want Severity
	}{
		{NoSourceCode, Silent},
		{SkippedEvent, Silent},
		{SkippedTag, Warning},
		{AssociationFailure, Audit},
		{UnrecognizedTag, Warning},
		{DuplicateClass, Warning},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Classify(tt.cat), string(tt.cat))
	}
}

func TestClassifyOverrides(t *testing.T) {
	t.Parallel()

	p := Policy{NoCode: true, SkippedEvents: true}
	assert.Equal(t, Warning, p.Classify(NoSourceCode))
	assert.Equal(t, Warning, p.Classify(SkippedEvent))
	assert.Equal(t, Silent, p.Classify(SkippedTag))
	assert.Equal(t, Warning, p.Classify(AssociationFailure))
}

func TestReporterLogsBySeverity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(NewConsoleLogger(&buf, false), DefaultPolicy())

	r.Report(UnrecognizedTag, "event.js", 3, 4, "Unrecognized tag: %s", "blah")
	r.Report(NoSourceCode, "event.js", 5, 0, "No source code found")
	r.Report(AssociationFailure, "event.js", 9, 0, "Failed to process comment")

	out := buf.String()
	assert.Contains(t, out, "Unrecognized tag: blah")
	assert.Contains(t, out, "event.js:3:4")
	assert.NotContains(t, out, "No source code found")
	assert.NotContains(t, out, "Failed to process comment")

	require.Len(t, r.Diagnostics(), 3)
	require.Len(t, r.Audit(), 1)
	assert.Equal(t, 1, r.Count(NoSourceCode))

	r.Summary(2)
	out = buf.String()
	assert.Contains(t, out, "Processed 2 file(s).")
	assert.Contains(t, out, "Failed to process comment")
}

func TestConcurrentReports(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(NewConsoleLogger(&buf, false), DefaultPolicy())

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(UnrecognizedTag, "event.js", i+1, 0, "Unrecognized tag: %s", "blah")
			r.Logger().Warn().Int("n", i).Msg("file skipped")
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, r.Count(UnrecognizedTag))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 64)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "WRN "), "interleaved line %q", l)
	}
}

func TestVerboseShowsSilent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(NewConsoleLogger(&buf, true), DefaultPolicy())
	r.Report(SkippedEvent, "a.js", 1, 2, "Skipped unrecognized/private event emitter")
	assert.Contains(t, buf.String(), "Skipped unrecognized/private event emitter")
}

func TestLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Diagnostic{}.Location())
	assert.Equal(t, "a.js", Diagnostic{File: "a.js"}.Location())
	assert.Equal(t, "a.js:2:3", Diagnostic{File: "a.js", Line: 2, Column: 3}.Location())
	assert.Equal(t, "boom (a.js)", Diagnostic{File: "a.js", Message: "boom"}.String())
}
