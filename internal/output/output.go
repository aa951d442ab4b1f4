// Package output assembles the API document of a build and encodes it as
// JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
)

// Format selects the document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FileName returns the document file name for f.
func (f Format) FileName() string {
	if f == YAML {
		return "api.yaml"
	}
	return "api.json"
}

// Options selects the optional collections.
type Options struct {
	Requires bool
	Globals  bool
}

// Document is the serialized entity graph.
type Document struct {
	Classes    *model.Map[any] `json:"classes" yaml:"classes"`
	Exceptions *model.Map[any] `json:"exceptions" yaml:"exceptions"`
	Bus        *model.Map[any] `json:"bus" yaml:"bus"`
	Namespaces *model.Map[any] `json:"namespaces" yaml:"namespaces"`
	Types      *model.Map[any] `json:"types" yaml:"types"`
	Requires   []string        `json:"requires,omitempty" yaml:"requires,omitempty"`
	Globals    []string        `json:"globals,omitempty" yaml:"globals,omitempty"`
}

// Build serializes the registries of s.
func Build(s *session.Session, opts Options) *Document {
	doc := &Document{
		Classes:    model.DataOf(&s.Classes),
		Exceptions: model.DataOf(&s.Exceptions),
		Bus:        model.DataOf(s.Bus()),
		Namespaces: model.DataOf(&s.Namespaces),
		Types:      model.DataOf(&s.Types),
	}
	if opts.Requires {
		doc.Requires = s.Requires.Sorted()
	}
	if opts.Globals {
		doc.Globals = s.Globals.Sorted()
	}
	return doc
}

// Encode writes doc to w in format f.
func Encode(w io.Writer, doc *Document, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case JSON, "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Write encodes doc into dir, creating it when missing, and returns the
// path of the written file.
func Write(dir string, doc *Document, f Format) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, f); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	p := filepath.Join(dir, f.FileName())
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}
