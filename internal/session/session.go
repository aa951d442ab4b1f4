// Package session holds the cross-file registries of one build.
package session

import (
	"errors"
	"strings"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/model"
)

// ErrDuplicateClass is returned when a class label is registered twice.
var ErrDuplicateClass = errors.New("duplicate class")

// GlobalNamespace receives classes whose label has no namespace prefix.
const GlobalNamespace = "global"

// Deprecation records a bus-level deprecate call.
type Deprecation struct {
	Original    string
	Replacement string
	Site        model.Snippet
}

// Session is the build context shared by every component of one run.
type Session struct {
	Classes    model.Map[*model.Class]
	Namespaces model.Map[*model.Namespace]
	Exceptions model.Map[*model.Exception]
	Types      model.Map[*model.TypeDefinition]
	Requires   model.Set
	Globals    model.Set
	Files      int
	Diag       *diag.Reporter

	bus          model.Map[*model.Event]
	deprecations []Deprecation
	codeNames    map[string]string
}

// New returns an empty session reporting through r.
func New(r *diag.Reporter) *Session {
	if r == nil {
		r = diag.Discard()
	}
	return &Session{Diag: r, codeNames: make(map[string]string)}
}

// RegisterClass adds c to the class registry after bubbling its method
// events. The first declaration of a label wins.
func (s *Session) RegisterClass(c *model.Class) error {
	c.BubbleEvents()
	if s.Classes.Has(c.Label) {
		s.Diag.Report(diag.DuplicateClass, c.SourceFile, c.Start.Line, c.Start.Column,
			"Duplicate class detected: %s cannot be redefined", c.Label)
		return ErrDuplicateClass
	}
	s.Classes.Set(c.Label, c)
	if c.CodeName != "" {
		if _, ok := s.codeNames[c.CodeName]; !ok {
			s.codeNames[c.CodeName] = c.Label
		}
	}
	return nil
}

// Class looks a class up by label, falling back to its declared code name.
func (s *Session) Class(name string) (*model.Class, bool) {
	if c, ok := s.Classes.Get(name); ok {
		return c, true
	}
	if label, ok := s.codeNames[name]; ok {
		return s.Classes.Get(label)
	}
	return nil, false
}

// ClassesIn returns the registered classes declared in file.
func (s *Session) ClassesIn(file string) []*model.Class {
	var out []*model.Class
	for _, c := range s.Classes.All() {
		if c.SourceFile == file {
			out = append(out, c)
		}
	}
	return out
}

// AddNamespace returns the namespace at the dotted path, creating every
// missing segment.
func (s *Session) AddNamespace(path string) *model.Namespace {
	var (
		level = &s.Namespaces
		ns    *model.Namespace
	)
	for _, seg := range strings.Split(path, ".") {
		if seg = strings.TrimSpace(seg); seg == "" {
			continue
		}
		next, ok := level.Get(seg)
		if !ok {
			next = model.NewNamespace(seg)
			if ns != nil {
				next.SetParent(ns)
			}
			level.Set(seg, next)
		}
		ns = next
		level = &next.Namespaces
	}
	return ns
}

// Namespace returns the namespace at the dotted path without creating it.
func (s *Session) Namespace(path string) (*model.Namespace, bool) {
	var (
		level = &s.Namespaces
		ns    *model.Namespace
	)
	for _, seg := range strings.Split(path, ".") {
		next, ok := level.Get(seg)
		if !ok {
			return nil, false
		}
		ns = next
		level = &next.Namespaces
	}
	return ns, ns != nil
}

// AddTypeDefinition returns the type definition named name, creating it.
// Definitions are keyed by lower-cased name.
func (s *Session) AddTypeDefinition(name string) *model.TypeDefinition {
	key := strings.ToLower(name)
	if def, ok := s.Types.Get(key); ok {
		return def
	}
	def := model.NewTypeDefinition(name)
	s.Types.Set(key, def)
	return def
}

// RegisterException adds e unless an exception with the same label exists.
func (s *Session) RegisterException(e *model.Exception) bool {
	if s.Exceptions.Has(e.Label) {
		return false
	}
	s.Exceptions.Set(e.Label, e)
	return true
}

// RegisterBusEvent adds e to the global event bus unless already present.
func (s *Session) RegisterBusEvent(e *model.Event) bool {
	if e.Label == "" || s.bus.Has(e.Label) {
		return false
	}
	s.bus.Set(e.Label, e)
	return true
}

// DeprecateBusEvent records a deprecation that is applied when the bus is read.
func (s *Session) DeprecateBusEvent(d Deprecation) {
	s.deprecations = append(s.deprecations, d)
}

// Bus returns the global event bus with every recorded deprecation applied.
func (s *Session) Bus() *model.Map[*model.Event] {
	for _, d := range s.deprecations {
		model.DeprecateEvent(&s.bus, d.Original, d.Replacement, d.Site)
	}
	return &s.bus
}
