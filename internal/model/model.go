// Package model defines the entity graph extracted from annotated sources.
package model

import (
	"slices"
	"strings"
)

// Kind discriminates the entity variants in serialized output.
type Kind string

const (
	KindClass     Kind = "class"
	KindMethod    Kind = "method"
	KindProperty  Kind = "property"
	KindArgument  Kind = "argument"
	KindEvent     Kind = "event"
	KindException Kind = "exception"
	KindNamespace Kind = "namespace"
	KindDatatype  Kind = "datatype"
)

// MethodKind distinguishes plain methods, constructors and accessors.
type MethodKind string

const (
	MethodPlain       MethodKind = "method"
	MethodConstructor MethodKind = "constructor"
	MethodGetter      MethodKind = "get"
	MethodSetter      MethodKind = "set"
)

// DefaultDatatype is used when nothing better can be inferred.
const DefaultDatatype = "any"

// Position is a 1-based line and 0-based column.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Entity is implemented by every documentable variant.
type Entity interface {
	Kind() Kind
	Base() *Snippet
	Data() any
}

// Container is an entity that can hold methods and properties.
type Container interface {
	Entity
	AddMethod(m *Method)
	Method(name string) (*Method, bool)
	PlaceProperty(p *Property, previous string)
	Property(name string) (*Property, bool)
	RemoveProperty(name string)
	Member(line int) Entity
}

// Snippet holds the attributes shared by every entity.
type Snippet struct {
	Label       string
	Description string
	Code        string
	Start       Position
	End         Position
	SourceFile  string

	Tags       Map[any]
	Exceptions Map[*Exception]
	Events     Map[*Event]

	Private bool
	Hidden  bool
	Ignored bool
	Flags   Set
	Todo    Set
	Authors Set

	Super    string
	Override bool

	parent    Entity
	inherited bool
}

// Base returns the shared attributes.
func (s *Snippet) Base() *Snippet { return s }

// Parent returns the owning entity, if any.
func (s *Snippet) Parent() Entity { return s.parent }

// SetParent records the owning entity.
func (s *Snippet) SetParent(e Entity) { s.parent = e }

// Inherited reports whether the entity is a copy installed by inheritance.
func (s *Snippet) Inherited() bool { return s.inherited }

// Contains reports whether line lies strictly inside the snippet's span.
func (s *Snippet) Contains(line int) bool {
	return s.Start.Line < line && line < s.End.Line
}

// AddEvent registers e unless an event with the same label exists.
// It reports whether e was added.
func (s *Snippet) AddEvent(e *Event) bool {
	if e == nil || e.Label == "" || s.Events.Has(e.Label) {
		return false
	}
	s.Events.Set(e.Label, e)
	return true
}

// detach gives s its own copies of the shared containers.
func (s *Snippet) detach() {
	s.Tags = s.Tags.Clone()
	s.Exceptions = s.Exceptions.Clone()
	s.Events = s.Events.Clone()
	s.Flags = s.Flags.Clone()
	s.Todo = s.Todo.Clone()
	s.Authors = s.Authors.Clone()
}

func (s *Snippet) inheritFrom(super string) {
	s.detach()
	s.Super = super
	s.Override = false
	s.inherited = true
}

// Class is a class declaration.
type Class struct {
	Snippet
	Extends   string
	CodeName  string
	Singleton bool

	Configuration Map[*Property]
	Properties    Map[*Property]
	Methods       Map[*Method]
}

// NewClass returns an empty class.
func NewClass(label string) *Class {
	return &Class{Snippet: Snippet{Label: label}, CodeName: label}
}

func (c *Class) Kind() Kind { return KindClass }

// AddMethod adds m, replacing any method with the same label.
func (c *Class) AddMethod(m *Method) {
	m.SetParent(c)
	c.Methods.Set(m.Label, m)
}

// PlaceProperty stores p in the property and configuration maps according
// to its flags. previous is the label p was stored under before, if it changed.
func (c *Class) PlaceProperty(p *Property, previous string) {
	p.SetParent(c)
	if previous != "" && previous != p.Label {
		c.Properties.Rename(previous, p.Label)
		c.Configuration.Rename(previous, p.Label)
	}
	if !p.Configuration {
		c.Configuration.Delete(p.Label)
		c.Properties.Set(p.Label, p)
		return
	}
	c.Configuration.Set(p.Label, p)
	if p.Readable {
		c.Properties.Set(p.Label, p)
	} else {
		c.Properties.Delete(p.Label)
	}
}

// Property returns the property labelled name from either member map.
func (c *Class) Property(name string) (*Property, bool) {
	if p, ok := c.Properties.Get(name); ok {
		return p, true
	}
	return c.Configuration.Get(name)
}

// RemoveProperty deletes name from both member maps.
func (c *Class) RemoveProperty(name string) {
	c.Properties.Delete(name)
	c.Configuration.Delete(name)
}

// Method returns the method labelled name.
func (c *Class) Method(name string) (*Method, bool) { return c.Methods.Get(name) }

// BubbleEvents copies every method event into the class event map.
func (c *Class) BubbleEvents() {
	for _, m := range c.Methods.All() {
		for _, e := range m.Events.All() {
			c.AddEvent(e)
		}
	}
}

// Member returns the most deeply nested member containing line. It returns
// the class itself when no member does and nil when the class does not.
func (c *Class) Member(line int) Entity {
	if !c.Contains(line) {
		return nil
	}
	for _, m := range c.Methods.All() {
		if !m.Inherited() && m.Contains(line) {
			return m
		}
	}
	for _, p := range c.Properties.All() {
		if !p.Inherited() && p.Contains(line) {
			return p
		}
	}
	for _, p := range c.Configuration.All() {
		if !p.Inherited() && p.Contains(line) {
			return p
		}
	}
	return c
}

// Namespace groups classes and nested namespaces under a dotted label.
type Namespace struct {
	Snippet
	Namespaces Map[*Namespace]
	Classes    Set
	Properties Map[*Property]
	Methods    Map[*Method]
}

// NewNamespace returns an empty namespace.
func NewNamespace(label string) *Namespace {
	return &Namespace{Snippet: Snippet{Label: label}}
}

func (n *Namespace) Kind() Kind { return KindNamespace }

func (n *Namespace) AddMethod(m *Method) {
	m.SetParent(n)
	n.Methods.Set(m.Label, m)
}

func (n *Namespace) PlaceProperty(p *Property, previous string) {
	p.SetParent(n)
	if previous != "" && previous != p.Label {
		n.Properties.Rename(previous, p.Label)
	}
	n.Properties.Set(p.Label, p)
}

func (n *Namespace) Property(name string) (*Property, bool) { return n.Properties.Get(name) }

func (n *Namespace) RemoveProperty(name string) { n.Properties.Delete(name) }

func (n *Namespace) Method(name string) (*Method, bool) { return n.Methods.Get(name) }

// Namespaces hold no source span of their own.
func (n *Namespace) Member(int) Entity { return nil }

// Method is a function member.
type Method struct {
	Snippet
	Parameters        Map[*Parameter]
	ReturnType        string
	ReturnDescription string
	MethodKind        MethodKind
	Generator         bool
	Static            bool
	Computed          bool
	Async             bool
	Readable          bool
	Writable          bool
}

// NewMethod returns a plain method.
func NewMethod(label string) *Method {
	return &Method{Snippet: Snippet{Label: label}, MethodKind: MethodPlain}
}

func (m *Method) Kind() Kind { return KindMethod }

// AddParameter appends p, replacing a parameter with the same label.
func (m *Method) AddParameter(p *Parameter) {
	p.SetParent(m)
	m.Parameters.Set(p.Label, p)
}

// Inherit returns a copy of m installed on a subclass.
func (m *Method) Inherit(super string) *Method {
	cp := m.clone()
	cp.inheritFrom(super)
	return cp
}

func (m *Method) clone() *Method {
	cp := *m
	cp.detach()
	cp.Parameters = Map[*Parameter]{}
	for _, p := range m.Parameters.All() {
		param := p.clone()
		if param.Callback != nil {
			param.Callback.SetParent(&cp)
		}
		cp.AddParameter(param)
	}
	return &cp
}

// Parameter is a declared or documented function argument.
type Parameter struct {
	Snippet
	Default    any
	HasDefault bool
	Required   bool
	Datatype   string
	Enum       []string
	Callback   *Method
}

// NewParameter returns a required parameter of unknown type.
func NewParameter(label string) *Parameter {
	return &Parameter{Snippet: Snippet{Label: label}, Required: true, Datatype: DefaultDatatype}
}

func (p *Parameter) Kind() Kind { return KindArgument }

// SetDatatype stores a normalized datatype name.
func (p *Parameter) SetDatatype(s string) { p.Datatype = normalizeDatatype(s) }

// SetDefault records a default value, which also makes the parameter optional.
func (p *Parameter) SetDefault(v any) {
	p.Default = v
	p.HasDefault = true
	p.Required = false
}

func (p *Parameter) clone() *Parameter {
	cp := *p
	cp.detach()
	cp.Enum = slices.Clone(p.Enum)
	if p.Callback != nil {
		cp.Callback = p.Callback.clone()
	}
	return &cp
}

// Property is a readable or writable class member.
type Property struct {
	Snippet
	Default       any
	HasDefault    bool
	Datatype      string
	Readable      bool
	Writable      bool
	Configuration bool
	Static        bool
	Required      bool
	Enum          []string
}

// NewProperty returns a property of unknown type.
func NewProperty(label string) *Property {
	return &Property{Snippet: Snippet{Label: label}, Datatype: DefaultDatatype}
}

func (p *Property) Kind() Kind { return KindProperty }

// SetDatatype stores a normalized datatype name.
func (p *Property) SetDatatype(s string) { p.Datatype = normalizeDatatype(s) }

// SetDefault records a default value.
func (p *Property) SetDefault(v any) {
	p.Default = v
	p.HasDefault = true
}

// Inherit returns a copy of p installed on a subclass.
func (p *Property) Inherit(super string) *Property {
	cp := *p
	cp.inheritFrom(super)
	cp.Enum = slices.Clone(p.Enum)
	return &cp
}

// Event is an emitted event.
type Event struct {
	Snippet
	Parameters             Map[*Parameter]
	Deprecated             bool
	DeprecationReplacement string
}

// NewEvent returns an event with no payload.
func NewEvent(label string) *Event {
	return &Event{Snippet: Snippet{Label: label}}
}

func (e *Event) Kind() Kind { return KindEvent }

// AddParameter appends a payload parameter.
func (e *Event) AddParameter(p *Parameter) {
	p.SetParent(e)
	e.Parameters.Set(p.Label, p)
}

// Inherit returns a copy of e installed on a subclass.
func (e *Event) Inherit(super string) *Event {
	cp := *e
	cp.inheritFrom(super)
	cp.Parameters = Map[*Parameter]{}
	for _, p := range e.Parameters.All() {
		cp.AddParameter(p.clone())
	}
	return &cp
}

// Exception describes an error constructed through the framework factory
// or documented by a tag.
type Exception struct {
	Snippet
	Name      string
	ErrorType string
	Severity  string
	Message   string
	Category  string
}

// NewException returns an exception populated with the framework defaults.
func NewException() *Exception {
	return &Exception{
		Snippet:   Snippet{Label: "NgnError"},
		Name:      "NgnError",
		ErrorType: "TypeError",
		Severity:  "minor",
		Message:   "Unknown Error",
		Category:  "operational",
	}
}

func (e *Exception) Kind() Kind { return KindException }

// TypeDefinition is a named reusable type shape.
type TypeDefinition struct {
	Snippet
	Types      []string
	Enum       []string
	Properties Map[*Property]
}

// NewTypeDefinition returns an empty type definition.
func NewTypeDefinition(label string) *TypeDefinition {
	return &TypeDefinition{Snippet: Snippet{Label: label}}
}

func (t *TypeDefinition) Kind() Kind { return KindDatatype }

// AddProperty adds p to the shape.
func (t *TypeDefinition) AddProperty(p *Property) {
	p.SetParent(t)
	t.Properties.Set(p.Label, p)
}

func normalizeDatatype(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultDatatype
	}
	return s
}

// DeprecateEvent marks original as deprecated in favour of replacement.
// Missing events are created from site, which carries the position of the
// deprecation call.
func DeprecateEvent(events *Map[*Event], original, replacement string, site Snippet) {
	orig, ok := events.Get(original)
	if !ok {
		orig = &Event{Snippet: site}
		orig.Label = original
		events.Set(original, orig)
	}
	orig.Deprecated = true
	orig.DeprecationReplacement = replacement
	if orig.Description == "" {
		orig.Description = "Deprecated"
	}
	if replacement == "" || events.Has(replacement) {
		return
	}
	repl := &Event{Snippet: site}
	repl.Label = replacement
	repl.Description = "Replacement for " + original
	events.Set(replacement, repl)
}

// Relabel changes the label of e and re-keys it in its parent's maps,
// keeping its position.
func Relabel(e Entity, label string) {
	b := e.Base()
	old := b.Label
	if label == "" || label == old {
		return
	}
	b.Label = label
	switch p := b.parent.(type) {
	case *Class:
		switch e.(type) {
		case *Method:
			p.Methods.Rename(old, label)
		case *Property:
			p.Properties.Rename(old, label)
			p.Configuration.Rename(old, label)
		case *Event:
			p.Events.Rename(old, label)
		}
	case *Namespace:
		switch e.(type) {
		case *Method:
			p.Methods.Rename(old, label)
		case *Property:
			p.Properties.Rename(old, label)
		case *Namespace:
			p.Namespaces.Rename(old, label)
		}
	case *Method:
		switch e.(type) {
		case *Parameter:
			p.Parameters.Rename(old, label)
		case *Event:
			p.Events.Rename(old, label)
		}
	case *Event:
		p.Parameters.Rename(old, label)
	case *TypeDefinition:
		p.Properties.Rename(old, label)
	}
}
