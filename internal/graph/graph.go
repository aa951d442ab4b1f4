// Package graph resolves the class hierarchy and namespace membership once
// every file has been registered.
package graph

import (
	"strings"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
)

// Structure runs the structuring pass over the session: events bubble up
// from methods, subclasses receive copies of inherited members, and every
// class is listed under its namespace.
func Structure(s *session.Session) {
	for _, c := range s.Classes.Values() {
		c.BubbleEvents()
	}

	order, parents := Order(s)
	for _, c := range order {
		if parent := parents[c]; parent != nil {
			inherit(c, parent)
		}
	}

	for _, c := range s.Classes.Values() {
		associate(s, c)
	}
}

// Order returns the registered classes with every ancestor ahead of its
// descendants, along with the resolved superclass of each class. Missing
// superclasses and cycles are reported; the edge closing a cycle is cut.
func Order(s *session.Session) ([]*model.Class, map[*model.Class]*model.Class) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*model.Class]int)
	parents := make(map[*model.Class]*model.Class)
	order := make([]*model.Class, 0, s.Classes.Len())

	var visit func(c *model.Class)
	visit = func(c *model.Class) {
		state[c] = visiting
		if c.Extends != "" {
			parent, ok := s.Class(c.Extends)
			switch {
			case !ok:
				s.Diag.Report(diag.Inheritance, c.SourceFile, c.Start.Line, c.Start.Column,
					"Superclass %s of %s could not be found", c.Extends, c.Label)
			case parent == c || state[parent] == visiting:
				s.Diag.Report(diag.Inheritance, c.SourceFile, c.Start.Line, c.Start.Column,
					"Circular inheritance detected: %s extends %s", c.Label, parent.Label)
			default:
				parents[c] = parent
				if state[parent] == 0 {
					visit(parent)
				}
			}
		}
		state[c] = done
		order = append(order, c)
	}

	for _, c := range s.Classes.Values() {
		if state[c] == 0 {
			visit(c)
		}
	}
	return order, parents
}

// inherit installs copies of the members of parent on c. parent has already
// received its own inherited members, so the whole chain is covered.
func inherit(c, parent *model.Class) {
	for name, m := range parent.Methods.All() {
		if m.MethodKind == model.MethodConstructor || name == "constructor" {
			continue
		}
		super := origin(parent, &m.Snippet, name)
		if own, ok := c.Methods.Get(name); ok {
			markOverride(&own.Snippet, super)
			continue
		}
		cp := m.Inherit(super)
		cp.SetParent(c)
		c.Methods.Set(name, cp)
	}

	inheritProperties(c, &c.Properties, &parent.Properties, parent)
	inheritProperties(c, &c.Configuration, &parent.Configuration, parent)

	for name, e := range parent.Events.All() {
		super := origin(parent, &e.Snippet, name)
		if own, ok := c.Events.Get(name); ok {
			markOverride(&own.Snippet, super)
			continue
		}
		cp := e.Inherit(super)
		cp.SetParent(c)
		c.Events.Set(name, cp)
	}
}

func inheritProperties(c *model.Class, dst *model.Map[*model.Property], src *model.Map[*model.Property], parent *model.Class) {
	for name, p := range src.All() {
		super := origin(parent, &p.Snippet, name)
		if own, ok := dst.Get(name); ok {
			markOverride(&own.Snippet, super)
			continue
		}
		cp := p.Inherit(super)
		cp.SetParent(c)
		dst.Set(name, cp)
	}
}

// origin is the Ancestor#member reference of a member found on parent.
// Members parent inherited itself keep pointing at the class declaring them.
func origin(parent *model.Class, s *model.Snippet, name string) string {
	if s.Inherited() && s.Super != "" {
		return s.Super
	}
	return parent.Label + "#" + name
}

func markOverride(own *model.Snippet, super string) {
	if own.Inherited() {
		return
	}
	own.Override = true
	own.Super = super
}

// associate lists c under the namespace derived from its label.
func associate(s *session.Session, c *model.Class) {
	path, name := session.GlobalNamespace, c.Label
	if i := strings.LastIndex(c.Label, "."); i > 0 {
		path, name = c.Label[:i], c.Label[i+1:]
	}
	s.AddNamespace(path).Classes.Add(name)
}
