package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/lang"
	"github.com/phobologic/metadoc/internal/model"
)

type accessFlags struct {
	readable, writable, private bool
}

// idiomFlags maps the property idioms of the framework namespace to the
// flags of the property they declare.
var idiomFlags = map[string]accessFlags{
	"public":       {readable: true, writable: true},
	"private":      {readable: true, writable: true, private: true},
	"const":        {readable: true},
	"privateconst": {readable: true, private: true},
	"get":          {readable: true},
	"set":          {writable: true},
	"getset":       {readable: true, writable: true},
	"define":       {readable: true},
}

func (w *walk) class(node *sitter.Node) {
	c := model.NewClass(compact(w.text(node.ChildByFieldName("name"))))
	w.place(&c.Snippet, node)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "class_heritage" {
			continue
		}
		if parts := lang.NamedChildren(child); len(parts) > 0 {
			c.Extends = compact(w.text(parts[0]))
		}
	}

	lines := []int{c.Start.Line}
	if body := node.ChildByFieldName("body"); body != nil {
		lines = append(lines, line(body))
		for _, member := range lang.NamedChildren(body) {
			switch member.Type() {
			case "method_definition":
				w.method(c, member)
			case "field_definition":
				w.field(c, member)
			}
		}
	}

	w.annotate(c, lines...)
	pruneIgnored(c)
	w.res.Classes = append(w.res.Classes, c)
}

// pruneIgnored drops members documented with an ignore tag.
func pruneIgnored(c *model.Class) {
	for _, label := range c.Methods.Keys() {
		if m, _ := c.Methods.Get(label); m.Ignored {
			c.Methods.Delete(label)
		}
	}
	for _, label := range c.Properties.Keys() {
		if p, _ := c.Properties.Get(label); p.Ignored {
			c.Properties.Delete(label)
		}
	}
	for _, label := range c.Configuration.Keys() {
		if p, _ := c.Configuration.Get(label); p.Ignored {
			c.Configuration.Delete(label)
		}
	}
}

// memberName returns the label of a property name node.
func (w *walk) memberName(n *sitter.Node) (label string, private, computed bool) {
	if n == nil {
		return "", false, false
	}
	switch n.Type() {
	case "private_property_identifier":
		return w.text(n), true, false
	case "computed_property_name":
		inner := strings.TrimSuffix(strings.TrimPrefix(w.text(n), "["), "]")
		if s, ok := w.stringLiteral(firstNamed(n)); ok {
			inner = s
		}
		return compact(inner), false, true
	case "string":
		s, _ := w.stringLiteral(n)
		return s, false, false
	}
	return w.text(n), false, false
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := lang.NamedChildren(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// modifiers reports the keyword tokens that precede a member name.
func modifiers(n *sitter.Node) map[string]bool {
	out := map[string]bool{}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.IsNamed() {
			continue
		}
		out[child.Type()] = true
	}
	return out
}

func (w *walk) method(c *model.Class, n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	label, private, computed := w.memberName(nameNode)
	mods := modifiers(n)
	body := n.ChildByFieldName("body")

	if mods["get"] || mods["set"] {
		w.accessor(c, n, label, mods, private, body)
		return
	}

	m := model.NewMethod(label)
	w.place(&m.Snippet, n)
	if label == "constructor" {
		m.MethodKind = model.MethodConstructor
	}
	m.Static = mods["static"]
	m.Async = mods["async"]
	m.Generator = mods["*"]
	m.Computed = computed
	m.Private = private

	w.parameters(m, n.ChildByFieldName("parameters"))
	w.returns(m, body)
	w.detectEvents(m, c, body)
	c.AddMethod(m)

	if m.MethodKind == model.MethodConstructor {
		w.constructor(c, body)
	}
	w.annotate(m, m.Start.Line)
	w.checkCallback(m)
}

// accessor merges a get or set member into the property of the same name.
func (w *walk) accessor(c *model.Class, n *sitter.Node, label string, mods map[string]bool, private bool, body *sitter.Node) {
	p, ok := c.Properties.Get(label)
	if !ok {
		p = model.NewProperty(label)
		w.place(&p.Snippet, n)
		p.Static = mods["static"]
		p.Private = private
		c.PlaceProperty(p, "")
	}
	if mods["get"] {
		p.Readable = true
		if dt := w.returnType(body); dt != "" {
			p.SetDatatype(dt)
		}
	} else {
		p.Writable = true
	}
	w.detectEvents(c, c, body)
	w.annotate(p, line(n))
}

func (w *walk) field(c *model.Class, n *sitter.Node) {
	nameNode := n.ChildByFieldName("property")
	if nameNode == nil {
		return
	}
	label, private, _ := w.memberName(nameNode)
	static := modifiers(n)["static"]
	value := n.ChildByFieldName("value")

	if value != nil && w.idiom(value) != "" {
		w.idiomMember(c, label, n, value, static)
		return
	}

	p := model.NewProperty(label)
	w.place(&p.Snippet, n)
	p.Readable, p.Writable = true, true
	p.Static = static
	p.Private = private
	if value != nil {
		if isFunction(value) {
			w.detectEvents(c, c, value.ChildByFieldName("body"))
		}
		w.assignValue(p, value)
	}
	c.PlaceProperty(p, "")
	w.annotate(p, p.Start.Line)
}

// constructor promotes `this.x = ...` assignments and property
// descriptors in the constructor body to properties.
func (w *walk) constructor(c *model.Class, body *sitter.Node) {
	for _, st := range lang.NamedChildren(body) {
		if st.Type() != "expression_statement" {
			continue
		}
		expr := firstNamed(st)
		if expr == nil {
			continue
		}
		switch expr.Type() {
		case "assignment_expression":
			w.thisAssignment(c, st, expr)
		case "call_expression":
			w.defineCall(c, expr)
		}
	}
}

func (w *walk) thisAssignment(c *model.Class, st, expr *sitter.Node) {
	left := expr.ChildByFieldName("left")
	if left == nil || left.Type() != "member_expression" {
		return
	}
	if obj := left.ChildByFieldName("object"); obj == nil || obj.Type() != "this" {
		return
	}
	prop := left.ChildByFieldName("property")
	if prop == nil {
		return
	}
	label, private, _ := w.memberName(prop)
	if _, exists := c.Property(label); exists {
		return
	}
	right := expr.ChildByFieldName("right")
	if right != nil && w.idiom(right) != "" {
		w.idiomMember(c, label, st, right, false)
		return
	}

	p := model.NewProperty(label)
	w.place(&p.Snippet, st)
	p.Readable, p.Writable = true, true
	p.Private = private
	if right != nil {
		w.assignValue(p, right)
	}
	c.PlaceProperty(p, "")
	w.annotate(p, p.Start.Line)
}

// defineCall handles Object.defineProperty(this, name, descriptor) and
// Object.defineProperties(this, {name: descriptor}).
func (w *walk) defineCall(c *model.Class, call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	args := lang.NamedChildren(call.ChildByFieldName("arguments"))
	if len(args) == 0 || args[0].Type() != "this" {
		return
	}

	switch strings.ToLower(w.text(fn.ChildByFieldName("property"))) {
	case "defineproperty":
		if len(args) != 3 {
			return
		}
		label, ok := w.stringLiteral(args[1])
		if !ok {
			return
		}
		w.describedMember(c, label, call, args[2])
	case "defineproperties":
		if len(args) != 2 || args[1].Type() != "object" {
			return
		}
		for _, pair := range lang.NamedChildren(args[1]) {
			if pair.Type() != "pair" {
				continue
			}
			label, _, _ := w.memberName(pair.ChildByFieldName("key"))
			w.describedMember(c, label, pair, pair.ChildByFieldName("value"))
		}
	}
}

func (w *walk) describedMember(c *model.Class, label string, site, value *sitter.Node) {
	if value == nil || label == "" {
		return
	}
	if _, exists := c.Property(label); exists {
		return
	}
	switch {
	case w.idiom(value) != "":
		w.idiomMember(c, label, site, value, false)
	case value.Type() == "object":
		w.descriptor(c, label, site, value)
	}
}

func (w *walk) descriptor(c *model.Class, label string, site, obj *sitter.Node) {
	p := model.NewProperty(label)
	w.place(&p.Snippet, site)

	for _, entry := range lang.NamedChildren(obj) {
		var key string
		var value *sitter.Node
		switch entry.Type() {
		case "pair":
			key, _, _ = w.memberName(entry.ChildByFieldName("key"))
			value = entry.ChildByFieldName("value")
		case "method_definition":
			key, _, _ = w.memberName(entry.ChildByFieldName("name"))
		default:
			continue
		}
		switch strings.ToLower(key) {
		case "enumerable":
			p.Private = value != nil && value.Type() == "false"
		case "writable":
			p.Writable = value != nil && value.Type() == "true"
		case "value":
			p.Readable = true
			if value != nil {
				w.assignValue(p, value)
			}
		case "get":
			p.Readable = true
		case "set":
			p.Writable = true
		}
	}

	c.PlaceProperty(p, "")
	w.annotate(p, p.Start.Line)
}

// idiom returns the lower-cased idiom name when n is a framework property
// declaration such as NGN.privateconst(...).
func (w *walk) idiom(n *sitter.Node) string {
	if n.Type() != "call_expression" {
		return ""
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return ""
	}
	if !strings.EqualFold(compact(w.text(fn.ChildByFieldName("object"))), w.opts.Namespace) {
		return ""
	}
	name := strings.ToLower(w.text(fn.ChildByFieldName("property")))
	if _, ok := idiomFlags[name]; !ok {
		return ""
	}
	return name
}

func (w *walk) idiomMember(c *model.Class, label string, site, call *sitter.Node, static bool) {
	kind := w.idiom(call)
	flags := idiomFlags[kind]
	args := lang.NamedChildren(call.ChildByFieldName("arguments"))

	if kind != "define" && len(args) > 0 && isFunction(args[0]) {
		m := model.NewMethod(label)
		w.place(&m.Snippet, site)
		m.Private = flags.private
		m.Readable, m.Writable = flags.readable, flags.writable
		m.Static = static
		w.parameters(m, functionParams(args[0]))
		w.returns(m, args[0].ChildByFieldName("body"))
		w.detectEvents(m, c, args[0].ChildByFieldName("body"))
		c.AddMethod(m)
		w.annotate(m, m.Start.Line)
		w.checkCallback(m)
		return
	}

	p := model.NewProperty(label)
	w.place(&p.Snippet, site)
	p.Readable, p.Writable, p.Private = flags.readable, flags.writable, flags.private
	p.Static = static
	switch {
	case kind == "define":
		if len(args) > 0 {
			p.Private = args[0].Type() == "true"
		}
		if len(args) > 1 {
			p.Writable = args[1].Type() == "true"
		}
		if len(args) > 3 {
			w.assignValue(p, args[3])
		}
	case len(args) > 0:
		w.assignValue(p, args[0])
	}
	c.PlaceProperty(p, "")
	w.annotate(p, p.Start.Line)
}

func (w *walk) checkCallback(m *model.Method) {
	for label, p := range m.Parameters.All() {
		if !strings.EqualFold(label, "callback") || p.Callback != nil || p.Datatype == "function" {
			continue
		}
		article := "a " + p.Datatype
		if p.Datatype == model.DefaultDatatype {
			article = "an unspecified/arbitrary"
		}
		w.ctx.Session.Diag.Report(diag.Callback, p.SourceFile, p.Start.Line, p.Start.Column,
			"%q attribute appears to be a callback function, but is defined as %s data type", label, article)
	}
}
