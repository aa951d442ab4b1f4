package tags

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/model"
)

var tagMarkerRe = regexp.MustCompile(`^@\S+\s*`)

// Info is an entry of the `info` tag list.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

func applyClass(call *Call, target model.Entity) error {
	c, ok := target.(*model.Class)
	if !ok {
		return ErrUnsupportedTarget
	}
	t := call.Tag
	if t.Name != "" && !registered(call, c) {
		c.Label = t.Name
	}
	describe(&c.Snippet, t.Description)
	call.State.Last = c
	return nil
}

func registered(call *Call, c *model.Class) bool {
	got, ok := call.Session.Classes.Get(c.Label)
	return ok && got == c
}

func applyMethod(call *Call, target model.Entity) error {
	t := call.Tag
	switch e := target.(type) {
	case *model.Method:
		model.Relabel(e, t.Name)
		describe(&e.Snippet, t.Description)
		call.State.Last = e
	case *model.Property:
		m, err := convertToMethod(call, e, t.Name)
		if err != nil {
			return err
		}
		describe(&m.Snippet, t.Description)
		call.State.Last = m
	case model.Container:
		if t.Name == "" {
			return ErrMissingName
		}
		m := memberMethod(call, e, t.Name)
		describe(&m.Snippet, t.Description)
		call.Created = m
		call.State.Last = m
	default:
		return ErrUnsupportedTarget
	}
	return nil
}

func applyConstructor(call *Call, target model.Entity) error {
	t := call.Tag
	var m *model.Method
	switch e := target.(type) {
	case *model.Method:
		m = e
		model.Relabel(m, "constructor")
	case *model.Property:
		var err error
		if m, err = convertToMethod(call, e, "constructor"); err != nil {
			return err
		}
	case *model.Class:
		m = memberMethod(call, e, "constructor")
		call.Created = m
	default:
		return ErrUnsupportedTarget
	}
	m.MethodKind = model.MethodConstructor
	describe(&m.Snippet, strings.TrimSpace(t.Name+" "+t.Description))
	call.State.Last = m
	return nil
}

// convertToMethod replaces property p in its container with a method that
// keeps its position and code. The new method receives the following tags.
func convertToMethod(call *Call, p *model.Property, label string) (*model.Method, error) {
	owner, ok := p.Parent().(model.Container)
	if !ok {
		return nil, ErrUnsupportedTarget
	}
	if label == "" {
		label = p.Label
	}
	m := model.NewMethod(label)
	m.Description = p.Description
	m.Code = p.Code
	m.Start, m.End = p.Start, p.End
	m.SourceFile = p.SourceFile
	m.Private = p.Private
	m.Readable, m.Writable = p.Readable, p.Writable
	owner.RemoveProperty(p.Label)
	owner.AddMethod(m)
	call.Created = m
	return m, nil
}

func memberMethod(call *Call, owner model.Container, label string) *model.Method {
	if m, ok := owner.Method(label); ok {
		return m
	}
	m := model.NewMethod(label)
	placeAtComment(call, &m.Snippet)
	owner.AddMethod(m)
	return m
}

func memberProperty(call *Call, owner model.Container, label string) *model.Property {
	if p, ok := owner.Property(label); ok {
		return p
	}
	p := model.NewProperty(label)
	placeAtComment(call, &p.Snippet)
	p.Readable, p.Writable = true, true
	owner.PlaceProperty(p, "")
	return p
}

func placeAtComment(call *Call, s *model.Snippet) {
	s.SourceFile = call.File
	if call.Comment != nil {
		s.Start = model.Position{Line: call.Comment.StartLine}
		s.End = model.Position{Line: call.Comment.EndLine}
	}
}

func applyProperty(call *Call, target model.Entity) error {
	t := call.Tag
	switch e := target.(type) {
	case *model.Property:
		describeProperty(call, e)
	case *model.Parameter:
		describeParameter(call, e)
	case *model.TypeDefinition:
		if t.Name == "" {
			return ErrMissingName
		}
		p, ok := e.Properties.Get(t.Name)
		if !ok {
			p = model.NewProperty(t.Name)
			placeAtComment(call, &p.Snippet)
			p.Readable, p.Writable = true, true
			e.AddProperty(p)
		}
		describeProperty(call, p)
	case model.Container:
		if t.Name == "" {
			return ErrMissingName
		}
		describeProperty(call, memberProperty(call, e, t.Name))
	default:
		return ErrUnsupportedTarget
	}
	return nil
}

func describeProperty(call *Call, p *model.Property) {
	t := call.Tag
	model.Relabel(p, t.Name)
	describe(&p.Snippet, t.Description)
	if t.Type != "" {
		p.SetDatatype(t.Type)
	}
	p.Required = t.Required()
	if t.HasDefault {
		p.SetDefault(parseDefault(t.Default))
	}
	if len(t.Options) > 0 {
		p.Enum = t.Options
	}
	if p.Code == "" {
		reportNoCode(call, p.Label, p.Start.Line)
	}
}

func reportNoCode(call *Call, label string, line int) {
	if line > 0 {
		call.report(diag.NoSourceCode, line, 0, "No source code found for %q parameter near %s:%d", label, call.File, line)
		return
	}
	call.report(diag.NoSourceCode, call.Tag.Line, 0, "No source code found for %q parameter in %s", label, call.File)
}

type cfgProcessor struct {
	readable bool
}

func (c cfgProcessor) Apply(call *Call, target model.Entity) error {
	var p *model.Property
	switch e := target.(type) {
	case *model.Property:
		p = e
	case *model.Class:
		if call.Tag.Name == "" {
			return ErrMissingName
		}
		p = memberProperty(call, e, call.Tag.Name)
	default:
		return ErrUnsupportedTarget
	}
	describeProperty(call, p)
	p.Configuration = true
	p.Writable = false
	p.Readable = c.readable
	if owner, ok := p.Parent().(model.Container); ok {
		owner.PlaceProperty(p, "")
	}
	return nil
}

type accessProcessor struct {
	readable, writable bool
}

func (a accessProcessor) Apply(_ *Call, target model.Entity) error {
	switch e := target.(type) {
	case *model.Property:
		e.Readable, e.Writable = a.readable, a.writable
	case *model.Method:
		e.Readable, e.Writable = a.readable, a.writable
	default:
		return ErrUnsupportedTarget
	}
	return nil
}

func applyReturn(call *Call, target model.Entity) error {
	m, ok := target.(*model.Method)
	if !ok {
		return ErrUnsupportedTarget
	}
	t := call.Tag
	if t.Type != "" {
		m.ReturnType = t.Type
	}
	if desc := strings.TrimSpace(t.Name + " " + t.Description); desc != "" {
		m.ReturnDescription = desc
	}
	return nil
}

func applyPrivate(_ *Call, target model.Entity) error {
	target.Base().Private = true
	return nil
}

func applyHidden(_ *Call, target model.Entity) error {
	target.Base().Hidden = true
	return nil
}

func applyIgnore(call *Call, target model.Entity) error {
	b := target.Base()
	b.Ignored = true
	call.report(diag.Ignored, call.Tag.Line, 0, "Ignored %s %s", target.Kind(), b.Label)
	return nil
}

func applyFlag(call *Call, target model.Entity) error {
	v := call.Tag.Name
	if v == "" {
		v = call.Tag.Description
	}
	if v == "" {
		return ErrMissingName
	}
	target.Base().Flags.Add(v)
	return nil
}

func applyTodo(call *Call, target model.Entity) error {
	target.Base().Todo.Add(stripMarker(call.Tag.Source))
	return nil
}

func applyAuthor(call *Call, target model.Entity) error {
	target.Base().Authors.Add(stripMarker(call.Tag.Source))
	return nil
}

func stripMarker(source string) string {
	return strings.TrimSpace(tagMarkerRe.ReplaceAllString(source, ""))
}

func applyInfo(call *Call, target model.Entity) error {
	body := stripMarker(call.Tag.Source)
	item := Info{Title: "Unknown", Description: body}
	if title, rest, ok := strings.Cut(body, "\n"); ok {
		item = Info{Title: strings.TrimSpace(title), Description: strings.TrimSpace(rest)}
	}

	tags := &target.Base().Tags
	var list []Info
	if existing, ok := tags.Get("info"); ok {
		list, _ = existing.([]Info)
	}
	tags.Set("info", append(list, item))
	return nil
}

func applyExtends(call *Call, target model.Entity) error {
	c, ok := target.(*model.Class)
	if !ok {
		return ErrUnsupportedTarget
	}
	name := call.Tag.Name
	if name == "" {
		name = call.Tag.Type
	}
	if name == "" {
		return ErrMissingName
	}
	c.Extends = name
	return nil
}

func applyNamespace(call *Call, _ model.Entity) error {
	name := strings.TrimSpace(call.Tag.Name)
	if name == "" {
		return ErrMissingName
	}
	ns := call.Session.AddNamespace(name)
	if ns == nil {
		return ErrMissingName
	}
	describe(&ns.Snippet, call.Tag.Description)
	if ns.SourceFile == "" {
		placeAtComment(call, &ns.Snippet)
	}
	call.State.Last = ns
	call.Created = ns
	return nil
}

func applyTypedef(call *Call, _ model.Entity) error {
	t := call.Tag
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrMissingName
	}
	def := call.Session.AddTypeDefinition(name)
	describe(&def.Snippet, t.Description)
	if def.SourceFile == "" {
		placeAtComment(call, &def.Snippet)
		def.Code = t.Source
	}
	for _, typ := range strings.Split(t.Type, "|") {
		if typ = strings.TrimSpace(typ); typ != "" {
			def.Types = append(def.Types, typ)
		}
	}
	if len(t.Options) > 0 {
		def.Enum = t.Options
	}
	call.Created = def
	return nil
}

func applySingleton(_ *Call, target model.Entity) error {
	c, ok := target.(*model.Class)
	if !ok {
		return ErrUnsupportedTarget
	}
	c.Singleton = true
	return nil
}

func applyException(call *Call, target model.Entity) error {
	t := call.Tag
	name := t.Name
	if name == "" {
		name = t.Type
	}
	if name == "" {
		return ErrMissingName
	}
	ex := model.NewException()
	ex.Label = name
	ex.Name = name
	if t.Type != "" {
		ex.ErrorType = t.Type
	}
	ex.Description = t.Description
	ex.Code = t.Source
	placeAtComment(call, &ex.Snippet)
	target.Base().Exceptions.Set(name, ex)
	return nil
}

func describe(s *model.Snippet, desc string) {
	if desc != "" {
		s.Description = desc
	}
}

// parseDefault converts the default text of `[name=value]` to a value.
func parseDefault(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// payloadName is the synthesized name of the i-th unnamed event argument.
func payloadName(i int) string {
	if i == 0 {
		return "payload"
	}
	return fmt.Sprintf("payload%d", i+1)
}

// PayloadName is exported for the code walker, which names emitted
// arguments the same way.
func PayloadName(i int) string { return payloadName(i) }
