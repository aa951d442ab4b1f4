package tags

import (
	"strings"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/model"
)

// Cursor tracks which declared parameters have already been claimed by
// `param` tags of the current comment.
type Cursor struct {
	consumed map[*model.Parameter]bool
}

// take returns the parameter of m that a tag named name binds to: an
// unclaimed one with the same name ignoring case, else the next unclaimed
// declared one. It returns nil when neither exists.
func (c *Cursor) take(m *model.Method, name string) *model.Parameter {
	if c.consumed == nil {
		c.consumed = make(map[*model.Parameter]bool)
	}
	var next *model.Parameter
	for _, p := range m.Parameters.All() {
		if c.consumed[p] {
			continue
		}
		if strings.EqualFold(p.Label, name) {
			c.consumed[p] = true
			return p
		}
		if next == nil && p.Code != "" {
			next = p
		}
	}
	if next != nil {
		c.consumed[next] = true
	}
	return next
}

func (c *Cursor) claim(p *model.Parameter) {
	if c.consumed == nil {
		c.consumed = make(map[*model.Parameter]bool)
	}
	c.consumed[p] = true
}

func applyParam(call *Call, target model.Entity) error {
	switch e := target.(type) {
	case *model.Method:
		return bindParam(call, e)
	case *model.Event:
		if call.Tag.Name == "" {
			return ErrMissingName
		}
		p, ok := e.Parameters.Get(call.Tag.Name)
		if !ok {
			p = model.NewParameter(call.Tag.Name)
			e.AddParameter(p)
		}
		describeParameter(call, p)
		return nil
	case *model.TypeDefinition:
		return applyProperty(call, e)
	}
	return ErrUnsupportedTarget
}

func bindParam(call *Call, m *model.Method) error {
	name := strings.TrimSpace(call.Tag.Name)
	if name == "" {
		return ErrMissingName
	}

	if root, field, ok := strings.Cut(name, "."); ok {
		return bindCallbackParam(call, m, root, field)
	}

	p := call.Cursor.take(m, name)
	if p == nil {
		p = model.NewParameter(name)
		placeAtComment(call, &p.Snippet)
		m.AddParameter(p)
		call.Cursor.claim(p)
		reportNoCode(call, name, 0)
	}
	describeParameter(call, p)
	return nil
}

// bindCallbackParam attaches `root.field` to the callback signature of
// parameter root, creating both lazily.
func bindCallbackParam(call *Call, m *model.Method, root, field string) error {
	parent, ok := m.Parameters.Get(root)
	if !ok {
		parent = model.NewParameter(root)
		parent.SetDatatype("function")
		placeAtComment(call, &parent.Snippet)
		m.AddParameter(parent)
		call.Cursor.claim(parent)
	}
	if parent.Callback == nil {
		if parent.Datatype != "function" && parent.Datatype != model.DefaultDatatype {
			call.report(diag.Callback, call.Tag.Line, 0, "Parameter %q of %s is documented as %s but has callback arguments",
				root, m.Label, parent.Datatype)
		}
		cb := model.NewMethod(root)
		cb.Description = parent.Description
		cb.Code = parent.Code
		cb.Start, cb.End = parent.Start, parent.End
		cb.SourceFile = parent.SourceFile
		cb.SetParent(m)
		parent.Callback = cb
	}

	cb := parent.Callback
	if root, rest, ok := strings.Cut(field, "."); ok {
		return bindCallbackParam(call, cb, root, rest)
	}
	p, ok := cb.Parameters.Get(field)
	if !ok {
		p = model.NewParameter(field)
		placeAtComment(call, &p.Snippet)
		cb.AddParameter(p)
	}
	describeParameterAs(call, p, field)
	return nil
}

func describeParameter(call *Call, p *model.Parameter) {
	describeParameterAs(call, p, call.Tag.Name)
}

func describeParameterAs(call *Call, p *model.Parameter, label string) {
	t := call.Tag
	model.Relabel(p, label)
	describe(&p.Snippet, t.Description)
	if t.Type != "" {
		p.SetDatatype(t.Type)
	}
	if t.HasDefault {
		p.SetDefault(parseDefault(t.Default))
	}
	p.Required = t.Required() && !p.HasDefault
	if len(t.Options) > 0 {
		p.Enum = t.Options
	}
	if p.Callback != nil {
		p.Callback.Description = p.Description
	}
}
