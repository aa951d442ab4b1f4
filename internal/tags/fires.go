package tags

import (
	"strings"

	"github.com/phobologic/metadoc/internal/model"
)

func applyFires(call *Call, target model.Entity) error {
	t := call.Tag
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrMissingName
	}

	var events *model.Map[*model.Event]
	switch e := target.(type) {
	case *model.Class:
		events = &e.Events
	case *model.Method:
		events = &e.Events
	case *model.Namespace:
		events = &e.Events
	default:
		return ErrUnsupportedTarget
	}

	ev, ok := events.Get(name)
	if !ok {
		ev = model.NewEvent(name)
		b := target.Base()
		ev.Start, ev.End = b.Start, b.End
		ev.SourceFile = b.SourceFile
		ev.SetParent(target)
		events.Set(name, ev)
	}
	describe(&ev.Snippet, t.Description)
	ev.Code = t.Source

	for i, decl := range payloadDecls(t.Type, t.Options) {
		label, datatype := payloadName(i), decl
		if n, d, ok := strings.Cut(decl, ":"); ok {
			label, datatype = strings.TrimSpace(n), strings.TrimSpace(d)
		}
		p, ok := ev.Parameters.Get(label)
		if !ok {
			if i < ev.Parameters.Len() {
				p = ev.Parameters.Values()[i]
				model.Relabel(p, label)
			} else {
				p = model.NewParameter(label)
				ev.AddParameter(p)
			}
		}
		p.SetDatatype(datatype)
	}
	return nil
}

// payloadDecls splits `{name:type, type}` (or the options list when the
// type is empty) into individual declarations.
func payloadDecls(typ string, options []string) []string {
	var raw []string
	if typ = strings.TrimSpace(typ); typ != "" {
		raw = strings.Split(typ, ",")
	} else {
		raw = options
	}
	out := raw[:0:0]
	for _, d := range raw {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
