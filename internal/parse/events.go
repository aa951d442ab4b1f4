package parse

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/lang"
	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
	"github.com/phobologic/metadoc/internal/tags"
)

var emitters = map[string]bool{
	"emit":          true,
	"delayemit":     true,
	"forward":       true,
	"funnel":        true,
	"funnelonce":    true,
	"threshold":     true,
	"thresholdonce": true,
	"deprecate":     true,
}

// detectEvents records the emissions found under body. Local emissions go
// to target. A nil target scans top-level code, where only bus emissions
// count; class declarations are skipped there since their members are
// scanned on their own.
func (w *walk) detectEvents(target model.Entity, cls *model.Class, body *sitter.Node) {
	visit(body, func(n *sitter.Node) bool {
		switch n.Type() {
		case "class_declaration", "class":
			return false
		case "call_expression":
			w.emission(target, cls, n)
		}
		return true
	})
}

func (w *walk) emission(target model.Entity, cls *model.Class, call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	method := strings.ToLower(w.text(fn.ChildByFieldName("property")))
	if !emitters[method] {
		return
	}
	args := lang.NamedChildren(call.ChildByFieldName("arguments"))
	if len(args) == 0 {
		return
	}

	obj := fn.ChildByFieldName("object")
	receiver := "this"
	if obj != nil && obj.Type() != "this" {
		receiver = compact(w.text(obj))
	}
	bus := receiver == w.opts.Bus
	local := receiver == "this" || (cls != nil && (receiver == cls.Label || receiver == cls.CodeName))
	switch {
	case target == nil && !bus:
		return
	case !bus && !local:
		w.report(diag.SkippedEvent, call, "Skipped unrecognized/private event emitter at %s", w.location(call))
		return
	}

	if method == "deprecate" {
		w.deprecation(target, call, args, bus)
		return
	}

	for _, ev := range w.events(method, call, args) {
		if bus {
			w.res.BusEvents = append(w.res.BusEvents, ev)
			continue
		}
		ev.SetParent(target)
		target.Base().AddEvent(ev)
	}
}

func (w *walk) events(method string, call *sitter.Node, args []*sitter.Node) []*model.Event {
	switch method {
	case "emit", "delayemit":
		name, ok := w.stringLiteral(args[0])
		if !ok {
			w.report(diag.SkippedEvent, call, "Skipped unrecognized/private event emitter at %s", w.location(call))
			return nil
		}
		ev := w.newEvent(name, call)
		if method == "emit" {
			w.payload(ev, args, 1)
			return []*model.Event{ev}
		}
		if len(args) > 1 {
			ev.Description = fmt.Sprintf("Event triggered after %s milliseconds.", w.text(args[1]))
		}
		w.payload(ev, args, 2)
		return []*model.Event{ev}

	case "forward":
		if _, ok := w.stringLiteral(args[0]); !ok || len(args) < 2 {
			w.report(diag.SkippedEvent, call, "Skipped unrecognized/private event emitter at %s", w.location(call))
			return nil
		}
		var triggers []string
		if s, ok := w.stringLiteral(args[1]); ok {
			triggers = append(triggers, s)
		} else if args[1].Type() == "array" {
			for _, el := range lang.NamedChildren(args[1]) {
				if s, ok := w.stringLiteral(el); ok {
					triggers = append(triggers, s)
				}
			}
		}
		out := make([]*model.Event, 0, len(triggers))
		for _, name := range triggers {
			ev := w.newEvent(name, call)
			w.payload(ev, args, 2)
			out = append(out, ev)
		}
		return out

	case "funnel", "funnelonce":
		if len(args) < 2 {
			return nil
		}
		name, ok := w.stringLiteral(args[1])
		if !ok {
			return nil
		}
		ev := w.newEvent(name, call)
		w.payload(ev, args, 2)
		return []*model.Event{ev}

	case "threshold", "thresholdonce":
		if len(args) < 3 {
			return nil
		}
		name, ok := w.stringLiteral(args[2])
		if !ok {
			return nil
		}
		ev := w.newEvent(name, call)
		source, ok := w.stringLiteral(args[0])
		if !ok {
			source = w.text(args[0])
		}
		count := w.text(args[1])
		plural := "s"
		if count == "1" {
			plural = ""
		}
		ev.Description = fmt.Sprintf("Triggered after `%s` is fired %s time%s.", source, count, plural)
		w.payload(ev, args, 3)
		return []*model.Event{ev}
	}
	return nil
}

func (w *walk) deprecation(target model.Entity, call *sitter.Node, args []*sitter.Node, bus bool) {
	if len(args) != 2 {
		return
	}
	original, ok := w.stringLiteral(args[0])
	if !ok {
		return
	}
	replacement, ok := w.stringLiteral(args[1])
	if !ok {
		return
	}
	var site model.Snippet
	w.place(&site, call)
	if bus {
		w.res.Deprecations = append(w.res.Deprecations, session.Deprecation{
			Original:    original,
			Replacement: replacement,
			Site:        site,
		})
		return
	}
	model.DeprecateEvent(&target.Base().Events, original, replacement, site)
}

func (w *walk) newEvent(name string, call *sitter.Node) *model.Event {
	ev := model.NewEvent(name)
	w.place(&ev.Snippet, call)
	return ev
}

// payload adds the emitted arguments from index start on as event
// parameters. Identifiers lend their name; other arguments are numbered.
func (w *walk) payload(ev *model.Event, args []*sitter.Node, start int) {
	if start >= len(args) {
		return
	}
	for i, arg := range args[start:] {
		label := tags.PayloadName(i)
		if arg.Type() == "identifier" {
			label = w.text(arg)
		}
		p := model.NewParameter(label)
		w.place(&p.Snippet, arg)
		if isLiteral(arg) {
			p.SetDatatype(typeOf(arg))
		}
		ev.AddParameter(p)
	}
}

// scanExceptions registers every NS.createException({...}) call.
func (w *walk) scanExceptions(root *sitter.Node) {
	visit(root, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "member_expression" {
			return true
		}
		if !strings.EqualFold(compact(w.text(fn.ChildByFieldName("object"))), w.opts.Namespace) ||
			!strings.EqualFold(w.text(fn.ChildByFieldName("property")), w.opts.ExceptionFactory) {
			return true
		}
		args := lang.NamedChildren(n.ChildByFieldName("arguments"))
		if len(args) != 1 || args[0].Type() != "object" {
			return true
		}
		w.exception(n, args[0])
		return true
	})
}

func (w *walk) exception(call, cfg *sitter.Node) {
	ex := model.NewException()
	w.place(&ex.Snippet, call)

	for _, pair := range lang.NamedChildren(cfg) {
		if pair.Type() != "pair" {
			continue
		}
		key, _, _ := w.memberName(pair.ChildByFieldName("key"))
		value := pair.ChildByFieldName("value")
		if strings.EqualFold(key, "custom") && value != nil && value.Type() == "object" {
			for _, entry := range lang.NamedChildren(value) {
				if entry.Type() != "pair" {
					continue
				}
				name, _, _ := w.memberName(entry.ChildByFieldName("key"))
				ex.Tags.Set(name, w.constValue(entry.ChildByFieldName("value")))
			}
			continue
		}
		s := fmt.Sprint(w.constValue(value))
		switch strings.ToLower(key) {
		case "name":
			ex.Name, ex.Label = s, s
		case "type":
			ex.ErrorType = s
		case "severity":
			ex.Severity = s
		case "message":
			ex.Message = s
		case "category":
			ex.Category = s
		}
	}

	w.annotate(ex, ex.Start.Line)
	w.res.Exceptions = append(w.res.Exceptions, ex)
}
