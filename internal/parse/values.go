package parse

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/lang"
	"github.com/phobologic/metadoc/internal/model"
)

// literal is a statically inferred value.
type literal struct {
	value    any
	datatype string
	set      bool
}

func isLiteral(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "string", "number", "true", "false", "null", "regex":
		return true
	case "template_string":
		return !hasSubstitution(n)
	}
	return false
}

func hasSubstitution(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "template_substitution" {
			return true
		}
	}
	return false
}

func isFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "function_expression", "function", "arrow_function", "generator_function":
		return true
	}
	return false
}

func functionParams(fn *sitter.Node) *sitter.Node {
	if p := fn.ChildByFieldName("parameters"); p != nil {
		return p
	}
	return fn.ChildByFieldName("parameter")
}

// stringLiteral returns the contents of a string or a template string
// without substitutions.
func (w *walk) stringLiteral(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
	case "template_string":
		if hasSubstitution(n) {
			return "", false
		}
	default:
		return "", false
	}
	s := w.text(n)
	if len(s) < 2 {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// calleeName is the datatype of `new X()` and `x()` values.
func (w *walk) calleeName(n *sitter.Node) string {
	switch {
	case n == nil:
		return model.DefaultDatatype
	case n.Type() == "member_expression":
		return w.text(n.ChildByFieldName("property"))
	}
	return compact(w.text(n))
}

// infer evaluates a default value expression. Expressions that cannot be
// evaluated keep their source text.
func (w *walk) infer(n *sitter.Node) literal {
	src := w.text(n)
	switch n.Type() {
	case "string", "template_string":
		if s, ok := w.stringLiteral(n); ok {
			return literal{value: s, datatype: "string", set: true}
		}
		return literal{value: src, datatype: "string", set: true}
	case "number":
		if f, err := strconv.ParseFloat(strings.ReplaceAll(src, "_", ""), 64); err == nil {
			return literal{value: f, datatype: "number", set: true}
		}
		return literal{value: src, datatype: "number", set: true}
	case "true", "false":
		return literal{value: n.Type() == "true", datatype: "boolean", set: true}
	case "null":
		return literal{value: nil, datatype: "object", set: true}
	case "undefined":
		return literal{datatype: model.DefaultDatatype}
	case "regex":
		return literal{value: src, datatype: "regex", set: true}
	case "unary_expression":
		if f, err := strconv.ParseFloat(compact(src), 64); err == nil {
			return literal{value: f, datatype: "number", set: true}
		}
	case "parenthesized_expression":
		if inner := firstNamed(n); inner != nil {
			return w.infer(inner)
		}
	case "new_expression":
		return literal{value: src, datatype: w.calleeName(n.ChildByFieldName("constructor")), set: true}
	case "call_expression":
		return literal{value: src, datatype: w.calleeName(n.ChildByFieldName("function")), set: true}
	case "function_expression", "function", "arrow_function", "generator_function":
		return literal{value: src, datatype: "function", set: true}
	case "identifier":
		w.report(diag.InvalidDefault, n, "Identifier %s at %s may not be a valid default value.", src, w.location(n))
	}
	return literal{value: src, datatype: "object", set: true}
}

// assignValue types a property from its initializer. Only literals
// provide a default; constructed values and functions provide a datatype.
func (w *walk) assignValue(p *model.Property, n *sitter.Node) {
	switch {
	case isLiteral(n), n.Type() == "unary_expression" && isLiteral(firstNamed(n)):
		v := w.infer(n)
		p.SetDefault(v.value)
		p.SetDatatype(v.datatype)
	case n.Type() == "new_expression", n.Type() == "call_expression":
		p.SetDatatype(w.infer(n).datatype)
	case isFunction(n):
		p.SetDatatype("function")
	case n.Type() == "array":
		p.SetDatatype("array")
	case n.Type() == "object":
		p.SetDatatype("object")
	}
}

func (w *walk) parameters(m *model.Method, params *sitter.Node) {
	if params == nil {
		return
	}
	if params.Type() == "identifier" {
		p := model.NewParameter(w.text(params))
		w.place(&p.Snippet, params)
		m.AddParameter(p)
		return
	}

	for _, n := range lang.NamedChildren(params) {
		var p *model.Parameter
		switch n.Type() {
		case "identifier":
			p = model.NewParameter(w.text(n))
		case "assignment_pattern":
			p = model.NewParameter(compact(w.text(n.ChildByFieldName("left"))))
			if right := n.ChildByFieldName("right"); right != nil {
				v := w.infer(right)
				p.SetDatatype(v.datatype)
				if v.set {
					p.SetDefault(v.value)
				}
			}
		case "rest_pattern":
			p = model.NewParameter(compact(strings.TrimPrefix(w.text(n), "...")))
			p.SetDatatype("array")
			p.Required = false
		case "object_pattern":
			p = model.NewParameter(compact(w.text(n)))
			p.SetDatatype("object")
		case "array_pattern":
			p = model.NewParameter(compact(w.text(n)))
			p.SetDatatype("array")
		default:
			p = model.NewParameter(compact(w.text(n)))
		}
		w.place(&p.Snippet, n)
		m.AddParameter(p)
	}
}

// returns types a method from the literal top-level return statements of
// its body. A bare return leaves the method void.
func (w *walk) returns(m *model.Method, body *sitter.Node) {
	if body == nil || body.Type() != "statement_block" {
		return
	}
	for _, st := range lang.NamedChildren(body) {
		if st.Type() != "return_statement" {
			continue
		}
		value := firstNamed(st)
		switch {
		case value == nil:
			m.ReturnType = ""
		case isLiteral(value):
			m.ReturnType = typeOf(value)
		}
	}
}

// returnType is the datatype of an accessor returning a literal.
func (w *walk) returnType(body *sitter.Node) string {
	m := model.NewMethod("")
	w.returns(m, body)
	return m.ReturnType
}

// typeOf mirrors the JavaScript typeof operator for literals.
func typeOf(n *sitter.Node) string {
	switch n.Type() {
	case "string", "template_string":
		return "string"
	case "number":
		return "number"
	case "true", "false":
		return "boolean"
	}
	return "object"
}

// constValue is the stored form of an object-literal field value.
func (w *walk) constValue(n *sitter.Node) any {
	if n == nil {
		return nil
	}
	if isLiteral(n) {
		return w.infer(n).value
	}
	return compact(w.text(n))
}
