// Package parse builds model entities from JavaScript syntax trees and
// pairs them with the doc comments that document them.
package parse

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/metadoc/internal/comment"
	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/lang"
	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
	"github.com/phobologic/metadoc/internal/tags"
)

// Options names the framework tokens the walker recognizes.
type Options struct {
	// Namespace is the receiver of the property idiom and of the
	// exception factory, e.g. NGN.
	Namespace string
	// Bus is the receiver of global event emissions, e.g. NGN.BUS.
	Bus string
	// ExceptionFactory is the method creating custom exceptions.
	ExceptionFactory string
}

// DefaultOptions returns the NGN framework tokens.
func DefaultOptions() Options {
	return Options{Namespace: "NGN", Bus: "NGN.BUS", ExceptionFactory: "createException"}
}

// File is one prepared source file.
type File struct {
	// Path is relative to the source root, with forward slashes.
	Path     string
	Source   []byte
	Tree     *sitter.Tree
	Comments []*comment.Comment
}

// Result holds everything one file contributes to the session. Nothing is
// registered until the whole file has been walked.
type Result struct {
	Classes      []*model.Class
	Exceptions   []*model.Exception
	BusEvents    []*model.Event
	Deprecations []session.Deprecation
	Requires     []string
	Globals      []string
}

var captureKinds = map[string]bool{
	"definition.class":  true,
	"reference.require": true,
	"definition.global": true,
}

// Walker turns syntax trees into entity candidates. It is safe for
// concurrent use; each Walk call keeps its own state.
type Walker struct {
	query *sitter.Query
	opts  Options
}

// NewWalker compiles the tag query of l.
func NewWalker(l *lang.Language, opts Options) (*Walker, error) {
	q, err := l.GetTagQuery()
	if err != nil {
		return nil, fmt.Errorf("loading %s query: %w", l.Name, err)
	}
	return &Walker{query: q, opts: opts}, nil
}

type walk struct {
	*Walker
	ctx  *tags.Context
	file *File
	src  []byte
	res  *Result
}

// Walk traverses f once, building classes with their members and applying
// the comments anchored at their declarations. Diagnostics go to the
// session carried by ctx.
func (w *Walker) Walk(ctx *tags.Context, f *File) *Result {
	res := &Result{}
	if f.Tree == nil || len(f.Source) == 0 {
		return res
	}
	wk := &walk{Walker: w, ctx: ctx, file: f, src: f.Source, res: res}
	root := f.Tree.RootNode()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(w.query, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, f.Source)

		var nameNode, defNode, argsNode *sitter.Node
		var captureName string
		for _, c := range match.Captures {
			cname := w.query.CaptureNameForId(c.Index)
			switch {
			case cname == "name":
				nameNode = c.Node
			case cname == "arguments":
				argsNode = c.Node
			case captureKinds[cname]:
				captureName = cname
				defNode = c.Node
			}
		}
		if nameNode == nil || defNode == nil {
			continue
		}

		switch captureName {
		case "definition.class":
			wk.class(defNode)
		case "reference.require":
			wk.require(defNode, argsNode)
		case "definition.global":
			res.Globals = append(res.Globals, wk.text(nameNode))
		}
	}

	wk.scanExceptions(root)
	wk.detectEvents(nil, nil, root)
	return res
}

func (w *walk) require(call, args *sitter.Node) {
	list := lang.NamedChildren(args)
	if len(list) != 1 {
		w.report(diag.Require, call, "Invalid require statement found at %s", w.location(call))
		return
	}
	if s, ok := w.stringLiteral(list[0]); ok {
		w.res.Requires = append(w.res.Requires, s)
	}
}

// annotate applies the unclaimed comments anchored at one of lines to e.
// Doc comments take precedence over plain block comments, which take
// precedence over line comments.
func (w *walk) annotate(e model.Entity, lines ...int) {
	var (
		best    = 3
		claimed []*comment.Comment
	)
	for _, c := range w.file.Comments {
		if c.Processed || c.Anchor == nil || !anchoredAt(c, lines) {
			continue
		}
		r := rank(c)
		switch {
		case r < best:
			best, claimed = r, []*comment.Comment{c}
		case r == best:
			claimed = append(claimed, c)
		}
	}
	for _, c := range claimed {
		tags.ApplyComment(w.ctx, c, e)
	}
}

func anchoredAt(c *comment.Comment, lines []int) bool {
	for _, l := range lines {
		if c.AnchoredAt(l) {
			return true
		}
	}
	return false
}

func rank(c *comment.Comment) int {
	switch {
	case c.Doc:
		return 0
	case c.Type == comment.Block:
		return 1
	}
	return 2
}

func (w *walk) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return lang.NodeText(n, w.src)
}

// place copies the source span of n onto s.
func (w *walk) place(s *model.Snippet, n *sitter.Node) {
	s.Code = w.text(n)
	s.Start = position(n.StartPoint())
	s.End = position(n.EndPoint())
	s.SourceFile = w.file.Path
}

func position(p sitter.Point) model.Position {
	return model.Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

func (w *walk) location(n *sitter.Node) string {
	p := position(n.StartPoint())
	return fmt.Sprintf("%s:%d:%d", w.file.Path, p.Line, p.Column)
}

func (w *walk) report(c diag.Category, n *sitter.Node, format string, args ...any) {
	p := position(n.StartPoint())
	w.ctx.Session.Diag.Report(c, w.file.Path, p.Line, p.Column, format, args...)
}

// visit walks the named descendants of n depth-first. fn returning false
// skips the children of a node.
func visit(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i), fn)
	}
}

// compact removes all whitespace, turning `Vehicle .\n Base` into Vehicle.Base.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
