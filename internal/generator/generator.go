// Package generator runs a documentation build. Source files are prepared
// concurrently, then walked, registered and resolved one at a time in path
// order, and finally structured into the class hierarchy.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/metadoc/internal/comment"
	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/discover"
	"github.com/phobologic/metadoc/internal/graph"
	"github.com/phobologic/metadoc/internal/lang"
	"github.com/phobologic/metadoc/internal/parse"
	"github.com/phobologic/metadoc/internal/session"
	"github.com/phobologic/metadoc/internal/tags"
)

// Options configures a build.
type Options struct {
	// Root is the source root the discovered paths are relative to.
	Root string
	// Workers bounds concurrent file preparation. Zero means GOMAXPROCS.
	Workers int
	// MaxFileSize skips larger files. Zero disables the limit.
	MaxFileSize int64
	Framework   parse.Options
	Aliases     *tags.Aliases
}

// Generator builds sessions from source files.
type Generator struct {
	opts   Options
	lang   *lang.Language
	walker *parse.Walker
	diag   *diag.Reporter
}

// New returns a Generator reporting through r.
func New(opts Options, r *diag.Reporter) (*Generator, error) {
	l, ok := lang.Languages[lang.JavaScript]
	if !ok {
		return nil, fmt.Errorf("language %s not registered", lang.JavaScript)
	}
	w, err := parse.NewWalker(l, opts.Framework)
	if err != nil {
		return nil, err
	}
	if opts.Aliases == nil {
		opts.Aliases = tags.DefaultAliases()
	}
	if r == nil {
		r = diag.Discard()
	}
	return &Generator{opts: opts, lang: l, walker: w, diag: r}, nil
}

// Run processes files, which must be sorted, and returns the structured
// session. Per-file failures are reported and skipped; only cancellation
// of ctx aborts the build.
func (g *Generator) Run(ctx context.Context, files []discover.FileEntry) (*session.Session, error) {
	prepared, err := g.prepare(ctx, files)
	if err != nil {
		return nil, err
	}

	s := session.New(g.diag)
	for _, f := range prepared {
		if f == nil {
			continue
		}
		if g.process(s, f) {
			s.Files++
		}
	}

	graph.Structure(s)
	return s, nil
}

// prepare reads and parses files concurrently. The result keeps the order
// of files; entries that failed or were skipped are nil.
func (g *Generator) prepare(ctx context.Context, files []discover.FileEntry) ([]*parse.File, error) {
	workers := g.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]*parse.File, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, entry := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := g.prepareFile(ctx, entry)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.diag.Report(diag.ParseFailure, entry.Path, 0, 0, "Failed to parse %s: %v", entry.Path, err)
				return nil
			}
			out[i] = f
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Generator) prepareFile(ctx context.Context, entry discover.FileEntry) (f *parse.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if g.opts.MaxFileSize > 0 && entry.Size > g.opts.MaxFileSize {
		log := g.diag.Logger()
		log.Warn().Str("file", entry.Path).Msgf("skipped (>%d bytes)", g.opts.MaxFileSize)
		return nil, nil
	}

	src, err := os.ReadFile(filepath.Join(g.opts.Root, filepath.FromSlash(entry.Path)))
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	// Each goroutine gets its own parser
	parser := g.lang.NewParser()
	defer parser.Close()
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	spans := commentSpans(src, tree)
	return &parse.File{
		Path:     entry.Path,
		Source:   src,
		Tree:     tree,
		Comments: comment.Resolve(src, spans),
	}, nil
}

// commentSpans keeps the comment matches that the grammar agrees are
// comments, dropping look-alikes inside strings and regular expressions.
func commentSpans(src []byte, tree *sitter.Tree) []comment.Span {
	starts := make(map[uint32]struct{})
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if n.Type() == "comment" {
			starts[n.StartByte()] = struct{}{}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collect(n.NamedChild(i))
		}
	}
	collect(tree.RootNode())

	return comment.Filter(comment.Extract(src), func(s comment.Span) bool {
		_, ok := starts[uint32(s.Start)]
		return ok
	})
}

// process walks one file, commits what it declares to the session and
// resolves its remaining comments. It reports whether the file completed.
func (g *Generator) process(s *session.Session, f *parse.File) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.Diag.Report(diag.ParseFailure, f.Path, 0, 0, "Failed to process %s: %v", f.Path, r)
			ok = false
		}
	}()
	if f.Tree != nil {
		defer f.Tree.Close()
	}

	ctx := &tags.Context{
		Session: s,
		File:    f.Path,
		Aliases: g.opts.Aliases,
		State:   &tags.State{},
	}
	commit(s, g.walker.Walk(ctx, f))
	resolveOrphans(ctx, f)
	return true
}

// commit registers a walked file's entities once the walk has finished.
func commit(s *session.Session, res *parse.Result) {
	for _, c := range res.Classes {
		if c.Ignored {
			continue
		}
		_ = s.RegisterClass(c) // duplicates are reported by the session
	}
	for _, ex := range res.Exceptions {
		if !ex.Ignored {
			s.RegisterException(ex)
		}
	}
	for _, ev := range res.BusEvents {
		s.RegisterBusEvent(ev)
	}
	for _, d := range res.Deprecations {
		s.DeprecateBusEvent(d)
	}
	for _, r := range res.Requires {
		s.Requires.Add(r)
	}
	for _, name := range res.Globals {
		s.Globals.Add(name)
	}
}
