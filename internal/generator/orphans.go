package generator

import (
	"github.com/phobologic/metadoc/internal/comment"
	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/parse"
	"github.com/phobologic/metadoc/internal/tags"
)

// declarations are tags that create a standalone entity wherever their
// comment sits.
var declarations = []string{"typedef", "namespace"}

// resolveOrphans applies the comments of f that the walk left unclaimed.
// Comments inside a class go to its innermost member; the others go to the
// last entity this pass touched.
func resolveOrphans(ctx *tags.Context, f *parse.File) {
	ctx.State.Last = nil
	classes := ctx.Session.ClassesIn(f.Path)
	failed := make(map[*comment.Comment]bool)

	for _, c := range f.Comments {
		if c.Processed {
			continue
		}

		if decl := declaration(ctx, c); decl != "" {
			tags.ApplyDeclaration(ctx, c, decl)
			continue
		}
		if c.Anchor == nil {
			continue
		}

		owner := container(classes, c)
		if len(c.Pending()) == 0 {
			if c.Doc && c.Description != "" && owner == nil && ctx.State.Last != nil {
				if b := ctx.State.Last.Base(); b.Description == "" {
					b.Description = c.Description
				}
				c.Processed = true
			}
			continue
		}

		switch {
		case owner != nil:
			tags.ApplyOrphan(ctx, c, owner)
		case ctx.State.Last != nil:
			tags.ApplyOrphan(ctx, c, ctx.State.Last)
		default:
			failed[c] = true
			ctx.Session.Diag.Report(diag.AssociationFailure, f.Path, c.StartLine, 0,
				"Failed to process comment at %s:%d-%d (could not find relevant snippet)",
				f.Path, c.StartLine, c.EndLine)
		}
	}

	for _, c := range f.Comments {
		if failed[c] {
			continue
		}
		for _, t := range c.Pending() {
			ctx.Session.Diag.Report(diag.UnassociatedTag, f.Path, t.Line, 0,
				"Unassociated tag @%s at %s:%d", t.Tag, f.Path, t.Line)
		}
	}
}

// declaration returns the canonical declaration tag carried by c, if any.
func declaration(ctx *tags.Context, c *comment.Comment) string {
	for _, t := range c.Pending() {
		name := ctx.Aliases.Canonical(t.Tag)
		for _, d := range declarations {
			if name == d {
				return d
			}
		}
	}
	return ""
}

// container returns the innermost entity of classes containing the anchor
// line of c, or failing that its first line.
func container(classes []*model.Class, c *comment.Comment) model.Entity {
	for _, line := range []int{c.Anchor.Line, c.StartLine} {
		for _, cls := range classes {
			if e := cls.Member(line); e != nil {
				return e
			}
		}
	}
	return nil
}
