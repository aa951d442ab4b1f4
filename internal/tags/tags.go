// Package tags interprets doc comment tags as mutations of model entities.
package tags

import (
	"errors"
	"fmt"

	"github.com/phobologic/metadoc/internal/comment"
	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
)

var (
	// ErrUnsupportedTarget is returned when a tag cannot apply to the entity.
	ErrUnsupportedTarget = errors.New("tag cannot be applied to this entity")
	// ErrMissingName is returned when a tag needs a name and has none.
	ErrMissingName = errors.New("tag has no name")
	// ErrUnknownTag is returned by Lookup for tags without a processor.
	ErrUnknownTag = errors.New("unknown tag")
)

// State is the per-file processing state shared by all comments of a file.
type State struct {
	// Last is the entity most recently named by a class, method or
	// namespace tag. Comments nobody claims continue it.
	Last model.Entity
}

// Context carries what tag processors need besides the tag itself.
type Context struct {
	Session *session.Session
	File    string
	Aliases *Aliases
	State   *State
}

func (ctx *Context) report(c diag.Category, line, col int, format string, args ...any) {
	ctx.Session.Diag.Report(c, ctx.File, line, col, format, args...)
}

// Call is a single tag application.
type Call struct {
	*Context
	Comment *comment.Comment
	Tag     *comment.Tag
	Cursor  *Cursor

	// Created is set by processors that materialize a new entity which
	// the following tags of the same comment should describe.
	Created model.Entity
}

// Processor applies one kind of tag to a target entity.
type Processor interface {
	Apply(call *Call, target model.Entity) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(call *Call, target model.Entity) error

func (f ProcessorFunc) Apply(call *Call, target model.Entity) error { return f(call, target) }

var processors = map[string]Processor{
	"class":       ProcessorFunc(applyClass),
	"method":      ProcessorFunc(applyMethod),
	"constructor": ProcessorFunc(applyConstructor),
	"property":    ProcessorFunc(applyProperty),
	"param":       ProcessorFunc(applyParam),
	"return":      ProcessorFunc(applyReturn),
	"cfg":         cfgProcessor{readable: false},
	"cfgproperty": cfgProcessor{readable: true},
	"private":     ProcessorFunc(applyPrivate),
	"hidden":      ProcessorFunc(applyHidden),
	"ignore":      ProcessorFunc(applyIgnore),
	"readonly":    accessProcessor{readable: true, writable: false},
	"writeonly":   accessProcessor{readable: false, writable: true},
	"flag":        ProcessorFunc(applyFlag),
	"todo":        ProcessorFunc(applyTodo),
	"author":      ProcessorFunc(applyAuthor),
	"info":        ProcessorFunc(applyInfo),
	"fires":       ProcessorFunc(applyFires),
	"extends":     ProcessorFunc(applyExtends),
	"namespace":   ProcessorFunc(applyNamespace),
	"typedef":     ProcessorFunc(applyTypedef),
	"singleton":   ProcessorFunc(applySingleton),
	"exception":   ProcessorFunc(applyException),
}

// Lookup returns the processor registered for a canonical tag name.
func Lookup(name string) (Processor, error) {
	p, ok := processors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, name)
	}
	return p, nil
}

// Apply dispatches one tag. Unknown tags are stored verbatim on the target.
// Tags the target cannot hold are dropped with a diagnostic. The tag is
// consumed either way.
func Apply(call *Call, target model.Entity) {
	t := call.Tag
	t.Consumed = true

	p, err := Lookup(call.Aliases.Canonical(t.Tag))
	if err != nil {
		target.Base().Tags.Set(t.Tag, t.Data())
		call.report(diag.UnrecognizedTag, t.Line, 0, "Unrecognized tag: %s", t.Tag)
		return
	}

	err = p.Apply(call, target)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupportedTarget), errors.Is(err, ErrMissingName):
		call.report(diag.SkippedTag, t.Line, 0, "Skipped @%s on %s %q: arguments cannot be assigned (%v)",
			t.Tag, target.Kind(), target.Base().Label, err)
	default:
		call.report(diag.SkippedTag, t.Line, 0, "@%s: %v", t.Tag, err)
	}
}

// ApplyComment applies a comment that documents target directly. The
// comment's free text becomes the target description.
func ApplyComment(ctx *Context, c *comment.Comment, target model.Entity) {
	if c.Description != "" {
		target.Base().Description = c.Description
	}
	applyTags(ctx, c, target)
}

// ApplyOrphan applies a comment that was not attached to code but falls
// under owner. Tags that declare members create them inside owner.
func ApplyOrphan(ctx *Context, c *comment.Comment, owner model.Entity) {
	current := applyTags(ctx, c, owner)
	if c.Description != "" && current.Base().Description == "" {
		current.Base().Description = c.Description
	}
}

// ApplyDeclaration applies a comment led by a tag that declares a
// standalone entity, such as `typedef` or `namespace`. The remaining tags
// describe the declared entity. It returns nil when the declaration fails.
func ApplyDeclaration(ctx *Context, c *comment.Comment, name string) model.Entity {
	var decl *comment.Tag
	for _, t := range c.Pending() {
		if ctx.Aliases.Canonical(t.Tag) == name {
			decl = t
			break
		}
	}
	if decl == nil {
		return nil
	}
	decl.Consumed = true

	p, err := Lookup(name)
	if err != nil {
		return nil
	}
	call := &Call{Context: ctx, Comment: c, Tag: decl, Cursor: &Cursor{}}
	if err := p.Apply(call, nil); err != nil || call.Created == nil {
		ctx.report(diag.SkippedTag, decl.Line, 0, "Skipped @%s: %v", decl.Tag, err)
		return nil
	}
	ApplyOrphan(ctx, c, call.Created)
	return call.Created
}

func applyTags(ctx *Context, c *comment.Comment, target model.Entity) model.Entity {
	cursor := &Cursor{}
	current := target
	for _, t := range c.Pending() {
		call := &Call{Context: ctx, Comment: c, Tag: t, Cursor: cursor}
		Apply(call, current)
		switch created := call.Created.(type) {
		case *model.Method, *model.Namespace, *model.TypeDefinition:
			current = created
		}
	}
	c.Processed = true
	return current
}
