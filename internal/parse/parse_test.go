package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/metadoc/internal/comment"
	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/lang"
	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
	"github.com/phobologic/metadoc/internal/tags"
)

func walkSource(t *testing.T, src string) (*Result, *session.Session) {
	t.Helper()
	b := []byte(src)
	l := lang.Languages[lang.JavaScript]
	tree, err := l.NewParser().ParseCtx(context.Background(), nil, b)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	w, err := NewWalker(l, DefaultOptions())
	require.NoError(t, err)

	sess := session.New(nil)
	ctx := &tags.Context{
		Session: sess,
		File:    "lib/test.js",
		Aliases: tags.DefaultAliases(),
		State:   &tags.State{},
	}
	f := &File{
		Path:     "lib/test.js",
		Source:   b,
		Tree:     tree,
		Comments: comment.Resolve(b, comment.Extract(b)),
	}
	return w.Walk(ctx, f), sess
}

func onlyClass(t *testing.T, res *Result) *model.Class {
	t.Helper()
	require.Len(t, res.Classes, 1)
	return res.Classes[0]
}

func TestWalkClassMembers(t *testing.T) {
	t.Parallel()

	res, _ := walkSource(t, `
/**
 * A vehicle.
 */
class Car extends Vehicle
  .Base {
  /**
   * Start the engine.
   * @param {number} speed The speed.
   */
  start (speed, gear = 1, ...rest) {
    this.emit('started', speed)
    return true
  }

  static create ({a, b}) {}

  async * stream () {}

  get color () { return 'red' }
  set color (v) {}

  wheels = 4
}
`)
	c := onlyClass(t, res)
	assert.Equal(t, "Car", c.Label)
	assert.Equal(t, "Vehicle.Base", c.Extends)
	assert.Equal(t, "A vehicle.", c.Description)
	assert.Equal(t, "lib/test.js", c.SourceFile)
	assert.Equal(t, 5, c.Start.Line)

	start, ok := c.Method("start")
	require.True(t, ok)
	assert.Equal(t, "Start the engine.", start.Description)
	assert.Equal(t, []string{"speed", "gear", "rest"}, start.Parameters.Keys())
	assert.Equal(t, "boolean", start.ReturnType)

	speed, _ := start.Parameters.Get("speed")
	assert.Equal(t, "number", speed.Datatype)
	assert.Equal(t, "The speed.", speed.Description)
	assert.True(t, speed.Required)

	gear, _ := start.Parameters.Get("gear")
	assert.Equal(t, 1.0, gear.Default)
	assert.False(t, gear.Required)
	assert.Equal(t, "number", gear.Datatype)

	rest, _ := start.Parameters.Get("rest")
	assert.Equal(t, "array", rest.Datatype)
	assert.False(t, rest.Required)

	started, ok := start.Events.Get("started")
	require.True(t, ok)
	assert.Equal(t, []string{"speed"}, started.Parameters.Keys())
	assert.Same(t, start, started.Parent())

	create, ok := c.Method("create")
	require.True(t, ok)
	assert.True(t, create.Static)
	assert.Equal(t, []string{"{a,b}"}, create.Parameters.Keys())

	stream, ok := c.Method("stream")
	require.True(t, ok)
	assert.True(t, stream.Async)
	assert.True(t, stream.Generator)

	assert.False(t, c.Methods.Has("color"))
	color, ok := c.Property("color")
	require.True(t, ok)
	assert.True(t, color.Readable)
	assert.True(t, color.Writable)
	assert.Equal(t, "string", color.Datatype)

	wheels, ok := c.Property("wheels")
	require.True(t, ok)
	assert.Equal(t, 4.0, wheels.Default)
	assert.Equal(t, "number", wheels.Datatype)
	assert.True(t, wheels.Readable && wheels.Writable)
}

func TestWalkIdentifierDefault(t *testing.T) {
	t.Parallel()

	res, sess := walkSource(t, `
class A {
  run (x = DEFAULT, cb = null, callback) {
    return
  }
}
`)
	run, ok := onlyClass(t, res).Method("run")
	require.True(t, ok)

	x, _ := run.Parameters.Get("x")
	assert.Equal(t, "object", x.Datatype)
	assert.Equal(t, "DEFAULT", x.Default)
	assert.Equal(t, 1, sess.Diag.Count(diag.InvalidDefault))

	cb, _ := run.Parameters.Get("cb")
	assert.Nil(t, cb.Default)
	assert.True(t, cb.HasDefault)

	assert.Empty(t, run.ReturnType)
	assert.Equal(t, 1, sess.Diag.Count(diag.Callback))
}

func TestWalkConstructorProperties(t *testing.T) {
	t.Parallel()

	res, _ := walkSource(t, `
class Engine {
  constructor (cfg) {
    this.name = 'v8'
    this.size = cfg
    this.parts = new Map()
    this.name = 'ignored'

    Object.defineProperties(this, {
      secret: {
        enumerable: false,
        writable: true,
        value: 42
      },
      fixed: NGN.const('x'),
      helper: NGN.privateconst(function (a) {})
    })

    Object.defineProperty(this, 'mode', NGN.get(function () { return 'fast' }))
    Object.defineProperty(this, 'legacy', NGN.define(true, false, false, 'old'))

    this.emit('ready')
  }

  static count = NGN.public(0)
}
`)
	c := onlyClass(t, res)

	name, ok := c.Property("name")
	require.True(t, ok)
	assert.Equal(t, "v8", name.Default)
	assert.Equal(t, "string", name.Datatype)

	size, _ := c.Property("size")
	assert.False(t, size.HasDefault)
	assert.Equal(t, model.DefaultDatatype, size.Datatype)

	parts, _ := c.Property("parts")
	assert.Equal(t, "map", parts.Datatype)
	assert.False(t, parts.HasDefault)

	secret, ok := c.Property("secret")
	require.True(t, ok)
	assert.True(t, secret.Private)
	assert.True(t, secret.Writable)
	assert.True(t, secret.Readable)
	assert.Equal(t, 42.0, secret.Default)

	fixed, _ := c.Property("fixed")
	assert.True(t, fixed.Readable)
	assert.False(t, fixed.Writable)
	assert.Equal(t, "x", fixed.Default)

	helper, ok := c.Method("helper")
	require.True(t, ok)
	assert.True(t, helper.Private)
	assert.Equal(t, []string{"a"}, helper.Parameters.Keys())

	mode, ok := c.Method("mode")
	require.True(t, ok)
	assert.True(t, mode.Readable)
	assert.Equal(t, "string", mode.ReturnType)

	legacy, _ := c.Property("legacy")
	assert.True(t, legacy.Private)
	assert.False(t, legacy.Writable)
	assert.Equal(t, "old", legacy.Default)

	count, _ := c.Property("count")
	assert.True(t, count.Static)
	assert.Equal(t, 0.0, count.Default)

	ctor, ok := c.Method("constructor")
	require.True(t, ok)
	assert.Equal(t, model.MethodConstructor, ctor.MethodKind)
	ready, ok := ctor.Events.Get("ready")
	require.True(t, ok)
	assert.Zero(t, ready.Parameters.Len())
}

func TestWalkEvents(t *testing.T) {
	t.Parallel()

	res, sess := walkSource(t, `
class Hub {
  run (data) {
    this.emit('one', data, 5)
    this.delayEmit('later', 100, data)
    this.forward('src', ['a', 'b'], data)
    this.funnel(['x', 'y'], 'done')
    this.threshold('tick', 3, 'ticked')
    this.deprecate('old', 'new')
    other.emit('nope')
    NGN.BUS.emit('global', data)
    NGN.BUS.deprecate('gone', 'here')
  }
}
NGN.BUS.emit('top')
`)
	run, ok := onlyClass(t, res).Method("run")
	require.True(t, ok)

	one, _ := run.Events.Get("one")
	require.NotNil(t, one)
	assert.Equal(t, []string{"data", "payload2"}, one.Parameters.Keys())
	second, _ := one.Parameters.Get("payload2")
	assert.Equal(t, "number", second.Datatype)

	later, _ := run.Events.Get("later")
	require.NotNil(t, later)
	assert.Equal(t, "Event triggered after 100 milliseconds.", later.Description)
	assert.Equal(t, []string{"data"}, later.Parameters.Keys())

	for _, name := range []string{"a", "b", "done", "ticked", "old", "new"} {
		assert.True(t, run.Events.Has(name), name)
	}
	assert.False(t, run.Events.Has("src"))

	ticked, _ := run.Events.Get("ticked")
	assert.Equal(t, "Triggered after `tick` is fired 3 times.", ticked.Description)

	old, _ := run.Events.Get("old")
	assert.True(t, old.Deprecated)
	assert.Equal(t, "new", old.DeprecationReplacement)

	repl, _ := run.Events.Get("new")
	assert.Equal(t, "Replacement for old", repl.Description)

	assert.False(t, run.Events.Has("nope"))
	assert.Equal(t, 1, sess.Diag.Count(diag.SkippedEvent))

	require.Len(t, res.BusEvents, 2)
	assert.Equal(t, "global", res.BusEvents[0].Label)
	assert.Equal(t, "top", res.BusEvents[1].Label)
	require.Len(t, res.Deprecations, 1)
	assert.Equal(t, "gone", res.Deprecations[0].Original)
	assert.Equal(t, "here", res.Deprecations[0].Replacement)
}

func TestWalkExceptions(t *testing.T) {
	t.Parallel()

	res, _ := walkSource(t, `
/**
 * Raised when something is missing.
 */
NGN.createException({
  name: 'MissingThing',
  type: 'ReferenceError',
  severity: 'critical',
  message: 'Not found',
  custom: {
    help: 'Look again',
    code: 12
  }
})

NGN.createException('not an object')
`)
	require.Len(t, res.Exceptions, 1)
	ex := res.Exceptions[0]
	assert.Equal(t, "MissingThing", ex.Label)
	assert.Equal(t, "ReferenceError", ex.ErrorType)
	assert.Equal(t, "critical", ex.Severity)
	assert.Equal(t, "Not found", ex.Message)
	assert.Equal(t, "operational", ex.Category)
	assert.Equal(t, "Raised when something is missing.", ex.Description)

	help, ok := ex.Tags.Get("help")
	require.True(t, ok)
	assert.Equal(t, "Look again", help)
	code, _ := ex.Tags.Get("code")
	assert.Equal(t, 12.0, code)
}

func TestWalkRequiresAndGlobals(t *testing.T) {
	t.Parallel()

	res, sess := walkSource(t, `
const fs = require('fs')
let bad = require('a', 'b')
var count = 1

function local () {
  const inner = 2
}
`)
	assert.Equal(t, []string{"fs"}, res.Requires)
	assert.Equal(t, 1, sess.Diag.Count(diag.Require))
	assert.ElementsMatch(t, []string{"fs", "bad", "count"}, res.Globals)
}

func TestWalkPrunesIgnoredMembers(t *testing.T) {
	t.Parallel()

	res, _ := walkSource(t, `
class Widget {
  /**
   * @ignore
   */
  internal () {}

  // Renders the widget.
  render () {}

  /**
   * @private
   */
  #secret = 1
}
`)
	c := onlyClass(t, res)
	assert.False(t, c.Methods.Has("internal"))

	render, ok := c.Method("render")
	require.True(t, ok)
	assert.Equal(t, "Renders the widget.", render.Description)

	secret, ok := c.Property("#secret")
	require.True(t, ok)
	assert.True(t, secret.Private)
}

func TestWalkEmptySource(t *testing.T) {
	t.Parallel()

	w, err := NewWalker(lang.Languages[lang.JavaScript], DefaultOptions())
	require.NoError(t, err)
	ctx := &tags.Context{Session: session.New(nil), Aliases: tags.DefaultAliases(), State: &tags.State{}}
	res := w.Walk(ctx, &File{Path: "empty.js"})
	assert.Empty(t, res.Classes)
	assert.Empty(t, res.BusEvents)
}
