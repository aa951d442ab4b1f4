package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/metadoc/internal/model"
	"github.com/phobologic/metadoc/internal/session"
)

func fixture(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(nil)

	for _, label := range []string{"Zebra", "Apple"} {
		c := model.NewClass(label)
		c.SourceFile = "lib/" + strings.ToLower(label) + ".js"
		m := model.NewMethod("run")
		m.AddParameter(model.NewParameter("speed"))
		c.AddMethod(m)
		require.NoError(t, s.RegisterClass(c))
	}
	s.AddNamespace(session.GlobalNamespace).Classes.Add("Zebra")

	ex := model.NewException()
	ex.Label, ex.Name = "Missing", "Missing"
	s.RegisterException(ex)

	s.RegisterBusEvent(model.NewEvent("ready"))
	s.DeprecateBusEvent(session.Deprecation{Original: "old", Replacement: "ready"})

	def := s.AddTypeDefinition("Options")
	def.Types = []string{"object"}

	s.Requires.Add("fs")
	s.Globals.Add("VERSION")
	return s
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Build(fixture(t), Options{}), JSON))
	out := buf.String()

	// Classes keep registration order.
	assert.Less(t, strings.Index(out, `"Zebra"`), strings.Index(out, `"Apple"`))
	assert.Contains(t, out, "\n  \"classes\": {")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{"classes", "exceptions", "bus", "namespaces", "types"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "requires")
	assert.NotContains(t, doc, "globals")

	classes := doc["classes"].(map[string]any)
	apple := classes["Apple"].(map[string]any)
	assert.Equal(t, "lib/apple.js", apple["sourcefile"])
	assert.Nil(t, apple["extends"])
	run := apple["methods"].(map[string]any)["run"].(map[string]any)
	assert.Contains(t, run["arguments"], "speed")
	assert.Equal(t, "void", run["returnType"])

	ex := doc["exceptions"].(map[string]any)["Missing"].(map[string]any)
	assert.Equal(t, "TypeError", ex["errorType"])

	bus := doc["bus"].(map[string]any)
	old := bus["old"].(map[string]any)
	assert.Equal(t, true, old["deprecated"])
	assert.Equal(t, "ready", old["deprecationReplacement"])

	types := doc["types"].(map[string]any)
	assert.Contains(t, types, "options")
}

func TestEncodeOptionalCollections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Build(fixture(t), Options{Requires: true, Globals: true}), JSON))

	var doc struct {
		Requires []string `json:"requires"`
		Globals  []string `json:"globals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"fs"}, doc.Requires)
	assert.Equal(t, []string{"VERSION"}, doc.Globals)
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Build(fixture(t), Options{}), YAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	classes := doc["classes"].(map[string]any)
	zebra := classes["Zebra"].(map[string]any)
	assert.Equal(t, "class", zebra["type"])
	assert.Equal(t, "lib/zebra.js", zebra["sourcefile"])

	ns := doc["namespaces"].(map[string]any)["global"].(map[string]any)
	assert.Equal(t, []any{"Zebra"}, ns["classes"])
}

func TestEncodeUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Encode(&bytes.Buffer{}, &Document{}, Format("xml"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "docs")
	p, err := Write(dir, Build(fixture(t), Options{}), YAML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "api.yaml"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "classes:")
	assert.Equal(t, "api.json", JSON.FileName())
}
