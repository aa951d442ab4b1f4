package lang

import (
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScript is the name of the JavaScript language entry.
const JavaScript = "javascript"

func init() {
	Languages[JavaScript] = &Language{
		Name:       JavaScript,
		Extensions: []string{".js", ".mjs", ".cjs"},
		lang:       javascript.GetLanguage(),
	}
}
