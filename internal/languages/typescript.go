package languages

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/ade-dev/ade/internal/parser"
)

// TypeScriptParser extracts comments from TypeScript/JavaScript source files
type TypeScriptParser struct {
	tsParser  *sitter.Parser
	tsxParser *sitter.Parser
	jsParser  *sitter.Parser
}

func NewTypeScriptParser() *TypeScriptParser {
	ts := sitter.NewParser()
	ts.SetLanguage(typescript.GetLanguage())

	tx := sitter.NewParser()
	tx.SetLanguage(tsx.GetLanguage())

	js := sitter.NewParser()
	js.SetLanguage(javascript.GetLanguage())

	return &TypeScriptParser{tsParser: ts, tsxParser: tx, jsParser: js}
}

func (t *TypeScriptParser) Language() string {
	return "typescript"
}

func (t *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

func (t *TypeScriptParser) LineCommentPrefix() string {
	return "//"
}

func (t *TypeScriptParser) Comments(filename string, content []byte) ([]parser.Comment, error) {
	// Choose parser based on extension
	var p *sitter.Parser
	switch {
	case strings.HasSuffix(filename, ".tsx"):
		p = t.tsxParser
	case strings.HasSuffix(filename, ".ts"):
		p = t.tsParser
	default:
		p = t.jsParser
	}
	return collectComments(p, content)
}
