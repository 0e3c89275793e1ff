package languages

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/ade-dev/ade/internal/parser"
)

// GoParser extracts comments from Go source files
type GoParser struct {
	parser *sitter.Parser
}

func NewGoParser() *GoParser {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoParser{parser: p}
}

func (g *GoParser) Language() string {
	return "go"
}

func (g *GoParser) Extensions() []string {
	return []string{".go"}
}

func (g *GoParser) LineCommentPrefix() string {
	return "//"
}

func (g *GoParser) Comments(filename string, content []byte) ([]parser.Comment, error) {
	return collectComments(g.parser, content)
}
