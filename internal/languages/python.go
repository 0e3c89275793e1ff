package languages

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/ade-dev/ade/internal/parser"
)

// PythonParser extracts comments from Python source files
type PythonParser struct {
	parser *sitter.Parser
}

func NewPythonParser() *PythonParser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonParser{parser: p}
}

func (p *PythonParser) Language() string {
	return "python"
}

func (p *PythonParser) Extensions() []string {
	return []string{".py"}
}

func (p *PythonParser) LineCommentPrefix() string {
	return "#"
}

func (p *PythonParser) Comments(filename string, content []byte) ([]parser.Comment, error) {
	return collectComments(p.parser, content)
}
