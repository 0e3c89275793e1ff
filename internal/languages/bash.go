package languages

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"

	"github.com/ade-dev/ade/internal/parser"
)

// BashParser extracts comments from shell scripts
type BashParser struct {
	parser *sitter.Parser
}

func NewBashParser() *BashParser {
	p := sitter.NewParser()
	p.SetLanguage(bash.GetLanguage())
	return &BashParser{parser: p}
}

func (b *BashParser) Language() string {
	return "bash"
}

func (b *BashParser) Extensions() []string {
	return []string{".sh", ".bash"}
}

func (b *BashParser) LineCommentPrefix() string {
	return "#"
}

func (b *BashParser) Comments(filename string, content []byte) ([]parser.Comment, error) {
	return collectComments(b.parser, content)
}
