package languages

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ade-dev/ade/internal/parser"
)

// collectComments parses content and gathers every comment node in document
// order. All grammars in use name the node type "comment".
func collectComments(p *sitter.Parser, content []byte) ([]parser.Comment, error) {
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	comments := make([]parser.Comment, 0)
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Type() == "comment" {
			comments = append(comments, parser.Comment{
				Text: node.Content(content),
				Line: int(node.StartPoint().Row) + 1,
			})
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(tree.RootNode())
	return comments, nil
}
