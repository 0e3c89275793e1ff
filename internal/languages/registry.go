package languages

import "github.com/ade-dev/ade/internal/parser"

// NewDefaultRegistry creates a registry with all supported language parsers
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewGoParser())
	r.Register(NewPythonParser())
	r.Register(NewTypeScriptParser())
	r.Register(NewBashParser())

	return r
}
