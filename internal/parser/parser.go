// Package parser defines the comment-extraction interface implemented per
// language and the registry that maps file extensions to implementations.
package parser

import (
	"path/filepath"
	"strings"
)

// Comment is one source comment with its position.
type Comment struct {
	Text string // raw comment text including the marker
	Line int    // 1-based line of the comment's first character
}

// LanguageParser extracts comments from source files of one language.
type LanguageParser interface {
	// Language returns the language name (e.g., "go", "python")
	Language() string

	// Extensions returns file extensions this parser handles
	Extensions() []string

	// LineCommentPrefix returns the single-line comment marker ("//", "#"),
	// or "" for languages whose comments carry no marker.
	LineCommentPrefix() string

	// Comments extracts every comment from source code, in document order.
	Comments(filename string, content []byte) ([]Comment, error)
}

// Registry holds all registered language parsers.
type Registry struct {
	parsers   map[string]LanguageParser // language name -> parser
	extToLang map[string]string         // extension -> language name
}

func NewRegistry() *Registry {
	return &Registry{
		parsers:   make(map[string]LanguageParser),
		extToLang: make(map[string]string),
	}
}

// Register adds a language parser to the registry.
func (r *Registry) Register(p LanguageParser) {
	lang := p.Language()
	r.parsers[lang] = p
	for _, ext := range p.Extensions() {
		r.extToLang[ext] = lang
	}
}

// ParserForFile returns the appropriate parser for a file.
func (r *Registry) ParserForFile(filename string) (LanguageParser, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	p, ok := r.parsers[lang]
	return p, ok
}

// SupportedExtensions returns all supported file extensions.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}
