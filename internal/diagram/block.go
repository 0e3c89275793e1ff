package diagram

import (
	"fmt"
	"strings"
)

// Kind identifies the diagram language of a block.
type Kind string

const (
	Mermaid Kind = "mermaid"
	Dot     Kind = "dot"
)

// SourceExt returns the on-disk extension for a block's source tracking file.
func (k Kind) SourceExt() string {
	if k == Mermaid {
		return ".mmd"
	}
	return ".dot"
}

// SourceLabel returns the summary label used in the collapsible source block.
func (k Kind) SourceLabel() string {
	if k == Mermaid {
		return "Mermaid Source"
	}
	return "Graphviz Source"
}

// Block is one located diagram region of a markdown document.
type Block struct {
	Kind      Kind
	Source    string // trimmed diagram source text
	Start     int    // byte offset of the region within the document
	End       int    // byte offset one past the region
	Canonical bool   // already in "figure N" form
	Caption   string // caption carried by an existing figure header, if any
	Index     int    // 1-based figure number, assigned in document order
}

// CanonicalText renders the stable replacement for a block: numbered caption,
// image link, and a collapsible source disclosure.
func CanonicalText(index int, caption, relSVG string, kind Kind, source string) string {
	header := fmt.Sprintf("figure %d: %s", index, caption)
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "![%s](%s)\n\n", header, relSVG)
	b.WriteString("<details>\n")
	fmt.Fprintf(&b, "<summary>%s</summary>\n\n", kind.SourceLabel())
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", kind, source)
	b.WriteString("</details>")
	return b.String()
}
