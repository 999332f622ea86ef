package doctree

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Node is the generic, JSON-friendly view of a tree node used for
// inspection output. Type names follow the common markdown AST vocabulary.
type Node struct {
	Type     string         `json:"type"`
	Raw      string         `json:"raw,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Children []Node         `json:"children,omitempty"`
}

// Nodes converts blocks into their generic form.
func Nodes(blocks []Block) []Node {
	out := make([]Node, 0, len(blocks))
	for _, b := range blocks {
		if n, ok := blockNode(b); ok {
			out = append(out, n)
		}
	}
	return out
}

func blockNode(b Block) (Node, bool) {
	switch n := b.(type) {
	case *Heading:
		return Node{Type: "heading", Attrs: map[string]any{"level": n.Level}, Children: inlineNodes(n.Children)}, true
	case *Paragraph:
		return Node{Type: "paragraph", Children: inlineNodes(n.Children)}, true
	case *List:
		items := make([]Node, 0, len(n.Items))
		for _, it := range n.Items {
			if it == nil {
				continue
			}
			item := Node{Type: "list_item", Children: Nodes(it.Children)}
			if it.Task != nil {
				item.Type = "task_list_item"
				item.Attrs = map[string]any{"checked": *it.Task}
			}
			items = append(items, item)
		}
		attrs := map[string]any{"ordered": n.Ordered}
		if n.Ordered {
			attrs["start"] = n.Start
		}
		return Node{Type: "list", Attrs: attrs, Children: items}, true
	case *CodeBlock:
		node := Node{Type: "block_code", Raw: n.Text}
		if n.Language != "" {
			node.Attrs = map[string]any{"info": n.Language}
		}
		return node, true
	case *BlockQuote:
		return Node{Type: "block_quote", Children: Nodes(n.Children)}, true
	case *ThematicBreak:
		return Node{Type: "thematic_break"}, true
	case *Table:
		var kids []Node
		if n.Header != nil {
			kids = append(kids, Node{Type: "table_head", Children: cellNodes(n.Header, n.Alignments, true)})
		}
		rows := make([]Node, 0, len(n.Rows))
		for _, r := range n.Rows {
			rows = append(rows, Node{Type: "table_row", Children: cellNodes(r, n.Alignments, false)})
		}
		kids = append(kids, Node{Type: "table_body", Children: rows})
		return Node{Type: "table", Children: kids}, true
	}
	return Node{}, false
}

func cellNodes(cells []*Cell, align []Alignment, head bool) []Node {
	out := make([]Node, 0, len(cells))
	for i, c := range cells {
		attrs := map[string]any{"head": head}
		if i < len(align) && align[i] != AlignNone {
			attrs["align"] = align[i].String()
		}
		var kids []Node
		if c != nil {
			kids = inlineNodes(c.Children)
		}
		out = append(out, Node{Type: "table_cell", Attrs: attrs, Children: kids})
	}
	return out
}

func inlineNodes(inlines []Inline) []Node {
	out := make([]Node, 0, len(inlines))
	for _, in := range inlines {
		switch n := in.(type) {
		case *Text:
			out = append(out, Node{Type: "text", Raw: n.Value})
		case *Strong:
			out = append(out, Node{Type: "strong", Children: inlineNodes(n.Children)})
		case *Emphasis:
			out = append(out, Node{Type: "emphasis", Children: inlineNodes(n.Children)})
		case *Strikethrough:
			out = append(out, Node{Type: "strikethrough", Children: inlineNodes(n.Children)})
		case *CodeSpan:
			out = append(out, Node{Type: "codespan", Raw: n.Value})
		case *Link:
			out = append(out, Node{Type: "link", Attrs: map[string]any{"url": n.URL}, Children: inlineNodes(n.Children)})
		case *Image:
			out = append(out, Node{Type: "image", Raw: n.Alt, Attrs: map[string]any{"url": n.URL}})
		case *SoftBreak:
			out = append(out, Node{Type: "softbreak"})
		case *LineBreak:
			out = append(out, Node{Type: "linebreak"})
		}
	}
	return out
}

// Count returns the number of nodes in a generic tree, children included.
func Count(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Children)
	}
	return n
}

// Dump renders the tree as an indented outline for debugging.
func Dump(blocks []Block) string {
	var sb strings.Builder
	dump(&sb, Nodes(blocks), 0)
	return strings.TrimRight(sb.String(), "\n")
}

func dump(sb *strings.Builder, nodes []Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		sb.WriteString(indent + n.Type + "\n")
		if n.Raw != "" {
			fmt.Fprintf(sb, "%s  raw: %q\n", indent, truncate(n.Raw, 50))
		}
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(sb, "%s  %s: %v\n", indent, k, n.Attrs[k])
		}
		dump(sb, n.Children, depth+1)
	}
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
