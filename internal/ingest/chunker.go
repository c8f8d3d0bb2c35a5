// Package ingest indexes report documents into the vector store and the
// document catalog.
package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkRunes = 50
	maxChunkRunes = 700 // targets roughly 450 tokens for the embedding model
)

// Section is one chunk of a report, scoped to its heading.
type Section struct {
	Index   int
	Heading string
	Text    string
}

// Chunker splits markdown reports into sections using goldmark AST parsing.
type Chunker struct {
	parser goldmark.Markdown
}

// NewChunker creates a markdown chunker with table support.
func NewChunker() *Chunker {
	return &Chunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Chunk parses markdown and returns heading-scoped sections. Sections smaller
// than the minimum merge into their neighbor; oversized sections split at
// paragraph boundaries.
func (c *Chunker) Chunk(content []byte) []Section {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))
	sections := c.collectSections(doc, content)
	sections = mergeSmall(sections)
	sections = splitLarge(sections)

	for i := range sections {
		sections[i].Index = i
	}
	return sections
}

// collectSections walks the AST, starting a new section at each heading and
// accumulating the text beneath it.
func (c *Chunker) collectSections(doc ast.Node, content []byte) []Section {
	var sections []Section
	var current *Section

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			sections = append(sections, *current)
		}
	}
	ensure := func() {
		if current == nil {
			current = &Section{}
		}
	}
	appendLine := func() {
		if current != nil && current.Text != "" && !strings.HasSuffix(current.Text, "\n") {
			current.Text += "\n"
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			flush()
			current = &Section{Heading: nodeText(node, content)}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			ensure()
			current.Text += string(node.Segment.Value(content))

		case *ast.String:
			ensure()
			current.Text += string(node.Value)

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			ensure()
			appendLine()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				current.Text += string(seg.Value(content))
			}

		case *ast.Paragraph, *ast.List, *ast.ListItem:
			appendLine()

		default:
			kind := n.Kind().String()
			if kind == "TableRow" || kind == "TableHeader" {
				ensure()
				appendLine()
				current.Text += tableRowText(n, content) + "\n"
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})

	flush()
	return sections
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// tableRowText joins the cells of a table row with pipe separators.
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind().String() == "TableCell" {
			cells = append(cells, nodeText(node, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(cells, " | ")
}

// mergeSmall folds sections below the minimum size into the following
// section so isolated headings don't become their own chunks.
func mergeSmall(sections []Section) []Section {
	if len(sections) < 2 {
		return sections
	}

	var result []Section
	for i := 0; i < len(sections); i++ {
		current := sections[i]
		for utf8.RuneCountInString(current.Text) < minChunkRunes && i+1 < len(sections) {
			next := sections[i+1]
			merged := current.Text + "\n\n" + next.Text
			if utf8.RuneCountInString(merged) > maxChunkRunes {
				break
			}
			if current.Heading == "" {
				current.Heading = next.Heading
			}
			current.Text = merged
			i++
		}
		result = append(result, current)
	}
	return result
}

// splitLarge cuts oversized sections at paragraph, then line, then sentence
// boundaries, falling back to a hard cut.
func splitLarge(sections []Section) []Section {
	var result []Section
	for _, section := range sections {
		if utf8.RuneCountInString(section.Text) <= maxChunkRunes {
			result = append(result, section)
			continue
		}

		runes := []rune(section.Text)
		for start := 0; start < len(runes); {
			end := start + maxChunkRunes
			if end >= len(runes) {
				result = append(result, Section{Heading: section.Heading, Text: string(runes[start:])})
				break
			}

			window := string(runes[start:end])
			cut := len([]rune(window))
			if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
				cut = utf8.RuneCountInString(window[:idx]) + 2
			} else if idx := strings.LastIndex(window, "\n"); idx > 0 {
				cut = utf8.RuneCountInString(window[:idx]) + 1
			} else if idx := strings.LastIndex(window, ". "); idx > 0 {
				cut = utf8.RuneCountInString(window[:idx]) + 2
			}

			result = append(result, Section{Heading: section.Heading, Text: string(runes[start : start+cut])})
			start += cut
		}
	}
	return result
}
