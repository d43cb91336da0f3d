// Package preview renders terminal previews for the picker preview window.
// Plain text is cleaned up and size-capped; markdown keeps its structure by
// going through the goldmark AST instead of printing raw markup.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// maxPreviewBytes caps how much of a file is read for preview.
	maxPreviewBytes = 256 << 10
	// sniffBytes is how much of the head is checked for binary content.
	sniffBytes = 8 << 10
)

var (
	trailingSpace = regexp.MustCompile(`[ \t\r]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Sanitize normalizes a text blob for display: trailing whitespace before
// newlines is dropped and runs of three or more blank lines collapse to
// one blank line.
func Sanitize(s string) string {
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return s
}

// isBinary sniffs for NUL bytes in the head of the content.
func isBinary(data []byte) bool {
	head := data
	if len(head) > sniffBytes {
		head = head[:sniffBytes]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// Render writes a preview of path to w. Binary files produce a short
// notice instead of garbage; markdown files are flattened to readable
// text; everything else is sanitized plain text.
func Render(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPreviewBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if isBinary(data) {
		fmt.Fprintf(w, "%s: binary file, no preview\n", filepath.Base(path))
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return renderMarkdown(w, data)
	default:
		_, err := io.WriteString(w, Sanitize(string(data)))
		return err
	}
}

// renderMarkdown walks the goldmark AST and prints a plain-text rendition
// keeping heading levels, list bullets and code blocks recognizable.
func renderMarkdown(w io.Writer, src []byte) error {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			fmt.Fprintf(&out, "\n%s %s\n", strings.Repeat("#", node.Level), nodeText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			fmt.Fprintf(&out, "  - %s\n", nodeText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			fmt.Fprintf(&out, "%s\n\n", nodeText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				fmt.Fprintf(&out, "    %s", seg.Value(src))
			}
			out.WriteByte('\n')
			return ast.WalkSkipChildren, nil
		case *ast.ThematicBreak:
			out.WriteString("----\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	_, err = io.WriteString(w, Sanitize(strings.TrimLeft(out.String(), "\n")))
	return err
}

// nodeText collects the text content of n and its descendants.
func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
