package ai

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

// Chunker splits markdown documents along their heading structure so that a
// chunk never straddles two top-level sections. Oversized sections are cut
// further by the plain-text splitter.
type Chunker struct {
	splitter *Splitter
}

func NewChunker(splitter *Splitter) *Chunker {
	if splitter == nil {
		splitter = NewSplitter(0, 0)
	}
	return &Chunker{splitter: splitter}
}

func (c *Chunker) Chunk(ctx context.Context, markdown string) []string {
	logger := logutil.GetLogger(ctx)
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var chunks []string
	var currentParts []string
	var currentHeading string

	flush := func() {
		if len(currentParts) == 0 {
			return
		}
		content := strings.Join(currentParts, "\n\n")
		if currentHeading != "" {
			content = "Heading: " + currentHeading + "\n" + content
		}
		for _, piece := range c.splitter.Split(content) {
			chunks = append(chunks, piece)
		}
		currentParts = nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level == 1 || n.Level == 2 {
				flush()
				currentHeading = string(n.Text(reader.Source()))
			} else {
				currentParts = append(currentParts, string(n.Text(reader.Source())))
			}
		case *ast.FencedCodeBlock:
			lang := string(n.Language(reader.Source()))
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			currentParts = append(currentParts, "```"+lang+"\n"+code.String()+"\n```")
		default:
			txt := extractText(node, reader.Source())
			if txt == "" {
				continue
			}
			currentParts = append(currentParts, txt)
		}
	}
	flush()
	logger.Debug("markdown chunking completed", zap.Int("size", len(markdown)), zap.Int("total_chunks", len(chunks)))
	return chunks
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Type() == ast.TypeBlock || node.Type() == ast.TypeInline {
			if node.Kind() == ast.KindText {
				sb.Write(node.(*ast.Text).Segment.Value(source))
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
