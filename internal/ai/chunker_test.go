package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerSplitsOnTopLevelHeadings(t *testing.T) {
	c := NewChunker(NewSplitter(1500, 200))
	md := "# Intro\n\nsome intro text\n\n## Details\n\ndetail text here\n"
	chunks := c.Chunk(context.Background(), md)
	require.Len(t, chunks, 2)
	require.True(t, strings.HasPrefix(chunks[0], "Heading: Intro"))
	require.True(t, strings.HasPrefix(chunks[1], "Heading: Details"))
	require.Contains(t, chunks[0], "some intro text")
	require.Contains(t, chunks[1], "detail text here")
}

func TestChunkerKeepsFencedCode(t *testing.T) {
	c := NewChunker(NewSplitter(1500, 200))
	md := "# Code\n\n```go\nfmt.Println(\"hi\")\n```\n"
	chunks := c.Chunk(context.Background(), md)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0], "```go")
	require.Contains(t, chunks[0], "fmt.Println")
}

func TestChunkerSplitsOversizedSections(t *testing.T) {
	c := NewChunker(NewSplitter(60, 10))
	md := "# Big\n\n" + strings.Repeat("lots of words in this section ", 20)
	chunks := c.Chunk(context.Background(), md)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 60)
	}
}

func TestChunkerHandlesPlainMarkdown(t *testing.T) {
	c := NewChunker(nil)
	chunks := c.Chunk(context.Background(), "just a plain paragraph without headings")
	require.Len(t, chunks, 1)
	require.Equal(t, "just a plain paragraph without headings", chunks[0])
}
