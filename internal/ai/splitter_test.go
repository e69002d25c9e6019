package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitterKeepsShortTextWhole(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("a short paragraph")
	require.Equal(t, []string{"a short paragraph"}, chunks)
}

func TestSplitterDropsWhitespaceOnly(t *testing.T) {
	s := NewSplitter(100, 20)
	require.Empty(t, s.Split("   \n\n   "))
}

func TestSplitterRespectsChunkSize(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("word ", 100)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 50)
		require.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitterPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(40, 0)
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	require.Contains(t, chunks[0], "first paragraph")
}

func TestSplitterHardSplitsUnbrokenText(t *testing.T) {
	s := NewSplitter(30, 5)
	text := strings.Repeat("x", 100)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	joined := strings.Join(chunks, "")
	require.Contains(t, joined, strings.Repeat("x", 30))
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 30)
	}
}

func TestSplitterCarriesOverlap(t *testing.T) {
	s := NewSplitter(30, 15)
	text := "aaaa bbbb cccc dddd eeee ffff gggg hhhh"
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	// Consecutive chunks share at least one word of context.
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		require.Contains(t, chunks[i], prevWords[len(prevWords)-1])
	}
}
