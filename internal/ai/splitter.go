package ai

import (
	"strings"
)

// Splitter cuts extracted document text into overlapping chunks, mirroring
// the recursive character strategy the frontend uses for client-side parsing
// (chunk size 1500, overlap 200).
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 200
		if overlap >= chunkSize {
			overlap = chunkSize / 4
		}
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

var separators = []string{"\n\n", "\n", " ", ""}

// Split returns the chunks of text in order. Whitespace-only pieces are
// dropped; every returned chunk is non-empty and at most ChunkSize runes.
func (s *Splitter) Split(text string) []string {
	pieces := s.split([]rune(strings.TrimSpace(text)), 0)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *Splitter) split(runes []rune, sepIdx int) []string {
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{string(runes)}
	}
	if sepIdx >= len(separators) {
		return s.hardSplit(runes)
	}
	sep := separators[sepIdx]
	if sep == "" {
		return s.hardSplit(runes)
	}
	parts := strings.Split(string(runes), sep)
	var splits []string
	for _, part := range parts {
		partRunes := []rune(part)
		if len(partRunes) > s.ChunkSize {
			splits = append(splits, s.split(partRunes, sepIdx+1)...)
			continue
		}
		splits = append(splits, part)
	}
	return s.merge(splits, sep)
}

// merge greedily packs adjacent splits into chunks up to ChunkSize, carrying
// the tail of each chunk into the next one as overlap.
func (s *Splitter) merge(splits []string, sep string) []string {
	var chunks []string
	var current []string
	currentLen := 0
	sepLen := len([]rune(sep))

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, sep))
		// Keep trailing pieces up to the overlap budget.
		keep := 0
		keepLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			pieceLen := len([]rune(current[i])) + sepLen
			if keepLen+pieceLen > s.Overlap {
				break
			}
			keepLen += pieceLen
			keep++
		}
		current = append([]string(nil), current[len(current)-keep:]...)
		currentLen = keepLen
	}

	for _, piece := range splits {
		pieceLen := len([]rune(piece))
		if currentLen+pieceLen+sepLen > s.ChunkSize && currentLen > 0 {
			flush()
		}
		current = append(current, piece)
		currentLen += pieceLen + sepLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}

func (s *Splitter) hardSplit(runes []rune) []string {
	var chunks []string
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
