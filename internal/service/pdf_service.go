package service

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/filestore"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

// PDFService turns uploaded files into chunk lists for ingestion. PDFs go
// through text extraction, markdown keeps its heading structure, anything
// else is treated as plain text.
type PDFService struct {
	splitter *ai.Splitter
	chunker  *ai.Chunker
	store    filestore.IFileStore
}

func NewPDFService(splitter *ai.Splitter, chunker *ai.Chunker, store filestore.IFileStore) *PDFService {
	if splitter == nil {
		splitter = ai.NewSplitter(0, 0)
	}
	if chunker == nil {
		chunker = ai.NewChunker(splitter)
	}
	return &PDFService{splitter: splitter, chunker: chunker, store: store}
}

func (s *PDFService) ExtractChunks(ctx context.Context, filename string, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, appErr.ErrInvalid
	}
	var chunks []string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text := extractPDFText(data)
		chunks = s.splitter.Split(string(text))
	case ".md", ".markdown":
		chunks = s.chunker.Chunk(ctx, string(data))
	default:
		chunks = s.splitter.Split(string(data))
	}
	if len(chunks) == 0 {
		return nil, appErr.ErrNoValidChunks
	}
	logutil.GetLogger(ctx).Debug("extracted chunks from upload",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// SaveOriginal archives the raw upload when a file store is configured.
// Archival failure is logged, not propagated; the ingest already has the
// parsed chunks.
func (s *PDFService) SaveOriginal(ctx context.Context, userID, filename string, data []byte) {
	if s.store == nil {
		return
	}
	key := userID + "/" + filepath.Base(filename)
	if err := s.store.Save(ctx, key, bytes.NewReader(data)); err != nil {
		logutil.GetLogger(ctx).Warn("failed to archive upload",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func extractPDFText(data []byte) []byte {
	if r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		if reader, err := r.GetPlainText(); err == nil {
			if out, err := io.ReadAll(reader); err == nil && len(out) > 0 {
				return out
			}
		}
	}
	return extractPrintableText(data)
}

// extractPrintableText is the fallback for malformed PDFs: keep whatever
// printable runes are embedded in the byte stream.
func extractPrintableText(in []byte) []byte {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			if b := in[0]; b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			out.WriteRune(r)
		}
	}
	return out.Bytes()
}
