package service

import (
	"context"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
	"github.com/xxxsen/pdfchat/internal/repo"
)

const (
	SearchModeUnified    = "unified"
	SearchModeIndividual = "individual"

	defaultSearchLimit = 20
	minPerDocumentHits = 3
)

type SearchRequest struct {
	UserID string
	Query  string
	PDFIDs []string
	Mode   string
	Limit  int
}

type SearchService struct {
	store    ChunkStore
	embedder *BatchEmbedder
}

func NewSearchService(store ChunkStore, embedder *BatchEmbedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// Search embeds the query once and runs either a single filtered scan
// across the selected documents, or one scan per document with a shared
// result budget.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]model.SearchResult, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Query) == "" {
		return nil, appErr.ErrInvalid
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}
	if req.Mode == "" {
		req.Mode = SearchModeUnified
	}

	vector, err := s.embedder.embedder.Embed(ctx, req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to embed query", zap.Error(err))
		return nil, err
	}

	if req.Mode == SearchModeIndividual && len(req.PDFIDs) > 0 {
		return s.searchIndividual(ctx, req, vector)
	}
	return s.searchUnified(ctx, req, vector)
}

// searchUnified issues one nearest-neighbor scan; the document selection
// collapses into the filter so the store returns a globally ranked list.
func (s *SearchService) searchUnified(ctx context.Context, req SearchRequest, vector []float32) ([]model.SearchResult, error) {
	filter := repo.NewFilter().Equals("user_id", req.UserID).AnyOf("pdf_id", req.PDFIDs...)
	results, err := s.store.Search(ctx, vector, filter, req.Limit)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("unified search done",
		zap.Int("pdf_ids", len(req.PDFIDs)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// searchIndividual scans each document separately so a poorly matching
// document still contributes hits, then re-ranks the union by distance.
// A failed store call aborts the whole request; an empty 200 would be
// indistinguishable from "no matches" to the caller.
func (s *SearchService) searchIndividual(ctx context.Context, req SearchRequest, vector []float32) ([]model.SearchResult, error) {
	perDoc := req.Limit / len(req.PDFIDs)
	if perDoc < minPerDocumentHits {
		perDoc = minPerDocumentHits
	}
	var merged []model.SearchResult
	for _, pdfID := range req.PDFIDs {
		filter := repo.NewFilter().Equals("user_id", req.UserID).Equals("pdf_id", pdfID)
		results, err := s.store.Search(ctx, vector, filter, perDoc)
		if err != nil {
			logutil.GetLogger(ctx).Error("per-document search failed",
				zap.String("pdf_id", pdfID),
				zap.Error(err),
			)
			return nil, err
		}
		merged = append(merged, results...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}
	return merged, nil
}
