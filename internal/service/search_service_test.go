package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
	"github.com/xxxsen/pdfchat/internal/repo"
)

func newTestSearchService(t *testing.T, store ChunkStore) *SearchService {
	t.Helper()
	be, err := NewBatchEmbedder(&fakeEmbedder{dims: 3}, 100, 1, time.Millisecond)
	require.NoError(t, err)
	return NewSearchService(store, be)
}

func TestSearchValidatesInput(t *testing.T) {
	svc := newTestSearchService(t, &fakeChunkStore{})

	_, err := svc.Search(context.Background(), SearchRequest{UserID: "", Query: "q"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Search(context.Background(), SearchRequest{UserID: "u1", Query: "  "})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSearchUnifiedIssuesOneScan(t *testing.T) {
	var gotLimits []int
	var gotFilters []*repo.Filter
	store := &fakeChunkStore{}
	store.searchFn = func(filter *repo.Filter, n int) ([]model.SearchResult, error) {
		gotFilters = append(gotFilters, filter)
		gotLimits = append(gotLimits, n)
		return []model.SearchResult{
			{PDFID: "p1", ChunkText: "a", Distance: 0.1},
			{PDFID: "p2", ChunkText: "b", Distance: 0.2},
		}, nil
	}
	svc := newTestSearchService(t, store)

	results, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		PDFIDs: []string{"p1", "p2", "p3"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, gotLimits, 1)
	require.Equal(t, defaultSearchLimit, gotLimits[0])

	where, args := gotFilters[0].Compile(1)
	require.Contains(t, where, "user_id = $1")
	require.Contains(t, where, "pdf_id IN ($2, $3, $4)")
	require.Equal(t, []interface{}{"u1", "p1", "p2", "p3"}, args)
}

func TestSearchIndividualBudgetsPerDocument(t *testing.T) {
	var gotLimits []int
	store := &fakeChunkStore{}
	store.searchFn = func(filter *repo.Filter, n int) ([]model.SearchResult, error) {
		gotLimits = append(gotLimits, n)
		_, args := filter.Compile(1)
		pdfID := args[1].(string)
		return []model.SearchResult{
			{PDFID: pdfID, ChunkText: "hit", Distance: float64(len(pdfID))},
		}, nil
	}
	svc := newTestSearchService(t, store)

	results, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		PDFIDs: []string{"ppp", "pp", "p"},
		Mode:   SearchModeIndividual,
		Limit:  9,
	})
	require.NoError(t, err)
	require.Equal(t, []int{3, 3, 3}, gotLimits)
	require.Len(t, results, 3)
	// Re-ranked by distance across documents.
	require.Equal(t, "p", results[0].PDFID)
	require.Equal(t, "pp", results[1].PDFID)
	require.Equal(t, "ppp", results[2].PDFID)
}

func TestSearchIndividualKeepsMinimumBudget(t *testing.T) {
	var gotLimits []int
	store := &fakeChunkStore{}
	store.searchFn = func(_ *repo.Filter, n int) ([]model.SearchResult, error) {
		gotLimits = append(gotLimits, n)
		return nil, nil
	}
	svc := newTestSearchService(t, store)

	_, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		PDFIDs: []string{"p1", "p2", "p3", "p4"},
		Mode:   SearchModeIndividual,
		Limit:  4,
	})
	require.NoError(t, err)
	require.Equal(t, []int{3, 3, 3, 3}, gotLimits)
}

func TestSearchIndividualTruncatesMergedResults(t *testing.T) {
	store := &fakeChunkStore{}
	store.searchFn = func(filter *repo.Filter, n int) ([]model.SearchResult, error) {
		_, args := filter.Compile(1)
		pdfID := args[1].(string)
		out := make([]model.SearchResult, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, model.SearchResult{PDFID: pdfID, ChunkText: "c", Distance: float64(i)})
		}
		return out, nil
	}
	svc := newTestSearchService(t, store)

	results, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		PDFIDs: []string{"p1", "p2"},
		Mode:   SearchModeIndividual,
		Limit:  4,
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestSearchIndividualFailsWhenStoreErrors(t *testing.T) {
	storeErr := fmt.Errorf("store down")
	store := &fakeChunkStore{}
	store.searchFn = func(*repo.Filter, int) ([]model.SearchResult, error) {
		return nil, storeErr
	}
	svc := newTestSearchService(t, store)

	results, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		PDFIDs: []string{"p1", "p2"},
		Mode:   SearchModeIndividual,
	})
	require.ErrorIs(t, err, storeErr)
	require.Nil(t, results)
}

func TestSearchIndividualAbortsOnFirstFailedDocument(t *testing.T) {
	storeErr := fmt.Errorf("store down")
	calls := 0
	store := &fakeChunkStore{}
	store.searchFn = func(filter *repo.Filter, _ int) ([]model.SearchResult, error) {
		calls++
		_, args := filter.Compile(1)
		if args[1].(string) == "p2" {
			return nil, storeErr
		}
		return []model.SearchResult{{PDFID: args[1].(string), ChunkText: "hit", Distance: 0.1}}, nil
	}
	svc := newTestSearchService(t, store)

	_, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		PDFIDs: []string{"p1", "p2", "p3"},
		Mode:   SearchModeIndividual,
	})
	require.ErrorIs(t, err, storeErr)
	require.Equal(t, 2, calls)
}

func TestSearchIndividualWithoutIDsFallsBackToUnified(t *testing.T) {
	calls := 0
	store := &fakeChunkStore{}
	store.searchFn = func(filter *repo.Filter, n int) ([]model.SearchResult, error) {
		calls++
		where, _ := filter.Compile(1)
		require.Equal(t, "user_id = $1", where)
		return nil, nil
	}
	svc := newTestSearchService(t, store)

	_, err := svc.Search(context.Background(), SearchRequest{
		UserID: "u1",
		Query:  "topic",
		Mode:   SearchModeIndividual,
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}
