package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
	"github.com/xxxsen/pdfchat/internal/repo"
)

func TestListPDFsRequiresUserID(t *testing.T) {
	svc := NewDocumentService(&fakeChunkStore{})
	_, err := svc.ListPDFs(context.Background(), "  ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestListPDFsReturnsStoreDocuments(t *testing.T) {
	store := &fakeChunkStore{documents: []model.PDFInfo{
		{PDFID: "p1", PDFName: "a.pdf"},
		{PDFID: "p2", PDFName: "b.pdf"},
	}}
	svc := NewDocumentService(store)

	pdfs, err := svc.ListPDFs(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, pdfs, 2)
}

func TestGetChunksShortCircuitsOnEmptySelection(t *testing.T) {
	called := false
	store := &fakeChunkStore{}
	store.queryFn = func(*repo.Filter, int) ([]model.ChunkRecord, error) {
		called = true
		return nil, nil
	}
	svc := NewDocumentService(store)

	chunks, err := svc.GetChunks(context.Background(), "u1", nil, 0)
	require.NoError(t, err)
	require.Empty(t, chunks)
	require.False(t, called)
}

func TestGetChunksAppliesDefaultLimitAndFilter(t *testing.T) {
	var gotLimit int
	var gotFilter *repo.Filter
	store := &fakeChunkStore{}
	store.queryFn = func(filter *repo.Filter, limit int) ([]model.ChunkRecord, error) {
		gotFilter = filter
		gotLimit = limit
		return []model.ChunkRecord{{ID: 1, PDFID: "p1"}}, nil
	}
	svc := NewDocumentService(store)

	chunks, err := svc.GetChunks(context.Background(), "u1", []string{"p1", "p2"}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, defaultChunkLimit, gotLimit)

	where, args := gotFilter.Compile(1)
	require.Contains(t, where, "user_id = $1")
	require.Contains(t, where, "pdf_id IN ($2, $3)")
	require.Equal(t, []interface{}{"u1", "p1", "p2"}, args)
}
