package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dims       int
	batchFn    func(call int, texts []string) ([][]float32, error)
	embedFn    func(text string) ([]float32, error)
	batchCalls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	return f.vec(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string, _ string) ([][]float32, error) {
	call := f.batchCalls
	f.batchCalls++
	if f.batchFn != nil {
		return f.batchFn(call, texts)
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, f.vec(text))
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-model" }

func (f *fakeEmbedder) Dimensions() int { return f.dims }

func (f *fakeEmbedder) vec(text string) []float32 {
	out := make([]float32, f.dims)
	out[0] = float32(len(text))
	return out
}

func TestBatchEmbedderRejectsOversizedBatchSize(t *testing.T) {
	_, err := NewBatchEmbedder(&fakeEmbedder{dims: 3}, 100000, 1, time.Millisecond)
	require.Error(t, err)
}

func TestBatchEmbedderKeepsOrderAcrossWindows(t *testing.T) {
	fake := &fakeEmbedder{dims: 3}
	be, err := NewBatchEmbedder(fake, 2, 1, time.Millisecond)
	require.NoError(t, err)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := be.EmbedAll(context.Background(), texts, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		require.Equal(t, float32(len(text)), vectors[i][0])
	}
	require.Equal(t, 3, fake.batchCalls)
}

func TestBatchEmbedderRetriesTransientWindowFailure(t *testing.T) {
	fake := &fakeEmbedder{dims: 3}
	fake.batchFn = func(call int, texts []string) ([][]float32, error) {
		if call == 0 {
			return nil, fmt.Errorf("boom")
		}
		out := make([][]float32, 0, len(texts))
		for _, text := range texts {
			out = append(out, fake.vec(text))
		}
		return out, nil
	}
	be, err := NewBatchEmbedder(fake, 10, 3, time.Millisecond)
	require.NoError(t, err)

	vectors, err := be.EmbedAll(context.Background(), []string{"x", "yy"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Equal(t, float32(2), vectors[1][0])
	require.Equal(t, 2, fake.batchCalls)
}

func TestBatchEmbedderFallsBackToSingleItems(t *testing.T) {
	fake := &fakeEmbedder{dims: 3}
	fake.batchFn = func(int, []string) ([][]float32, error) {
		return nil, fmt.Errorf("batch api down")
	}
	fake.embedFn = func(text string) ([]float32, error) {
		if text == "bad" {
			return nil, fmt.Errorf("item rejected")
		}
		return fake.vec(text), nil
	}
	be, err := NewBatchEmbedder(fake, 10, 2, time.Millisecond)
	require.NoError(t, err)

	vectors, err := be.EmbedAll(context.Background(), []string{"ok", "bad", "fine"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, float32(2), vectors[0][0])
	require.Equal(t, make([]float32, 3), vectors[1])
	require.Equal(t, float32(4), vectors[2][0])
}

func TestBatchEmbedderSanitizesWrongDimensions(t *testing.T) {
	fake := &fakeEmbedder{dims: 3}
	fake.batchFn = func(_ int, texts []string) ([][]float32, error) {
		out := make([][]float32, 0, len(texts))
		for i, text := range texts {
			if i == 1 {
				out = append(out, []float32{1})
				continue
			}
			out = append(out, fake.vec(text))
		}
		return out, nil
	}
	be, err := NewBatchEmbedder(fake, 10, 1, time.Millisecond)
	require.NoError(t, err)

	vectors, err := be.EmbedAll(context.Background(), []string{"a", "b", "c"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, make([]float32, 3), vectors[1])
	require.Len(t, vectors[0], 3)
	require.Len(t, vectors[2], 3)
}

func TestBatchEmbedderStopsOnCancelledContext(t *testing.T) {
	fake := &fakeEmbedder{dims: 3}
	fake.batchFn = func(int, []string) ([][]float32, error) {
		return nil, fmt.Errorf("always fails")
	}
	be, err := NewBatchEmbedder(fake, 10, 3, time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = be.EmbedAll(ctx, []string{"a"}, "RETRIEVAL_DOCUMENT")
	require.ErrorIs(t, err, context.Canceled)
}
