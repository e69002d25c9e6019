package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/ai"
)

// BatchEmbedder turns an ordered chunk list into an equal-length ordered
// vector list. The provider is called in fixed-size windows; a window that
// keeps failing degrades to one call per item, and an item that still fails
// is replaced with a zero vector so positions stay aligned with the source
// chunks.
type BatchEmbedder struct {
	embedder   ai.IEmbedder
	batchSize  int
	maxRetries int
	backoff    time.Duration
}

func NewBatchEmbedder(embedder ai.IEmbedder, batchSize, maxRetries int, backoff time.Duration) (*BatchEmbedder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if batchSize > ai.MaxBatchItems {
		return nil, fmt.Errorf("embed batch size %d exceeds provider limit %d", batchSize, ai.MaxBatchItems)
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &BatchEmbedder{
		embedder:   embedder,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// EmbedAll returns exactly len(texts) vectors in input order. It only
// errors when the context is cancelled.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	logger := logutil.GetLogger(ctx)
	out := make([][]float32, 0, len(texts))
	total := (len(texts) + b.batchSize - 1) / b.batchSize
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		window := texts[start:end]
		vectors, err := b.embedWindow(ctx, window, taskType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("embed window failed, falling back to single items",
				zap.Int("batch", start/b.batchSize+1),
				zap.Int("total_batches", total),
				zap.Error(err),
			)
			vectors = b.embedIndividually(ctx, window, taskType)
		}
		out = append(out, vectors...)
		logger.Debug("embedded batch",
			zap.Int("batch", start/b.batchSize+1),
			zap.Int("total_batches", total),
			zap.Int("items", len(window)),
		)
	}
	return out, nil
}

func (b *BatchEmbedder) embedWindow(ctx context.Context, window []string, taskType string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < b.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, b.backoff, attempt); err != nil {
				return nil, err
			}
		}
		vectors, err := b.embedder.EmbedBatch(ctx, window, taskType)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vectors) != len(window) {
			lastErr = fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(window))
			continue
		}
		return b.sanitize(ctx, vectors), nil
	}
	return nil, lastErr
}

func (b *BatchEmbedder) embedIndividually(ctx context.Context, window []string, taskType string) [][]float32 {
	logger := logutil.GetLogger(ctx)
	vectors := make([][]float32, 0, len(window))
	for i, text := range window {
		vec, err := b.embedder.Embed(ctx, text, taskType)
		if err != nil || len(vec) != b.embedder.Dimensions() {
			logger.Warn("single embed failed, inserting zero vector", zap.Int("index", i), zap.Error(err))
			vec = b.zeroVector()
		}
		vectors = append(vectors, vec)
	}
	return vectors
}

// sanitize replaces vectors of unexpected dimensionality so that every
// stored embedding matches the configured index dimension.
func (b *BatchEmbedder) sanitize(ctx context.Context, vectors [][]float32) [][]float32 {
	dims := b.embedder.Dimensions()
	for i, vec := range vectors {
		if len(vec) != dims {
			logutil.GetLogger(ctx).Warn("unexpected embedding dimensionality",
				zap.Int("index", i),
				zap.Int("got", len(vec)),
				zap.Int("want", dims),
			)
			vectors[i] = b.zeroVector()
		}
	}
	return vectors
}

func (b *BatchEmbedder) zeroVector() []float32 {
	return make([]float32, b.embedder.Dimensions())
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) error {
	delay := base << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
