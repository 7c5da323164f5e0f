package retrieval

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

const defaultTopK = 4

// VectorIndex is the nearest-neighbor contract the retriever depends on.
type VectorIndex interface {
	Query(embedding []float32, k int) []contractx.RetrievalHit
}

// Retriever embeds a query and returns the top-K grounding snippets.
// It is side-effect free and degrades to an empty result on any failure:
// retrieval enriches answers, it never gates them.
type Retriever struct {
	embedder contractx.Embedder
	index    VectorIndex
	topK     int
	logger   zerolog.Logger
}

func New(embedder contractx.Embedder, index VectorIndex, topK int, logger zerolog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retriever: embedder is required")
	}
	if index == nil {
		return nil, errors.New("retriever: vector index is required")
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		logger:   logger,
	}, nil
}

var _ contractx.Retriever = (*Retriever)(nil)

func (r *Retriever) Retrieve(ctx context.Context, query string) []contractx.RetrievalHit {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn().Err(err).Msg("retrieval degraded: query embedding failed")
		return nil
	}

	hits := r.index.Query(emb, r.topK)
	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}
	return hits
}
