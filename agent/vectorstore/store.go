package vectorstore

import (
	"fmt"
	"math"
	"sort"
	"sync"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// Store is an in-process cosine-similarity index. It holds exactly one
// vector per indexed unit: row-level granularity, no sub-document chunking.
// Reads are safe for concurrent use; writes are expected to be infrequent
// and out-of-band.
type Store struct {
	mu      sync.RWMutex
	records []record
	dim     int
}

type record struct {
	id       string
	text     string
	vec      []float32
	norm     float64
	metadata map[string]any
}

func New() *Store {
	return &Store{}
}

// Add indexes one unit. The first vector fixes the store dimension.
func (s *Store) Add(id string, text string, embedding []float32, metadata map[string]any) error {
	if id == "" {
		return fmt.Errorf("vectorstore: id is required")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("vectorstore: embedding is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(embedding)
	} else if len(embedding) != s.dim {
		return fmt.Errorf("vectorstore: embedding dimension %d does not match store dimension %d", len(embedding), s.dim)
	}

	vec := append([]float32(nil), embedding...)
	s.records = append(s.records, record{
		id:       id,
		text:     text,
		vec:      vec,
		norm:     vectorNorm(vec),
		metadata: metadata,
	})
	return nil
}

// Len reports the number of indexed units.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Query returns up to k hits ordered by cosine similarity, most similar
// first. Ties keep insertion order. An empty or dimension-mismatched store
// yields an empty slice rather than an error: retrieval is an enrichment.
func (s *Store) Query(embedding []float32, k int) []contractx.RetrievalHit {
	if len(embedding) == 0 || k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 || len(embedding) != s.dim {
		return nil
	}

	qNorm := vectorNorm(embedding)
	if qNorm == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, 0, len(s.records))
	for i, rec := range s.records {
		if rec.norm == 0 {
			continue
		}
		scores = append(scores, scored{idx: i, score: dot(embedding, rec.vec) / (qNorm * rec.norm)})
	}

	// SliceStable keeps insertion order for equal scores.
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	hits := make([]contractx.RetrievalHit, 0, k)
	for _, sc := range scores[:k] {
		rec := s.records[sc.idx]
		hits = append(hits, contractx.RetrievalHit{
			Text:     rec.text,
			Score:    sc.score,
			SourceID: rec.id,
		})
	}
	return hits
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
