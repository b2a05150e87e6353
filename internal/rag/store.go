package rag

import (
	"math"
	"sort"
	"sync"
)

// Chunk is a bounded slice of a source document used as a retrieval unit.
type Chunk struct {
	Text   string
	Source string
}

// EmbeddedChunk is a Chunk plus its embedding vector. Created during
// ingestion, never mutated, held for the process lifetime.
type EmbeddedChunk struct {
	Embedding []float32
	Text      string
	Source    string
}

// Result is a retrieval hit with its cosine similarity score.
type Result struct {
	Chunk EmbeddedChunk
	Score float64
}

// Store is an in-memory vector store. It is safe for concurrent use; reads
// take a shared lock so searches from in-flight requests do not serialize.
type Store struct {
	mu     sync.RWMutex
	chunks []EmbeddedChunk
}

// NewStore creates an empty vector store.
func NewStore() *Store {
	return &Store{}
}

// Add appends chunks to the store.
func (s *Store) Add(chunks ...EmbeddedChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
}

// Replace swaps the store contents. Used only by watch-mode re-ingestion;
// the normal lifecycle populates the store once and never mutates it.
func (s *Store) Replace(chunks []EmbeddedChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = chunks
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Search returns the k stored chunks most similar to the query vector, sorted
// descending by cosine similarity. Ties keep insertion order. An empty store
// or non-positive k yields an empty result, never an error.
func (s *Store) Search(query []float32, k int) []Result {
	if k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, Result{
			Chunk: c,
			Score: CosineSimilarity(query, c.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths or a zero-norm vector yield 0, guarding the division.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
