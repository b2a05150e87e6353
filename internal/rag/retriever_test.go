package rag

import (
	"context"
	"errors"
	"testing"
)

func TestRetriever_EmptyStoreSkipsEmbedding(t *testing.T) {
	emb := &fakeEmbedder{}
	r := NewRetriever(NewStore(), emb)

	results, err := r.Retrieve(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if got := emb.calls.Load(); got != 0 {
		t.Errorf("empty store must not call the embedder, got %d calls", got)
	}
}

func TestRetriever_EmbedErrorPropagates(t *testing.T) {
	store := NewStore()
	store.Add(EmbeddedChunk{Embedding: []float32{1, 1}, Text: "x"})
	r := NewRetriever(store, &fakeEmbedder{err: errors.New("unavailable")})

	if _, err := r.Retrieve(context.Background(), "query", 3); err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestRetriever_ReturnsTopK(t *testing.T) {
	store := NewStore()
	store.Add(
		EmbeddedChunk{Embedding: []float32{5, 1}, Text: "near", Source: "a.txt"},
		EmbeddedChunk{Embedding: []float32{1, 5}, Text: "far", Source: "b.txt"},
	)
	// fakeEmbedder embeds "query" as {len("query"), 1} = {5, 1}.
	r := NewRetriever(store, &fakeEmbedder{})

	results, err := r.Retrieve(context.Background(), "query", 1)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Chunk.Text != "near" {
		t.Errorf("expected %q, got %q", "near", results[0].Chunk.Text)
	}
}
