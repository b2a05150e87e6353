package rag

import (
	"context"
	"fmt"

	"github.com/btvvardhan/chatbot-backend/internal/gemini"
)

// Retriever answers top-k similarity queries against the vector store.
type Retriever struct {
	store    *Store
	embedder Embedder
}

// NewRetriever creates a Retriever over the given store and embedder.
func NewRetriever(store *Store, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve embeds the query and returns the k most similar stored chunks,
// fewer if the store holds fewer. An empty store short-circuits without
// calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	if r.store.Len() == 0 {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, query, gemini.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return r.store.Search(vec, k), nil
}
