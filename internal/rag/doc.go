// Package rag implements the retrieval pipeline: chunking source documents,
// embedding them through the Gemini embedding API, holding the resulting
// vectors in an in-memory store for the process lifetime, and answering
// top-k cosine-similarity queries.
//
// Ingestion runs at most once per process; concurrent callers of
// Ingestor.EnsureIngested block until the single pass finishes. The corpus is
// treated as immutable after that pass unless a Watcher is running.
package rag
