package rag

import (
	"strings"
	"testing"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("hello world", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", chunks[0])
	}
}

func TestSplitText_EmptyAndWhitespace(t *testing.T) {
	if got := SplitText("", 100, 10); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := SplitText("   \n\t  ", 100, 10); got != nil {
		t.Errorf("expected nil for whitespace text, got %v", got)
	}
}

func TestSplitText_NormalizesWhitespace(t *testing.T) {
	chunks := SplitText("a  b\n\nc\td", 100, 10)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a b c d" {
		t.Errorf("expected normalized text, got %q", chunks[0])
	}
}

func TestSplitText_ChunkCount(t *testing.T) {
	// Continuous text without spaces: window boundaries are exact, so the
	// count formula ceil((L-O)/(S-O)) holds precisely.
	const size, overlap = 50, 10
	text := strings.Repeat("abcdefghij", 30) // L = 300
	chunks := SplitText(text, size, overlap)

	l, stride := len(text), size-overlap
	want := (l - overlap + stride - 1) / stride // ceil((L-O)/(S-O))
	if len(chunks) != want {
		t.Errorf("expected %d chunks for L=%d S=%d O=%d, got %d", want, l, size, overlap, len(chunks))
	}
}

func TestSplitText_OverlapReconstructsText(t *testing.T) {
	const size, overlap = 40, 15
	text := strings.Repeat("0123456789", 25)
	chunks := SplitText(text, size, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	rebuilt := chunks[0]
	for _, c := range chunks[1:] {
		if len(c) < overlap {
			rebuilt += c // final short chunk is pure overlap remainder
			continue
		}
		rebuilt += c[overlap:]
	}
	if rebuilt != text {
		t.Errorf("reconstruction mismatch:\nwant %q\ngot  %q", text, rebuilt)
	}
}

func TestSplitText_ChunksCoverTextInOrder(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)
	norm := strings.Join(strings.Fields(text), " ")
	chunks := SplitText(text, 120, 30)

	if !strings.HasPrefix(norm, chunks[0]) {
		t.Errorf("first chunk does not start the text: %q", chunks[0])
	}
	if !strings.HasSuffix(norm, chunks[len(chunks)-1]) {
		t.Errorf("last chunk does not end the text: %q", chunks[len(chunks)-1])
	}
	pos := 0
	for i, c := range chunks {
		idx := strings.Index(norm[pos:], c)
		if idx < 0 {
			t.Fatalf("chunk %d not found in order: %q", i, c)
		}
		pos += idx + 1
	}
}

func TestSplitText_InvalidGeometry(t *testing.T) {
	if got := SplitText("some text", 0, 0); got != nil {
		t.Errorf("expected nil for non-positive size, got %v", got)
	}
	// Overlap >= size is clamped rather than looping forever.
	chunks := SplitText(strings.Repeat("x", 100), 10, 10)
	if len(chunks) == 0 {
		t.Fatal("expected chunks with clamped overlap")
	}
}
