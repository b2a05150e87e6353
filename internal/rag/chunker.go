package rag

import "strings"

// SplitText splits text into overlapping windows of size bytes with the given
// overlap, after normalizing all whitespace runs to single spaces. Windows are
// trimmed and empty results dropped. Text no longer than size yields exactly
// one chunk. Pure function, no error conditions.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return nil
	}
	if len(norm) <= size {
		return []string{norm}
	}

	stride := size - overlap
	var chunks []string
	for start := 0; start < len(norm); start += stride {
		end := start + size
		if end > len(norm) {
			end = len(norm)
		}
		if c := strings.TrimSpace(norm[start:end]); c != "" {
			chunks = append(chunks, c)
		}
		if end == len(norm) {
			break
		}
	}
	return chunks
}
