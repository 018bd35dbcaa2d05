// Package chunker implements the Chunking Service: it turns a file's text
// and the symbols a Parser extracted from it into the indexable Chunks the
// store persists.
package chunker

import (
	"strings"

	"github.com/codelens-dev/codelens/internal/parser"
	"github.com/codelens-dev/codelens/internal/store"
)

// DefaultMaxChunkLines bounds a single chunk's size. Longer symbol
// bodies are split on blank lines into sequential block chunks.
const DefaultMaxChunkLines = 200

// Options configures Chunk's line-count ceiling.
type Options struct {
	MaxChunkLines int
}

// DefaultOptions returns the default chunking options.
func DefaultOptions() Options {
	return Options{MaxChunkLines: DefaultMaxChunkLines}
}

// Chunk implements the chunk(text, symbols) -> [Chunk] contract:
//  1. every symbol with a known line span gets one symbol chunk, or, if its
//     span exceeds MaxChunkLines, a sequential run of back-reference-free
//     block chunks that together cover the span with no gaps and no overlap;
//  2. the whole file always gets one mandatory file chunk;
//  3. overlapping symbol spans each still get their own chunk — dedup
//     across chunks is the query router's job, not this package's.
func Chunk(text string, symbols []parser.Symbol, opts Options) []store.NewChunk {
	maxLines := opts.MaxChunkLines
	if maxLines <= 0 {
		maxLines = DefaultMaxChunkLines
	}

	lines := splitLines(text)
	var chunks []store.NewChunk

	for i, sym := range symbols {
		if sym.EndLine <= 0 || sym.StartLine <= 0 || sym.EndLine < sym.StartLine {
			continue
		}
		start, end := clampLineRange(sym.StartLine, sym.EndLine, len(lines))
		if start > end {
			continue
		}
		span := lines[start-1 : end]

		if len(span) <= maxLines {
			chunks = append(chunks, store.NewChunk{
				SymbolIndex: i,
				Type:        store.ChunkSymbol,
				StartLine:   start,
				EndLine:     end,
				Text:        strings.Join(span, "\n"),
			})
			continue
		}

		// Overflow blocks cover only part of the symbol's span, so they
		// carry no symbol back-reference: a chunk with one must contain
		// the whole span.
		for _, block := range splitOnBlankLines(span, maxLines) {
			chunks = append(chunks, store.NewChunk{
				SymbolIndex: -1,
				Type:        store.ChunkBlock,
				StartLine:   start + block.startOffset,
				EndLine:     start + block.endOffset,
				Text:        strings.Join(span[block.startOffset:block.endOffset+1], "\n"),
			})
		}
	}

	chunks = append(chunks, store.NewChunk{
		SymbolIndex: -1,
		Type:        store.ChunkFile,
		StartLine:   1,
		EndLine:     len(lines),
		Text:        text,
	})

	return chunks
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// clampLineRange keeps a symbol's reported span inside the file's actual
// line count, defending against a parser reporting a stale or
// off-by-a-trailing-newline span.
func clampLineRange(start, end, total int) (int, int) {
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}
	return start, end
}

type blockRange struct {
	startOffset int // 0-indexed, inclusive, relative to span
	endOffset   int // 0-indexed, inclusive, relative to span
}

// splitOnBlankLines divides span into sequential, non-overlapping,
// gap-free blocks no longer than maxLines, preferring to cut on a blank
// line within the current block's tail so a block doesn't end mid
// statement when a natural boundary is available nearby.
func splitOnBlankLines(span []string, maxLines int) []blockRange {
	var blocks []blockRange
	offset := 0
	for offset < len(span) {
		limit := offset + maxLines
		if limit > len(span) {
			limit = len(span)
		}
		cut := limit - 1

		if limit < len(span) {
			if blank := lastBlankLine(span, offset, limit-1); blank >= 0 && blank > offset {
				cut = blank
			}
		}

		blocks = append(blocks, blockRange{startOffset: offset, endOffset: cut})
		offset = cut + 1
	}
	return blocks
}

// lastBlankLine returns the highest index in [from, to] whose line is
// blank (after trimming), or -1 if none.
func lastBlankLine(span []string, from, to int) int {
	for i := to; i >= from; i-- {
		if strings.TrimSpace(span[i]) == "" {
			return i
		}
	}
	return -1
}
