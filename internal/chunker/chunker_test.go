package chunker

import (
	"strings"
	"testing"

	"github.com/codelens-dev/codelens/internal/parser"
	"github.com/codelens-dev/codelens/internal/store"
)

func TestChunkEmitsSymbolAndFileChunks(t *testing.T) {
	text := "package sample\n\nfunc A() {\n\treturn\n}\n\nfunc B() {\n\treturn\n}\n"
	symbols := []parser.Symbol{
		{Name: "A", Kind: store.KindFunction, StartLine: 3, EndLine: 5},
		{Name: "B", Kind: store.KindFunction, StartLine: 7, EndLine: 9},
	}

	chunks := Chunk(text, symbols, DefaultOptions())

	var symbolChunks, fileChunks int
	for _, c := range chunks {
		switch c.Type {
		case store.ChunkSymbol:
			symbolChunks++
		case store.ChunkFile:
			fileChunks++
			if c.SymbolIndex != -1 {
				t.Errorf("file chunk should have SymbolIndex -1, got %d", c.SymbolIndex)
			}
			if c.Text != text {
				t.Error("file chunk text should be the whole file")
			}
		}
	}
	if symbolChunks != 2 {
		t.Errorf("expected 2 symbol chunks, got %d", symbolChunks)
	}
	if fileChunks != 1 {
		t.Errorf("expected exactly 1 file chunk, got %d", fileChunks)
	}
}

func TestChunkSkipsSymbolsWithUnknownSpan(t *testing.T) {
	text := "package sample\n"
	symbols := []parser.Symbol{
		{Name: "pkg", Kind: store.KindModule, StartLine: 1, EndLine: 0},
	}
	chunks := Chunk(text, symbols, DefaultOptions())
	for _, c := range chunks {
		if c.Type == store.ChunkSymbol {
			t.Error("symbol with EndLine 0 should not produce a symbol chunk")
		}
	}
}

func TestChunkSplitsOversizedSymbolIntoBlocksNoGapsNoOverlap(t *testing.T) {
	var b strings.Builder
	b.WriteString("func Big() {\n")
	for i := 0; i < 50; i++ {
		b.WriteString("\tstmt()\n")
		if i%10 == 9 {
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
	text := b.String()
	totalLines := len(strings.Split(text, "\n"))

	symbols := []parser.Symbol{
		{Name: "Big", Kind: store.KindFunction, StartLine: 1, EndLine: totalLines - 1},
	}

	chunks := Chunk(text, symbols, Options{MaxChunkLines: 10})

	var blocks []store.NewChunk
	for _, c := range chunks {
		if c.Type == store.ChunkBlock {
			blocks = append(blocks, c)
		}
	}
	if len(blocks) < 2 {
		t.Fatalf("expected the oversized symbol to split into multiple blocks, got %d", len(blocks))
	}

	for i, blk := range blocks {
		if blk.SymbolIndex != -1 {
			t.Errorf("block %d covers only part of the symbol's span and should carry no back-reference, got %d", i, blk.SymbolIndex)
		}
		if blk.EndLine-blk.StartLine+1 > 10 {
			t.Errorf("block %d exceeds max line count: %d-%d", i, blk.StartLine, blk.EndLine)
		}
		if i > 0 && blk.StartLine != blocks[i-1].EndLine+1 {
			t.Errorf("gap or overlap between block %d (ends %d) and block %d (starts %d)",
				i-1, blocks[i-1].EndLine, i, blk.StartLine)
		}
	}
	if blocks[0].StartLine != symbols[0].StartLine {
		t.Errorf("first block should start at symbol start, got %d want %d", blocks[0].StartLine, symbols[0].StartLine)
	}
	if blocks[len(blocks)-1].EndLine != symbols[0].EndLine {
		t.Errorf("last block should end at symbol end, got %d want %d", blocks[len(blocks)-1].EndLine, symbols[0].EndLine)
	}
}

func TestChunkHandlesOverlappingSymbolSpans(t *testing.T) {
	text := "func Outer() {\n\tfunc Inner() {}\n}\n"
	symbols := []parser.Symbol{
		{Name: "Outer", Kind: store.KindFunction, StartLine: 1, EndLine: 3},
		{Name: "Inner", Kind: store.KindFunction, StartLine: 2, EndLine: 2},
	}
	chunks := Chunk(text, symbols, DefaultOptions())
	var symbolChunks int
	for _, c := range chunks {
		if c.Type == store.ChunkSymbol {
			symbolChunks++
		}
	}
	if symbolChunks != 2 {
		t.Errorf("overlapping symbols should each still get their own chunk, got %d", symbolChunks)
	}
}

func TestChunkClampsSpanToFileLength(t *testing.T) {
	text := "func A() {}\n"
	symbols := []parser.Symbol{
		{Name: "A", Kind: store.KindFunction, StartLine: 1, EndLine: 99},
	}
	chunks := Chunk(text, symbols, DefaultOptions())
	for _, c := range chunks {
		if c.Type == store.ChunkSymbol && c.EndLine > len(strings.Split(text, "\n")) {
			t.Errorf("symbol chunk end line %d exceeds file length", c.EndLine)
		}
	}
}
