package filing

import (
	"fmt"
	"strings"
	"testing"
)

// makeText builds a block of n distinct words so overlap can be verified
// by word identity.
func makeText(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func TestChunkDocument_WindowsAndOverlap(t *testing.T) {
	doc := &Document{Blocks: []Block{
		{Section: "Business", Page: 1, Text: makeText("w", 1000)},
	}}

	chunks := ChunkDocument(doc, "filing")
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	c0 := strings.Fields(chunks[0].Text)
	c1 := strings.Fields(chunks[1].Text)
	c2 := strings.Fields(chunks[2].Text)
	if len(c0) != 500 || len(c1) != 500 || len(c2) != 200 {
		t.Fatalf("chunk word counts = %d, %d, %d; want 500, 500, 200", len(c0), len(c1), len(c2))
	}

	// Consecutive chunks share the last 100 words of the earlier one.
	if got, want := c1[0], "w400"; got != want {
		t.Errorf("second chunk starts at %q, want %q", got, want)
	}
	if got, want := c0[499], c1[99]; got != want {
		t.Errorf("overlap mismatch: %q vs %q", got, want)
	}
	if got, want := c2[0], "w800"; got != want {
		t.Errorf("third chunk starts at %q, want %q", got, want)
	}

	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunks[%d].ChunkIndex = %d, want %d", i, c.ChunkIndex, i)
		}
		if c.SourceID != "filing" {
			t.Errorf("chunks[%d].SourceID = %q, want %q", i, c.SourceID, "filing")
		}
		if c.Section != "Business" {
			t.Errorf("chunks[%d].Section = %q, want %q", i, c.Section, "Business")
		}
	}
}

func TestChunkDocument_SkipsTinySections(t *testing.T) {
	doc := &Document{Blocks: []Block{
		{Section: "General", Page: 1, Text: makeText("g", 30)},
		{Section: "Business", Page: 1, Text: makeText("b", 200)},
	}}

	chunks := ChunkDocument(doc, "filing")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Section != "Business" {
		t.Errorf("Section = %q, want %q", chunks[0].Section, "Business")
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("ChunkIndex = %d, want 0", chunks[0].ChunkIndex)
	}
}

func TestChunkDocument_NeverCrossesSections(t *testing.T) {
	doc := &Document{Blocks: []Block{
		{Section: "Business", Page: 1, Text: makeText("a", 600)},
		{Section: "Risk Factors", Page: 4, Text: makeText("r", 600)},
	}}

	chunks := ChunkDocument(doc, "filing")
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}

	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunks[%d].ChunkIndex = %d, want %d", i, c.ChunkIndex, i)
		}
		words := strings.Fields(c.Text)
		prefix := words[0][:1]
		for _, w := range words {
			if !strings.HasPrefix(w, prefix) {
				t.Fatalf("chunks[%d] mixes sections: %q and %q", i, words[0], w)
			}
		}
	}
	if chunks[1].Section != "Business" || chunks[2].Section != "Risk Factors" {
		t.Errorf("sections = %q, %q; want Business, Risk Factors", chunks[1].Section, chunks[2].Section)
	}
}

func TestChunkDocument_PageOfFirstWord(t *testing.T) {
	// The second window starts at word 400, which falls in the page-3 block.
	doc := &Document{Blocks: []Block{
		{Section: "Business", Page: 1, Text: makeText("a", 300)},
		{Section: "Business", Page: 3, Text: makeText("b", 300)},
	}}

	chunks := ChunkDocument(doc, "filing")
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Page != 1 {
		t.Errorf("chunks[0].Page = %d, want 1", chunks[0].Page)
	}
	if chunks[1].Page != 3 {
		t.Errorf("chunks[1].Page = %d, want 3", chunks[1].Page)
	}
}

func TestChunkDocument_Empty(t *testing.T) {
	chunks := ChunkDocument(&Document{}, "filing")
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
}
