package index

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/kalambet/edgarqa/internal/filing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestVector(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.001
	}
	return v
}

func makeRecord(id string, chunkIndex int, embedding []float32) Record {
	return Record{
		ID: id,
		Chunk: filing.Chunk{
			SourceID:   "filing",
			Section:    "Business",
			Page:       1,
			ChunkIndex: chunkIndex,
			Text:       "text " + id,
		},
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
}

func TestReplaceAndSearch(t *testing.T) {
	s := openTestStore(t)

	vec := makeTestVector(768, 0.1)
	if err := s.Replace("filing", []Record{makeRecord("r1", 0, vec)}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := s.Search(vec, "filing", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Record.ID != "r1" {
		t.Errorf("ID = %q, want %q", results[0].Record.ID, "r1")
	}
	if results[0].Score < 0.99 {
		t.Errorf("score = %f, want > 0.99", results[0].Score)
	}
	if results[0].Chunk.Section != "Business" {
		t.Errorf("Section = %q, want %q", results[0].Chunk.Section, "Business")
	}
}

func TestReplace_SwapsAtomically(t *testing.T) {
	s := openTestStore(t)

	vec := makeTestVector(8, 0.1)
	if err := s.Replace("filing", []Record{
		makeRecord("old1", 0, vec),
		makeRecord("old2", 1, vec),
	}); err != nil {
		t.Fatalf("first Replace: %v", err)
	}

	if err := s.Replace("filing", []Record{makeRecord("new1", 0, vec)}); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	count, err := s.Count("filing")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	results, err := s.Search(vec, "filing", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Record.ID != "new1" {
		t.Errorf("results = %+v, want only new1", results)
	}
}

func TestReplace_OtherSourcesUntouched(t *testing.T) {
	s := openTestStore(t)

	vec := makeTestVector(8, 0.1)
	other := makeRecord("other", 0, vec)
	other.Chunk.SourceID = "other-filing"
	if err := s.Replace("other-filing", []Record{other}); err != nil {
		t.Fatalf("Replace other: %v", err)
	}
	if err := s.Replace("filing", []Record{makeRecord("r1", 0, vec)}); err != nil {
		t.Fatalf("Replace filing: %v", err)
	}

	count, err := s.Count("other-filing")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("other-filing count = %d, want 1", count)
	}
}

func TestSearch_TopKOrdering(t *testing.T) {
	s := openTestStore(t)

	// Orthogonal-ish vectors with decreasing similarity to the query.
	query := []float32{1, 0, 0, 0}
	records := []Record{
		makeRecord("far", 0, []float32{0, 1, 0, 0}),
		makeRecord("close", 1, []float32{1, 0.1, 0, 0}),
		makeRecord("exact", 2, []float32{1, 0, 0, 0}),
		makeRecord("mid", 3, []float32{1, 1, 0, 0}),
	}
	if err := s.Replace("filing", records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := s.Search(query, "filing", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantOrder := []string{"exact", "close", "mid"}
	for i, want := range wantOrder {
		if results[i].Record.ID != want {
			t.Errorf("results[%d].ID = %q, want %q", i, results[i].Record.ID, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending: %f then %f", results[i-1].Score, results[i].Score)
		}
	}
}

func TestSearch_TieBreakByChunkIndex(t *testing.T) {
	s := openTestStore(t)

	vec := makeTestVector(8, 0.5)
	// Identical embeddings: identical scores, so order must follow chunk index.
	records := []Record{
		makeRecord("c2", 2, vec),
		makeRecord("c0", 0, vec),
		makeRecord("c1", 1, vec),
	}
	if err := s.Replace("filing", records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := s.Search(vec, "filing", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Record.ID != "c0" || results[1].Record.ID != "c1" {
		t.Errorf("tie-break order = %q, %q; want c0, c1", results[0].Record.ID, results[1].Record.ID)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	s := openTestStore(t)

	results, err := s.Search(makeTestVector(8, 0.1), "filing", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearch_ZeroQueryVector(t *testing.T) {
	s := openTestStore(t)

	if err := s.Replace("filing", []Record{makeRecord("r1", 0, makeTestVector(8, 0.1))}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := s.Search(make([]float32, 8), "filing", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSections_DocumentOrder(t *testing.T) {
	s := openTestStore(t)

	vec := makeTestVector(8, 0.1)
	records := []Record{
		makeRecord("a", 0, vec),
		makeRecord("b", 1, vec),
		makeRecord("c", 2, vec),
	}
	records[0].Chunk.Section = "Business"
	records[1].Chunk.Section = "Risk Factors"
	records[2].Chunk.Section = "Business"
	if err := s.Replace("filing", records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	sections, err := s.Sections("filing")
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	want := []string{"Business", "Risk Factors"}
	if len(sections) != len(want) {
		t.Fatalf("got %d sections, want %d", len(sections), len(want))
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Errorf("sections[%d] = %q, want %q", i, sections[i], want[i])
		}
	}
}

func TestDeleteSource(t *testing.T) {
	s := openTestStore(t)

	if err := s.Replace("filing", []Record{makeRecord("r1", 0, makeTestVector(8, 0.1))}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := s.DeleteSource("filing"); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}

	count, err := s.Count("filing")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestEncodeDecodeFloat32s(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, float32(math.Pi)}
	decoded, err := decodeFloat32s(encodeFloat32s(vec))
	if err != nil {
		t.Fatalf("decodeFloat32s: %v", err)
	}
	if len(decoded) != len(vec) {
		t.Fatalf("got %d values, want %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("decoded[%d] = %f, want %f", i, decoded[i], vec[i])
		}
	}
}

func TestDecodeFloat32s_BadLength(t *testing.T) {
	if _, err := decodeFloat32s([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not divisible by 4")
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	tests := []struct {
		b    []float32
		want float32
	}{
		{[]float32{1, 0}, 1},
		{[]float32{0, 1}, 0},
		{[]float32{-1, 0}, -1},
	}
	for _, tt := range tests {
		got := cosine(a, tt.b, norm(a))
		if math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("cosine(%v, %v) = %f, want %f", a, tt.b, got, tt.want)
		}
	}
}

func TestSearch_LargeScan(t *testing.T) {
	s := openTestStore(t)

	var records []Record
	for i := 0; i < 200; i++ {
		records = append(records, makeRecord(fmt.Sprintf("r%d", i), i, makeTestVector(64, float32(i)*0.01)))
	}
	if err := s.Replace("filing", records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := s.Search(makeTestVector(64, 0.42), "filing", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("got %d results, want 5", len(results))
	}
}
