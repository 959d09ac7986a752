package filing

import "strings"

const (
	// chunkWords is the fixed chunk window in words.
	chunkWords = 500
	// chunkOverlap is how many words consecutive chunks share, so a passage
	// split by a window boundary still appears whole in one of them.
	chunkOverlap = 100
	// minChunkWords drops trailing fragments too short to retrieve usefully.
	minChunkWords = 50
)

// Chunk is the unit of indexing and retrieval: a bounded span of filing text
// with the section label and page of its position in the source document.
type Chunk struct {
	SourceID   string
	Section    string
	Page       int
	ChunkIndex int
	Text       string
}

// taggedWord carries the page its source block started on, so a chunk can
// take the page of its first word.
type taggedWord struct {
	text string
	page int
}

// ChunkDocument splits a parsed document into fixed-size overlapping word
// windows. Windows never cross section boundaries, so every chunk's section
// label covers its entire span. ChunkIndex is strictly increasing across the
// whole document.
func ChunkDocument(doc *Document, sourceID string) []Chunk {
	var chunks []Chunk
	index := 0

	for _, run := range sectionRuns(doc.Blocks) {
		words := runWords(run)
		step := chunkWords - chunkOverlap

		for start := 0; start < len(words); start += step {
			end := min(start+chunkWords, len(words))
			if end-start < minChunkWords {
				break
			}

			texts := make([]string, end-start)
			for i, w := range words[start:end] {
				texts[i] = w.text
			}

			chunks = append(chunks, Chunk{
				SourceID:   sourceID,
				Section:    run[0].Section,
				Page:       words[start].page,
				ChunkIndex: index,
				Text:       strings.Join(texts, " "),
			})
			index++

			if end == len(words) {
				break
			}
		}
	}

	return chunks
}

// sectionRuns groups consecutive blocks sharing a section label.
func sectionRuns(blocks []Block) [][]Block {
	var runs [][]Block
	for _, b := range blocks {
		if n := len(runs); n > 0 && runs[n-1][0].Section == b.Section {
			runs[n-1] = append(runs[n-1], b)
			continue
		}
		runs = append(runs, []Block{b})
	}
	return runs
}

func runWords(run []Block) []taggedWord {
	var words []taggedWord
	for _, b := range run {
		for _, w := range strings.Fields(b.Text) {
			words = append(words, taggedWord{text: w, page: b.Page})
		}
	}
	return words
}
