package retrieval

import (
	"encoding/json"
	"sort"

	"github.com/jobpulse/jobpulse/server/vectorindex"
)

// DefaultRRFSmoothing is the K constant in the reciprocal rank fusion
// formula 1/(rank+K). It discounts low ranks and keeps the rank-0
// contribution bounded.
const DefaultRRFSmoothing = 60

// documentKey is the canonical identity of a document for fusion:
// content plus metadata, excluding the per-query score. Structurally
// identical documents retrieved under different queries fuse into a
// single entry.
func documentKey(doc *vectorindex.Document) string {
	b, err := json.Marshal(struct {
		PostingID string `json:"posting_id"`
		Title     string `json:"title"`
		Company   string `json:"company"`
		Location  string `json:"location"`
		URL       string `json:"url"`
		Content   string `json:"content"`
	}{doc.PostingID, doc.Title, doc.Company, doc.Location, doc.URL, doc.Content})
	if err != nil {
		return doc.PostingID + "\x00" + doc.Content
	}
	return string(b)
}

type fusedDocument struct {
	doc   *vectorindex.Document
	score float64
}

// fuseRanked merges per-query ranked lists with reciprocal rank fusion:
// each document accumulates sum of 1/(rank+smoothing) over the lists it
// appears in, rank being its zero-based position in that list. Ties are
// broken by first-seen order across the lists, which makes the output
// deterministic for a fixed list order. At most k documents are
// returned, with Score set to the fused score.
func fuseRanked(lists [][]*vectorindex.Document, k, smoothing int) []*vectorindex.Document {
	scores := make(map[string]*fusedDocument)
	var order []string

	for _, list := range lists {
		for rank, doc := range list {
			key := documentKey(doc)
			entry, ok := scores[key]
			if !ok {
				entry = &fusedDocument{doc: doc}
				scores[key] = entry
				order = append(order, key)
			}
			entry.score += 1.0 / float64(rank+smoothing)
		}
	}

	fused := make([]*fusedDocument, 0, len(order))
	for _, key := range order {
		fused = append(fused, scores[key])
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].score > fused[j].score
	})

	if k >= 0 && len(fused) > k {
		fused = fused[:k]
	}
	result := make([]*vectorindex.Document, 0, len(fused))
	for _, f := range fused {
		doc := *f.doc
		doc.Score = float32(f.score)
		result = append(result, &doc)
	}
	return result
}
