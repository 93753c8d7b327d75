package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jobpulse/jobpulse/plugin/ai"
	"github.com/jobpulse/jobpulse/store"
)

// LocalIndex is a brute-force cosine index persisted as a JSON file. It
// serves the sqlite deployment, where the database itself has no vector
// support. Fine for the tens of thousands of postings a single scrape
// source produces; larger corpora belong on the pgvector index.
type LocalIndex struct {
	mu               sync.RWMutex
	path             string
	entries          []localEntry
	byID             map[string]int
	embeddingService ai.EmbeddingService
}

var _ Index = (*LocalIndex)(nil)

type localEntry struct {
	PostingID string    `json:"posting_id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

type localFile struct {
	Entries   []localEntry `json:"entries"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewLocalIndex opens (or creates) the index file at path.
func NewLocalIndex(path string, embeddingService ai.EmbeddingService) (*LocalIndex, error) {
	idx := &LocalIndex{
		path:             path,
		byID:             make(map[string]int),
		embeddingService: embeddingService,
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *LocalIndex) load() error {
	data, err := os.ReadFile(idx.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index file: %w", err)
	}

	var file localFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}

	idx.entries = file.Entries
	idx.byID = make(map[string]int, len(file.Entries))
	for i, e := range file.Entries {
		idx.byID[e.PostingID] = i
	}
	return nil
}

// save persists the index atomically (write to temp file, then rename) so a
// crash mid-write never corrupts the on-disk index. Caller holds the lock.
func (idx *LocalIndex) save() error {
	data, err := json.Marshal(localFile{
		Entries:   idx.entries,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	tmp := idx.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (idx *LocalIndex) Upsert(ctx context.Context, posting *store.Posting) error {
	content := BuildText(posting)

	vector, err := idx.embeddingService.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed posting %s: %w", posting.ID, err)
	}

	entry := localEntry{
		PostingID: posting.ID,
		Title:     truncateMeta(posting.Title),
		Company:   truncateMeta(posting.Company),
		Location:  truncateMeta(posting.Location),
		URL:       posting.URL,
		Content:   content,
		Embedding: vector,
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if i, ok := idx.byID[entry.PostingID]; ok {
		idx.entries[i] = entry
	} else {
		idx.byID[entry.PostingID] = len(idx.entries)
		idx.entries = append(idx.entries, entry)
	}
	return idx.save()
}

func (idx *LocalIndex) Search(ctx context.Context, query string, k int) ([]*Document, error) {
	if k <= 0 {
		k = 10
	}

	// The query path favors availability over correctness: a provider
	// failure yields no results, not an error. Upsert keeps the strict
	// contract so sync can count and retry.
	vector, err := idx.embeddingService.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, returning no results", "error", err)
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		entry *localEntry
		score float32
	}
	candidates := make([]scored, 0, len(idx.entries))
	for i := range idx.entries {
		candidates = append(candidates, scored{
			entry: &idx.entries[i],
			score: cosineSimilarity(vector, idx.entries[i].Embedding),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	docs := make([]*Document, 0, len(candidates))
	for _, c := range candidates {
		docs = append(docs, &Document{
			PostingID: c.entry.PostingID,
			Title:     c.entry.Title,
			Company:   c.entry.Company,
			Location:  c.entry.Location,
			URL:       c.entry.URL,
			Content:   c.entry.Content,
			Score:     c.score,
		})
	}
	return docs, nil
}

func (idx *LocalIndex) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
