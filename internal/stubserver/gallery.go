package stubserver

import (
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
)

const galleryMaxNeighbors = 16

// galleryEntry is one enrolled reference embedding, keyed by student ID.
type galleryEntry struct {
	StudentID int64
	Embedding []float32
}

// Match is the nearest enrolled student for a probe frame.
type Match struct {
	StudentID  int64
	Confidence float64 // 0..100, higher is closer
}

// Gallery indexes enrolled face embeddings for nearest-neighbor matching.
// HNSW does not support true deletion, so removed students stay in the
// graph and are filtered out of search results via the entry map.
type Gallery struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[int64]
	entries map[int64]*galleryEntry
	removed int // stale graph nodes left behind by Remove
}

func NewGallery() *Gallery {
	return &Gallery{entries: make(map[int64]*galleryEntry)}
}

func newGalleryGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = galleryMaxNeighbors
	g.Ml = 1.0 / float64(galleryMaxNeighbors)
	g.Distance = hnsw.CosineDistance
	return g
}

// Enroll adds or replaces the reference embedding for a student.
func (g *Gallery) Enroll(studentID int64, embedding []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.graph == nil {
		g.graph = newGalleryGraph()
	}
	g.graph.Add(hnsw.MakeNode(studentID, embedding))
	g.entries[studentID] = &galleryEntry{StudentID: studentID, Embedding: embedding}
}

// Remove drops a student from matching.
func (g *Gallery) Remove(studentID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.entries[studentID]; !ok {
		return
	}
	delete(g.entries, studentID)
	g.removed++
}

// EmbeddingFor returns the enrolled reference embedding for a student.
func (g *Gallery) EmbeddingFor(studentID int64) ([]float32, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	entry, ok := g.entries[studentID]
	if !ok {
		return nil, false
	}
	return entry.Embedding, true
}

// Size reports the number of enrolled students.
func (g *Gallery) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Match finds the closest enrolled student to the probe embedding and
// converts its cosine distance to a 0..100 confidence. Returns nil when
// the gallery is empty.
func (g *Gallery) Match(probe []float32) *Match {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.graph == nil || len(g.entries) == 0 {
		return nil
	}

	// Over-fetch so every stale node left by Remove can be skipped and a
	// live entry is still reached, even when removed students cluster
	// nearest the probe.
	neighbors := g.graph.Search(probe, len(g.entries)+g.removed)
	for _, n := range neighbors {
		entry, ok := g.entries[n.Key]
		if !ok {
			continue
		}
		dist := embeddingDistance(probe, entry.Embedding)
		return &Match{
			StudentID:  entry.StudentID,
			Confidence: (1 - dist) * 100,
		}
	}
	return nil
}

// Save writes a gob snapshot of the enrolled entries. The graph itself is
// cheap to rebuild, so only the embeddings are persisted.
func (g *Gallery) Save(path string) error {
	g.mu.RLock()
	entries := make([]galleryEntry, 0, len(g.entries))
	for _, e := range g.entries {
		entries = append(entries, *e)
	}
	g.mu.RUnlock()

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("creating gallery snapshot: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		return fmt.Errorf("encoding gallery snapshot: %w", err)
	}
	return nil
}

// Load restores a snapshot written by Save and rebuilds the search graph.
func (g *Gallery) Load(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("opening gallery snapshot: %w", err)
	}
	defer f.Close()

	var entries []galleryEntry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("decoding gallery snapshot: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.graph = newGalleryGraph()
	g.entries = make(map[int64]*galleryEntry, len(entries))
	g.removed = 0
	for i := range entries {
		e := entries[i]
		g.graph.Add(hnsw.MakeNode(e.StudentID, e.Embedding))
		g.entries[e.StudentID] = &e
	}
	return nil
}
