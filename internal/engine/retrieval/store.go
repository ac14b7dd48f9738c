// Package retrieval implements the vector store and parameterized
// routing automaton backing retrieval tools (spec §4.H). Rows are kept
// in process memory; cosine distance is plain math.Sqrt/dot-product
// arithmetic (no vector-DB library is in the pack's dependency surface,
// a documented non-goal — see DESIGN.md). Index selection (brute force
// below VECTOR_INDEX_MIN_ROWS, an injected ANN backend above it) mirrors
// the teacher's threshold-gated strategy switches elsewhere in the stack.
package retrieval

import (
	"math"
	"sort"

	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// Embedding is a single embedded text vector.
type Embedding []float32

// EmbeddedText pairs raw text with its embedding, per spec §4.H's
// retrieval_inclusions/retrieval_exclusions row fields.
type EmbeddedText struct {
	Text      string
	Embedding Embedding
}

// SourceRow is one ingested retrieval source, matching spec §4.H's row
// schema verbatim: content, source_type, source_identifier, the
// inclusion/exclusion text+embedding lists, and the inclusion midpoint +
// radius used as the ANN/brute-force search key.
type SourceRow struct {
	Content              string
	SourceType           string
	SourceIdentifier     string
	RetrievalInclusions  []EmbeddedText
	RetrievalExclusions  []EmbeddedText
	InclusionMidpoint    Embedding
	InclusionRadius      float32
}

// RetrievalObject is the ingestion-time record a caller builds before it
// is embedded and folded into a SourceRow (spec glossary: "ingestion
// unit of inclusions/exclusions tied to a source identifier").
type RetrievalObject struct {
	SourceIdentifier string
	SourceType       string
	Inclusions       []string
	Exclusions       []string
	IsChild          bool
	ContextContent   string
}

// ANNIndex is the interface an external approximate-nearest-neighbor
// backend would implement; the reference engine ships no concrete ANN
// backend (non-goal — see DESIGN.md's retrieval entry), only this seam and the
// brute-force fallback used below VECTOR_INDEX_MIN_ROWS.
type ANNIndex interface {
	// Search returns the indices of rows, best (lowest distance) first.
	Search(query Embedding, rows []SourceRow, topK int) []int
}

// DefaultVectorIndexMinRows is the row-count threshold spec §4.H's search
// algorithm step 2 switches on.
const DefaultVectorIndexMinRows = 5000

// Store is the retrieval vector store: an in-memory slice of SourceRows
// searched by cosine distance, step 2 delegating to ann once the row
// count crosses minRows.
type Store struct {
	rows    []SourceRow
	ann     ANNIndex
	minRows int
}

// NewStore builds a Store. ann may be nil (pure brute force regardless of
// row count); minRows <= 0 defaults to DefaultVectorIndexMinRows.
func NewStore(ann ANNIndex, minRows int) *Store {
	if minRows <= 0 {
		minRows = DefaultVectorIndexMinRows
	}
	return &Store{ann: ann, minRows: minRows}
}

// Ingest appends rows to the store; rows already present for the same
// SourceIdentifier are kept, not replaced.
// RetrievalObjects are rebuilt on each reindex per spec §3's lifecycle
// note, so Ingest always appends fresh rows rather than trying to
// reconcile in place; callers that reindex call Reset first.
func (s *Store) Ingest(rows ...SourceRow) {
	s.rows = append(s.rows, rows...)
}

// Reset clears all ingested rows, used before a full reindex.
func (s *Store) Reset() {
	s.rows = nil
}

// Len reports the number of ingested rows.
func (s *Store) Len() int { return len(s.rows) }

// Search implements spec §4.H's search algorithm steps 2-4: vector-search
// the inclusion-midpoint column (ANN above minRows, brute force below),
// reject hits whose nearest exclusion is at least as close as their
// nearest inclusion, rank the remainder by inclusion distance ascending,
// and return the top K.
func (s *Store) Search(query Embedding, topK int) []output.SearchRecord {
	candidateIdx := s.candidateIndices(query)

	records := make([]output.SearchRecord, 0, len(candidateIdx))
	for _, idx := range candidateIdx {
		row := s.rows[idx]

		minInclusion, ok := minDistance(query, row.RetrievalInclusions)
		if !ok {
			continue
		}
		minExclusion, hasExclusions := minDistance(query, row.RetrievalExclusions)
		if hasExclusions && minExclusion <= minInclusion {
			// Exclusion wins on tie (spec §4.H step 3).
			continue
		}

		records = append(records, output.SearchRecord{
			Document: output.Document{
				ID:      row.SourceIdentifier,
				Kind:    row.SourceType,
				Content: row.Content,
			},
			Distance: minInclusion,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Distance < records[j].Distance
	})

	if topK > 0 && len(records) > topK {
		records = records[:topK]
	}
	return records
}

// candidateIndices runs step 2: ANN over the inclusion midpoints once
// there are at least minRows rows and an ANN backend is configured,
// brute force (every row is a candidate) otherwise.
func (s *Store) candidateIndices(query Embedding) []int {
	if s.ann != nil && len(s.rows) >= s.minRows {
		return s.ann.Search(query, s.rows, len(s.rows))
	}
	idx := make([]int, len(s.rows))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// minDistance returns the smallest cosine distance from query to any
// embedding in texts, and whether texts was non-empty.
func minDistance(query Embedding, texts []EmbeddedText) (float64, bool) {
	if len(texts) == 0 {
		return 0, false
	}
	best := math.MaxFloat64
	for _, t := range texts {
		d := CosineDistance(query, t.Embedding)
		if d < best {
			best = d
		}
	}
	return best, true
}

// CosineDistance is 1 - cosine similarity; 0 means identical direction.
func CosineDistance(a, b Embedding) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return math.MaxFloat64
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - similarity
}
