package chunker

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Semantic groups adjacent sentences by embedding similarity. Each
// sentence is embedded once; a sentence joins the current group while its
// cosine similarity to the group centroid stays at or above the
// threshold and the group stays within maxTokens. Output is flat: every
// segment has an empty ParentID.
type Semantic struct {
	embedder  driven.EmbeddingService
	maxTokens int
	threshold float64
}

// NewSemantic creates a semantic chunker backed by the given embedder.
func NewSemantic(settings domain.ChunkingSettings, embedder driven.EmbeddingService) *Semantic {
	return &Semantic{
		embedder:  embedder,
		maxTokens: settings.MaxTokens,
		threshold: settings.SimilarityThreshold,
	}
}

// Chunk implements the Chunker interface.
func (s *Semantic) Chunk(ctx context.Context, doc *domain.Document) ([]domain.TextSegment, error) {
	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return nil, nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embedding sentences for semantic chunking: %w", err)
	}
	if len(vectors) != len(sentences) {
		return nil, fmt.Errorf("embedding sentences for semantic chunking: got %d vectors for %d sentences", len(vectors), len(sentences))
	}

	groups := s.group(sentences, vectors)

	locator := newPageLocator(doc)
	segments := make([]domain.TextSegment, 0, len(groups))
	for i, g := range groups {
		segments = append(segments, domain.TextSegment{
			ID:         segmentID(doc.ID, i),
			DocumentID: doc.ID,
			Text:       g.text(),
			PageNumber: locator.locate(g.sentences[0]),
			OrderIndex: i,
		})
	}
	return segments, nil
}

// sentenceGroup accumulates adjacent sentences and their centroid.
type sentenceGroup struct {
	sentences []string
	tokens    int
	centroid  []float64
	count     int
}

func (g *sentenceGroup) text() string {
	return strings.Join(g.sentences, " ")
}

func (g *sentenceGroup) add(sentence string, tokens int, vector []float32) {
	if g.centroid == nil {
		g.centroid = make([]float64, len(vector))
	}
	for i, v := range vector {
		g.centroid[i] += float64(v)
	}
	g.count++
	g.sentences = append(g.sentences, sentence)
	g.tokens += tokens
}

// similarity is the cosine similarity between the group centroid and a
// candidate vector.
func (g *sentenceGroup) similarity(vector []float32) float64 {
	var dot, normA, normB float64
	n := g.count
	for i, v := range vector {
		c := g.centroid[i] / float64(n)
		dot += c * float64(v)
		normA += c * c
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// group walks sentences in order, extending the current group while the
// candidate stays similar to the centroid and within the token budget.
func (s *Semantic) group(sentences []string, vectors [][]float32) []*sentenceGroup {
	var groups []*sentenceGroup
	var current *sentenceGroup

	for i, sentence := range sentences {
		tokens := countTokens(sentence)
		if current != nil &&
			current.tokens+tokens <= s.maxTokens &&
			current.similarity(vectors[i]) >= s.threshold {
			current.add(sentence, tokens, vectors[i])
			continue
		}
		current = &sentenceGroup{}
		current.add(sentence, tokens, vectors[i])
		groups = append(groups, current)
	}
	return groups
}
