package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"
)

// MemoryGraphStorage implements store.GraphStorage with plain maps. It backs
// tests and local development runs that have no database available.
type MemoryGraphStorage struct {
	mu            sync.RWMutex
	papers        map[string]common.Paper
	topics        map[string]string
	contents      map[string]common.PaperContent
	relationships []common.Relationship
}

// NewMemoryGraphStorage creates an empty in-memory store.
func NewMemoryGraphStorage() *MemoryGraphStorage {
	return &MemoryGraphStorage{
		papers:   make(map[string]common.Paper),
		topics:   make(map[string]string),
		contents: make(map[string]common.PaperContent),
	}
}

// StorePaper creates or updates a paper. Existing content is kept when the
// update carries none.
func (s *MemoryGraphStorage) StorePaper(ctx context.Context, paper common.Paper, topic string, content []byte) error {
	if paper.ID == "" {
		return fmt.Errorf("failed to store paper: empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(content) > 0 {
		paper.HasFullContent = true
		s.contents[paper.ID] = common.PaperContent{
			PaperID:        paper.ID,
			Content:        content,
			ContentType:    paper.ContentType,
			HasFullContent: true,
		}
	} else if existing, ok := s.contents[paper.ID]; ok {
		paper.HasFullContent = existing.HasFullContent
	}

	s.papers[paper.ID] = paper
	s.topics[paper.ID] = topic
	return nil
}

// GetFullContent returns the stored content, falling back to the abstract
// when no full content was ingested.
func (s *MemoryGraphStorage) GetFullContent(ctx context.Context, paperID string) (common.PaperContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if content, ok := s.contents[paperID]; ok {
		return content, nil
	}

	paper, ok := s.papers[paperID]
	if !ok {
		return common.PaperContent{}, fmt.Errorf("paper %s not found", paperID)
	}
	return common.PaperContent{
		PaperID:        paperID,
		Content:        []byte(paper.Abstract),
		ContentType:    "text/plain",
		HasFullContent: false,
	}, nil
}

// KeywordSearch scores papers by weighted term hits: each query term found in
// the title counts 2, in the abstract 1; any keyword or author match adds a
// flat 1 each.
func (s *MemoryGraphStorage) KeywordSearch(ctx context.Context, text string, limit int, topic string) ([]common.ScoredPaper, error) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]common.ScoredPaper, 0)
	for id, paper := range s.papers {
		if topic != "" && s.topics[id] != topic {
			continue
		}

		score := keywordScore(paper, terms)
		if score <= 0 {
			continue
		}
		results = append(results, common.ScoredPaper{Paper: paper, Score: score})
	}

	store.SortScored(results)
	return store.Truncate(results, limit), nil
}

func keywordScore(paper common.Paper, terms []string) float64 {
	title := strings.ToLower(paper.Title)
	abstract := strings.ToLower(paper.Abstract)

	var score float64
	keywordHit := false
	authorHit := false
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += 2
		}
		if strings.Contains(abstract, term) {
			score += 1
		}
		for _, kw := range paper.Keywords {
			if strings.Contains(strings.ToLower(kw), term) {
				keywordHit = true
			}
		}
		for _, author := range paper.Authors {
			if strings.Contains(strings.ToLower(author), term) {
				authorHit = true
			}
		}
	}
	if keywordHit {
		score += 1
	}
	if authorHit {
		score += 1
	}
	return score
}

// SemanticSearch ranks papers by cosine similarity with the query embedding.
// Papers without an embedding, or with a different dimension, are skipped.
func (s *MemoryGraphStorage) SemanticSearch(ctx context.Context, vector []float32, limit int, topic string, minSimilarity float64) ([]common.ScoredPaper, error) {
	if len(vector) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]common.ScoredPaper, 0)
	for id, paper := range s.papers {
		if topic != "" && s.topics[id] != topic {
			continue
		}
		if len(paper.Embedding) != len(vector) {
			continue
		}

		similarity := embedding.Cosine(vector, paper.Embedding)
		if similarity <= minSimilarity {
			continue
		}
		results = append(results, common.ScoredPaper{Paper: paper, Score: similarity})
	}

	store.SortScored(results)
	return store.Truncate(results, limit), nil
}

// GraphSearch walks relationship edges up to depth 2 from the seed papers.
// Connected papers outside the seed set are scored by the number of distinct
// edges traversed to reach them; edges to unknown papers are filtered.
func (s *MemoryGraphStorage) GraphSearch(ctx context.Context, seedIDs []string, limit int, topic string) ([]common.ScoredPaper, error) {
	if len(seedIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seeds := make(map[string]struct{}, len(seedIDs))
	for _, id := range seedIDs {
		seeds[id] = struct{}{}
	}

	// Undirected adjacency, keyed by paper id. Edge indices identify
	// distinct relationships when counting.
	adjacency := make(map[string][]int)
	for idx, rel := range s.relationships {
		if _, ok := s.papers[rel.SourceID]; !ok {
			continue
		}
		if _, ok := s.papers[rel.TargetID]; !ok {
			continue
		}
		adjacency[rel.SourceID] = append(adjacency[rel.SourceID], idx)
		adjacency[rel.TargetID] = append(adjacency[rel.TargetID], idx)
	}

	edgesReaching := make(map[string]map[int]struct{})
	frontier := seedIDs
	for depth := 0; depth < 2; depth++ {
		next := make([]string, 0)
		for _, id := range frontier {
			for _, edgeIdx := range adjacency[id] {
				rel := s.relationships[edgeIdx]
				other := rel.TargetID
				if other == id {
					other = rel.SourceID
				}
				if _, isSeed := seeds[other]; isSeed {
					continue
				}

				if edgesReaching[other] == nil {
					edgesReaching[other] = make(map[int]struct{})
					next = append(next, other)
				}
				edgesReaching[other][edgeIdx] = struct{}{}
			}
		}
		frontier = next
	}

	results := make([]common.ScoredPaper, 0, len(edgesReaching))
	for id, edges := range edgesReaching {
		if topic != "" && s.topics[id] != topic {
			continue
		}
		results = append(results, common.ScoredPaper{
			Paper: s.papers[id],
			Score: float64(len(edges)),
		})
	}

	store.SortScored(results)
	return store.Truncate(results, limit), nil
}

// GetPapersByTopic lists papers stored under topic.
func (s *MemoryGraphStorage) GetPapersByTopic(ctx context.Context, topic string, limit int) ([]common.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	papers := make([]common.Paper, 0)
	for id, paper := range s.papers {
		if topic != "" && s.topics[id] != topic {
			continue
		}
		papers = append(papers, paper)
		if limit > 0 && len(papers) >= limit {
			break
		}
	}
	return papers, nil
}

// StoreRelationships appends edges. Dangling references are stored as-is and
// filtered during traversal.
func (s *MemoryGraphStorage) StoreRelationships(ctx context.Context, relationships []common.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, relationships...)
	return nil
}
