package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/cache"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
)

type fakeStorage struct {
	semantic []common.ScoredPaper
	keyword  []common.ScoredPaper
	graph    []common.ScoredPaper

	semanticErr error
	keywordErr  error
	graphErr    error

	keywordCalls int
}

func (f *fakeStorage) StorePaper(_ context.Context, _ common.Paper, _ string, _ []byte) error {
	return nil
}

func (f *fakeStorage) GetFullContent(_ context.Context, _ string) (common.PaperContent, error) {
	return common.PaperContent{}, nil
}

func (f *fakeStorage) KeywordSearch(_ context.Context, _ string, limit int, _ string) ([]common.ScoredPaper, error) {
	f.keywordCalls++
	if f.keywordErr != nil {
		return nil, f.keywordErr
	}
	if len(f.keyword) > limit {
		return f.keyword[:limit], nil
	}
	return f.keyword, nil
}

func (f *fakeStorage) SemanticSearch(_ context.Context, _ []float32, _ int, _ string, _ float64) ([]common.ScoredPaper, error) {
	if f.semanticErr != nil {
		return nil, f.semanticErr
	}
	return f.semantic, nil
}

func (f *fakeStorage) GraphSearch(_ context.Context, _ []string, _ int, _ string) ([]common.ScoredPaper, error) {
	if f.graphErr != nil {
		return nil, f.graphErr
	}
	return f.graph, nil
}

func (f *fakeStorage) GetPapersByTopic(_ context.Context, _ string, _ int) ([]common.Paper, error) {
	return nil, nil
}

func (f *fakeStorage) StoreRelationships(_ context.Context, _ []common.Relationship) error {
	return nil
}

func scored(id string, score float64) common.ScoredPaper {
	return common.ScoredPaper{
		Paper: common.Paper{ID: id, Title: "Paper " + id},
		Score: score,
	}
}

func TestHybridSearchMergesAndRanks(t *testing.T) {
	// C appears in all three strategies with modest scores; A leads a
	// single strategy. C must outrank A via weighting plus bonus.
	storage := &fakeStorage{
		semantic: []common.ScoredPaper{scored("A", 0.9), scored("C", 0.5)},
		keyword:  []common.ScoredPaper{scored("B", 5), scored("C", 3)},
		graph:    []common.ScoredPaper{scored("C", 2)},
	}
	r := NewRetriever(storage, embedding.NewEngine())

	results, err := r.HybridSearch(context.Background(), "transformer attention", 10, "ml")
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results.Combined) != 3 {
		t.Fatalf("expected 3 combined results, got %d", len(results.Combined))
	}

	// C: 0.5*0.5 + 3*0.3 + 2*0.2 + 0.2 bonus = 1.75
	// B: 5*0.3 = 1.5
	// A: 0.9*0.5 = 0.45
	wantOrder := []string{"C", "B", "A"}
	for i, want := range wantOrder {
		if results.Combined[i].Paper.ID != want {
			t.Errorf("rank %d: got %s, want %s", i, results.Combined[i].Paper.ID, want)
		}
	}

	top := results.Combined[0]
	if got, want := top.CombinedScore, 1.75; !almostEqual(got, want) {
		t.Errorf("combined score for C: got %v, want %v", got, want)
	}
	if len(top.Sources) != 3 {
		t.Errorf("expected C to carry 3 sources, got %v", top.Sources)
	}
}

func TestHybridSearchSurvivesStrategyFailures(t *testing.T) {
	storage := &fakeStorage{
		semanticErr: errors.New("vector index offline"),
		graphErr:    errors.New("traversal timeout"),
		keyword:     []common.ScoredPaper{scored("A", 2)},
	}
	r := NewRetriever(storage, embedding.NewEngine())

	results, err := r.HybridSearch(context.Background(), "graph neural networks", 10, "")
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results.Semantic) != 0 {
		t.Errorf("expected empty semantic results, got %d", len(results.Semantic))
	}
	if len(results.Combined) != 1 || results.Combined[0].Paper.ID != "A" {
		t.Fatalf("expected keyword-only result A, got %+v", results.Combined)
	}
}

func TestHybridSearchTotalOutageYieldsEmpty(t *testing.T) {
	outage := errors.New("connection refused")
	storage := &fakeStorage{semanticErr: outage, keywordErr: outage, graphErr: outage}
	r := NewRetriever(storage, embedding.NewEngine())

	results, err := r.HybridSearch(context.Background(), "anything", 5, "")
	if err != nil {
		t.Fatalf("outage must degrade, not fail: %v", err)
	}
	if len(results.Combined) != 0 {
		t.Errorf("expected no results, got %d", len(results.Combined))
	}
}

func TestHybridSearchEmptyQuery(t *testing.T) {
	r := NewRetriever(&fakeStorage{}, embedding.NewEngine())
	if _, err := r.HybridSearch(context.Background(), "   ", 5, ""); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestHybridSearchTruncatesToLimit(t *testing.T) {
	storage := &fakeStorage{
		keyword: []common.ScoredPaper{
			scored("A", 5), scored("B", 4), scored("C", 3), scored("D", 2),
		},
	}
	r := NewRetriever(storage, embedding.NewEngine())

	results, err := r.HybridSearch(context.Background(), "q", 2, "")
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results.Combined) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results.Combined))
	}
	if results.Combined[0].Paper.ID != "A" || results.Combined[1].Paper.ID != "B" {
		t.Errorf("unexpected truncation order: %+v", results.Combined)
	}
}

func TestHybridSearchCaches(t *testing.T) {
	storage := &fakeStorage{keyword: []common.ScoredPaper{scored("A", 1)}}
	c := cache.New[common.HybridResults](time.Minute, 16)
	r := NewRetriever(storage, embedding.NewEngine(), WithCache(c))

	for range 2 {
		if _, err := r.HybridSearch(context.Background(), "Cached Query", 5, "t"); err != nil {
			t.Fatalf("HybridSearch: %v", err)
		}
	}
	// One call for the keyword leg, one for graph seeds; the second
	// search must be served from cache without touching storage.
	if storage.keywordCalls != 2 {
		t.Errorf("expected 2 keyword calls total, got %d", storage.keywordCalls)
	}
}

func TestCombineBonusMonotonic(t *testing.T) {
	one := combineSearchResults(
		[]common.ScoredPaper{scored("X", 0.4)}, nil, nil, 10,
	)
	two := combineSearchResults(
		[]common.ScoredPaper{scored("X", 0.4)},
		[]common.ScoredPaper{scored("X", 0)}, nil, 10,
	)
	if !(two[0].CombinedScore > one[0].CombinedScore) {
		t.Errorf("extra source must raise the score: %v vs %v",
			two[0].CombinedScore, one[0].CombinedScore)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
