package relate

import (
	"context"
	"testing"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store/memory"
)

func edgeTypes(edges []common.Relationship) map[common.RelationshipType]float64 {
	types := make(map[common.RelationshipType]float64, len(edges))
	for _, edge := range edges {
		types[edge.Type] = edge.Strength
	}
	return types
}

func TestInferAuthorOverlap(t *testing.T) {
	tests := []struct {
		name     string
		authorsA []string
		authorsB []string
		want     float64
	}{
		{
			name:     "full overlap",
			authorsA: []string{"Ada Lovelace"},
			authorsB: []string{"ada lovelace"},
			want:     1,
		},
		{
			name:     "partial overlap",
			authorsA: []string{"Ada Lovelace", "Alan Turing"},
			authorsB: []string{"Alan Turing", "Grace Hopper"},
			want:     1.0 / 3.0,
		},
		{
			name:     "no overlap",
			authorsA: []string{"Ada Lovelace"},
			authorsB: []string{"Grace Hopper"},
			want:     0,
		},
		{
			name:     "empty list",
			authorsA: nil,
			authorsB: []string{"Grace Hopper"},
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := common.Paper{ID: "a", Authors: tt.authorsA}
			b := common.Paper{ID: "b", Authors: tt.authorsB}
			types := edgeTypes(Infer(a, b))
			if got := types[common.RelationshipAuthor]; got != tt.want {
				t.Errorf("author strength: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInferVenueAndTemporal(t *testing.T) {
	a := common.Paper{ID: "a", Venue: "NeurIPS", Year: 2020}
	b := common.Paper{ID: "b", Venue: "neurips", Year: 2021}

	types := edgeTypes(Infer(a, b))
	if _, ok := types[common.RelationshipVenue]; !ok {
		t.Error("expected a venue edge for case-insensitive venue match")
	}
	if strength, ok := types[common.RelationshipTemporal]; !ok || strength <= 0 {
		t.Errorf("expected a temporal edge for adjacent years, got %v", strength)
	}
}

func TestInferNoTemporalEdgeOutsideWindow(t *testing.T) {
	a := common.Paper{ID: "a", Year: 2010}
	b := common.Paper{ID: "b", Year: 2020}
	if edges := Infer(a, b); len(edges) != 0 {
		t.Errorf("expected no edges, got %+v", edges)
	}
}

func TestInferContentSimilarity(t *testing.T) {
	engine := embedding.NewEngine()
	text := "graph neural networks for molecular property prediction"
	a := common.Paper{ID: "a", Embedding: engine.Embed(text)}
	b := common.Paper{ID: "b", Embedding: engine.Embed(text)}

	types := edgeTypes(Infer(a, b))
	strength, ok := types[common.RelationshipContent]
	if !ok {
		t.Fatal("identical embeddings must produce a content edge")
	}
	if strength < contentSimilarityThreshold {
		t.Errorf("content strength below threshold: %v", strength)
	}

	// Mismatched dimensions never produce a content edge.
	c := common.Paper{ID: "c", Embedding: make([]float32, 384)}
	if _, ok := edgeTypes(Infer(a, c))[common.RelationshipContent]; ok {
		t.Error("dimension mismatch must not produce a content edge")
	}
}

func TestInferRelationshipsStoresEdges(t *testing.T) {
	storage := memory.NewMemoryGraphStorage()
	ctx := context.Background()

	existing := common.Paper{
		ID:      "A",
		Title:   "Existing",
		Authors: []string{"Ada Lovelace"},
		Venue:   "NeurIPS",
		Year:    2020,
	}
	if err := storage.StorePaper(ctx, existing, "ml", nil); err != nil {
		t.Fatalf("StorePaper: %v", err)
	}

	incoming := common.Paper{
		ID:      "B",
		Title:   "Incoming",
		Authors: []string{"Ada Lovelace"},
		Venue:   "NeurIPS",
		Year:    2021,
	}
	if err := storage.StorePaper(ctx, incoming, "ml", nil); err != nil {
		t.Fatalf("StorePaper: %v", err)
	}

	if err := InferRelationships(ctx, storage, incoming, "ml"); err != nil {
		t.Fatalf("InferRelationships: %v", err)
	}

	// A and B share an author, so a graph search seeded at B must reach A.
	results, err := storage.GraphSearch(ctx, []string{"B"}, 10, "ml")
	if err != nil {
		t.Fatalf("GraphSearch: %v", err)
	}
	if len(results) != 1 || results[0].Paper.ID != "A" {
		t.Errorf("expected graph search to reach A via inferred edges, got %+v", results)
	}
}
