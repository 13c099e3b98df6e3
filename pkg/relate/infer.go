package relate

import (
	"context"
	"fmt"
	"strings"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"
)

const (
	// Minimum abstract-embedding cosine similarity for a content edge.
	contentSimilarityThreshold = 0.75

	// Maximum publication-year distance for a temporal edge.
	temporalWindow = 2
)

// InferRelationships compares paper against every other paper of the topic
// and stores the inferred edges. Runs in the ingest worker after a paper's
// content has been stored.
func InferRelationships(ctx context.Context, storage store.GraphStorage, paper common.Paper, topic string) error {
	peers, err := storage.GetPapersByTopic(ctx, topic, 0)
	if err != nil {
		return fmt.Errorf("failed to load peers for relationship inference: %w", err)
	}

	relationships := make([]common.Relationship, 0)
	for _, peer := range peers {
		if peer.ID == paper.ID {
			continue
		}
		relationships = append(relationships, Infer(paper, peer)...)
	}

	if len(relationships) == 0 {
		return nil
	}
	if err := storage.StoreRelationships(ctx, relationships); err != nil {
		return fmt.Errorf("failed to store inferred relationships: %w", err)
	}

	logger.Info("[Relate] Stored inferred relationships",
		"paper", paper.ID, "count", len(relationships))
	return nil
}

// Infer returns the edges connecting a to b. Each relationship type is
// checked independently; two papers can be connected by several edges.
func Infer(a, b common.Paper) []common.Relationship {
	edges := make([]common.Relationship, 0, 4)

	if overlap := authorOverlap(a.Authors, b.Authors); overlap > 0 {
		edges = append(edges, common.Relationship{
			SourceID: a.ID,
			TargetID: b.ID,
			Type:     common.RelationshipAuthor,
			Strength: overlap,
		})
	}

	if a.Venue != "" && strings.EqualFold(a.Venue, b.Venue) {
		edges = append(edges, common.Relationship{
			SourceID: a.ID,
			TargetID: b.ID,
			Type:     common.RelationshipVenue,
			Strength: 0.5,
		})
	}

	if a.Year != 0 && b.Year != 0 {
		distance := a.Year - b.Year
		if distance < 0 {
			distance = -distance
		}
		if distance <= temporalWindow {
			edges = append(edges, common.Relationship{
				SourceID: a.ID,
				TargetID: b.ID,
				Type:     common.RelationshipTemporal,
				Strength: 1 - float64(distance)/float64(temporalWindow+1),
			})
		}
	}

	if similarity := embedding.Cosine(a.Embedding, b.Embedding); similarity > contentSimilarityThreshold {
		edges = append(edges, common.Relationship{
			SourceID: a.ID,
			TargetID: b.ID,
			Type:     common.RelationshipContent,
			Strength: similarity,
		})
	}

	return edges
}

// authorOverlap is the Jaccard similarity of the two author lists, with
// case-insensitive name matching.
func authorOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, author := range a {
		set[normalizeAuthor(author)] = struct{}{}
	}

	shared := 0
	seen := make(map[string]struct{}, len(b))
	for _, author := range b {
		name := normalizeAuthor(author)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := set[name]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}

	union := len(set) + len(seen) - shared
	return float64(shared) / float64(union)
}

func normalizeAuthor(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
