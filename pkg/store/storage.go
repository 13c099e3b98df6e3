package store

import (
	"context"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
)

// GraphStorage defines the interface for persisting and querying the paper
// knowledge graph. It owns the three retrieval primitives the hybrid search
// is built on: vector similarity, keyword matching and graph traversal.
//
// Query primitives return empty result lists rather than errors when the
// backing store is unreachable, so that the retrieval pipeline can degrade
// instead of failing.
type GraphStorage interface {
	// StorePaper creates or updates a paper under a topic. Content may be
	// nil when only metadata is known; richer content arriving later
	// updates the stored record in place.
	StorePaper(ctx context.Context, paper common.Paper, topic string, content []byte) error

	// GetFullContent returns the stored content blob of a paper. When only
	// the abstract is stored, HasFullContent is false.
	GetFullContent(ctx context.Context, paperID string) (common.PaperContent, error)

	// KeywordSearch matches text case-insensitively against title, abstract,
	// keywords and authors. Score: each term in the title counts 2, in the
	// abstract 1; any keyword match adds 1, any author match adds 1. Ties
	// are broken by citation count descending.
	KeywordSearch(ctx context.Context, text string, limit int, topic string) ([]common.ScoredPaper, error)

	// SemanticSearch returns papers whose stored embedding has cosine
	// similarity above minSimilarity with the query embedding, ranked
	// descending. Papers with a missing or dimension-mismatched embedding
	// are excluded, not errors.
	SemanticSearch(ctx context.Context, embedding []float32, limit int, topic string, minSimilarity float64) ([]common.ScoredPaper, error)

	// GraphSearch traverses the relationship graph up to depth 2 from the
	// seed papers and returns connected papers outside the seed set, scored
	// by the number of distinct edges traversed to reach them.
	GraphSearch(ctx context.Context, seedIDs []string, limit int, topic string) ([]common.ScoredPaper, error)

	// GetPapersByTopic lists the papers stored under a topic.
	GetPapersByTopic(ctx context.Context, topic string, limit int) ([]common.Paper, error)

	// StoreRelationships persists inferred or imported edges. Dangling
	// references are tolerated and filtered at query time.
	StoreRelationships(ctx context.Context, relationships []common.Relationship) error
}
