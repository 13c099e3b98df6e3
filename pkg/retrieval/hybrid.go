package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/cache"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/embedding"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Strategy weights for merging. Papers appearing in more than one strategy
// receive an additional 0.1 per extra contributing strategy.
const (
	semanticWeight   = 0.5
	keywordWeight    = 0.3
	graphWeight      = 0.2
	multiSourceBonus = 0.1

	// Semantic results below this cosine similarity are discarded.
	minSimilarity = 0.1

	// Number of top keyword hits used to seed the graph traversal.
	graphSeedCount = 3
)

// Retriever runs the three retrieval strategies concurrently and merges
// their results into a single ranked list.
type Retriever struct {
	store    store.GraphStorage
	embedder *embedding.Engine
	cache    *cache.Cache[common.HybridResults]

	legTimeout time.Duration
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLegTimeout bounds each retrieval strategy's store call.
func WithLegTimeout(d time.Duration) RetrieverOption {
	return func(r *Retriever) {
		r.legTimeout = d
	}
}

// WithCache enables result caching keyed by normalized query, topic and limit.
func WithCache(c *cache.Cache[common.HybridResults]) RetrieverOption {
	return func(r *Retriever) {
		r.cache = c
	}
}

// NewRetriever creates a hybrid retriever over the given storage and
// embedding engine.
func NewRetriever(storage store.GraphStorage, embedder *embedding.Engine, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:      storage,
		embedder:   embedder,
		legTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HybridSearch runs semantic, keyword and graph retrieval for query and
// merges the results. A failing strategy contributes an empty list instead
// of aborting the others; a total storage outage yields empty results, not
// an error, so callers can produce degraded answers.
func (r *Retriever) HybridSearch(
	ctx context.Context,
	query string,
	limit int,
	topic string,
) (common.HybridResults, error) {
	if strings.TrimSpace(query) == "" {
		return common.HybridResults{}, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = 10
	}

	cacheKey := cache.NormalizeKey(query, topic, strconv.Itoa(limit))
	if r.cache != nil {
		if cached, ok := r.cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	var results common.HybridResults

	// Completion order of the legs is irrelevant: results are merged only
	// after all three resolved or failed.
	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		results.Semantic = r.semanticLeg(gCtx, query, limit, topic)
		return nil
	})
	eg.Go(func() error {
		results.Keyword = r.keywordLeg(gCtx, query, limit, topic)
		return nil
	})
	eg.Go(func() error {
		results.Graph = r.graphLeg(gCtx, query, limit, topic)
		return nil
	})
	_ = eg.Wait()

	results.Combined = combineSearchResults(results.Semantic, results.Keyword, results.Graph, limit)

	if r.cache != nil {
		r.cache.Set(cacheKey, results)
	}
	return results, nil
}

func (r *Retriever) semanticLeg(ctx context.Context, query string, limit int, topic string) []common.ScoredPaper {
	ctx, cancel := context.WithTimeout(ctx, r.legTimeout)
	defer cancel()

	vector := r.embedder.Embed(query)
	papers, err := r.store.SemanticSearch(ctx, vector, limit, topic, minSimilarity)
	if err != nil {
		logger.Warn("[Hybrid] Semantic strategy failed", "err", err)
		return []common.ScoredPaper{}
	}
	return papers
}

func (r *Retriever) keywordLeg(ctx context.Context, query string, limit int, topic string) []common.ScoredPaper {
	ctx, cancel := context.WithTimeout(ctx, r.legTimeout)
	defer cancel()

	papers, err := r.store.KeywordSearch(ctx, query, limit, topic)
	if err != nil {
		logger.Warn("[Hybrid] Keyword strategy failed", "err", err)
		return []common.ScoredPaper{}
	}
	return papers
}

// graphLeg seeds the traversal with its own top keyword hits so the three
// legs stay independent and can run concurrently.
func (r *Retriever) graphLeg(ctx context.Context, query string, limit int, topic string) []common.ScoredPaper {
	ctx, cancel := context.WithTimeout(ctx, r.legTimeout)
	defer cancel()

	seeds, err := r.store.KeywordSearch(ctx, query, graphSeedCount, topic)
	if err != nil {
		logger.Warn("[Hybrid] Graph strategy failed to find seeds", "err", err)
		return []common.ScoredPaper{}
	}
	if len(seeds) == 0 {
		return []common.ScoredPaper{}
	}

	seedIDs := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		seedIDs = append(seedIDs, seed.Paper.ID)
	}

	papers, err := r.store.GraphSearch(ctx, seedIDs, limit, topic)
	if err != nil {
		logger.Warn("[Hybrid] Graph strategy failed", "err", err)
		return []common.ScoredPaper{}
	}
	return papers
}

// combineSearchResults merges the three strategy result lists. Each paper's
// combined score is the sum over contributing strategies of score times
// strategy weight, plus a flat bonus per extra contributing strategy. The
// merged list is sorted descending and truncated to limit.
func combineSearchResults(
	semantic []common.ScoredPaper,
	keyword []common.ScoredPaper,
	graph []common.ScoredPaper,
	limit int,
) []common.SearchResult {
	merged := make(map[string]*common.SearchResult)
	order := make([]string, 0)

	record := func(p common.ScoredPaper, source string, apply func(*common.SearchResult)) {
		result, ok := merged[p.Paper.ID]
		if !ok {
			result = &common.SearchResult{Paper: p.Paper}
			merged[p.Paper.ID] = result
			order = append(order, p.Paper.ID)
		}
		result.Sources = append(result.Sources, source)
		apply(result)
	}

	for _, p := range semantic {
		score := p.Score
		record(p, "semantic", func(r *common.SearchResult) {
			r.Similarity = score
			r.CombinedScore += score * semanticWeight
		})
	}
	for _, p := range keyword {
		score := p.Score
		record(p, "keyword", func(r *common.SearchResult) {
			r.Relevance = score
			r.CombinedScore += score * keywordWeight
		})
	}
	for _, p := range graph {
		score := p.Score
		record(p, "graph", func(r *common.SearchResult) {
			r.ConnectionStrength = score
			r.CombinedScore += score * graphWeight
		})
	}

	combined := make([]common.SearchResult, 0, len(merged))
	for _, id := range order {
		result := merged[id]
		if extra := len(result.Sources) - 1; extra > 0 {
			result.CombinedScore += multiSourceBonus * float64(extra)
		}
		combined = append(combined, *result)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].CombinedScore != combined[j].CombinedScore {
			return combined[i].CombinedScore > combined[j].CombinedScore
		}
		return combined[i].Paper.CitationCount > combined[j].Paper.CitationCount
	})

	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}
