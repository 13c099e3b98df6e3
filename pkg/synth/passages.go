package synth

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/logger"
	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/store"
)

const (
	// Papers whose full content is fetched for passage extraction.
	contentFetchCount = 5

	// Word window for chunking extractable full text.
	passageChunkWords = 500

	// Chunks scoring at or below this fraction of question terms are dropped.
	passageMinRelevance = 0.3

	// Fixed relevance for abstract-only passages.
	relevanceNonExtractable = 0.8 // full content exists but is binary
	relevanceAbstractOnly   = 0.5 // no content stored at all

	maxPassages = 10
)

// SourcePaper pairs a retrieval result with whatever content could be
// fetched for it.
type SourcePaper struct {
	Result  common.SearchResult
	Content common.PaperContent
}

// FetchSources loads content for the top papers of a combined result list.
// A paper whose content fetch fails is kept with its abstract instead of
// being dropped.
func FetchSources(ctx context.Context, storage store.GraphStorage, results []common.SearchResult) []SourcePaper {
	count := len(results)
	if count > contentFetchCount {
		count = contentFetchCount
	}

	sources := make([]SourcePaper, 0, count)
	for _, result := range results[:count] {
		content, err := storage.GetFullContent(ctx, result.Paper.ID)
		if err != nil {
			logger.Warn("[Synth] Content fetch failed, using abstract",
				"paper", result.Paper.ID, "err", err)
			content = common.PaperContent{
				PaperID:        result.Paper.ID,
				Content:        []byte(result.Paper.Abstract),
				ContentType:    "text/plain",
				HasFullContent: false,
			}
		}
		sources = append(sources, SourcePaper{Result: result, Content: content})
	}
	return sources
}

// ExtractPassages chunks extractable full text into fixed word windows and
// scores each window by the fraction of significant question terms it
// contains. Papers without usable text contribute their abstract at a fixed
// relevance. The top passages across all papers are returned sorted
// descending.
func ExtractPassages(sources []SourcePaper, question string) []common.Passage {
	terms := questionTerms(question)
	passages := make([]common.Passage, 0, len(sources))

	for _, source := range sources {
		paper := source.Result.Paper
		text := string(source.Content.Content)

		if source.Content.HasFullContent && utf8.ValidString(text) && strings.TrimSpace(text) != "" {
			passages = append(passages, chunkPassages(paper, text, terms)...)
			continue
		}

		relevance := relevanceAbstractOnly
		if source.Content.HasFullContent {
			// Content exists but is binary (e.g. a PDF the worker has not
			// extracted yet).
			relevance = relevanceNonExtractable
		}
		passages = append(passages, common.Passage{
			PaperID:    paper.ID,
			PaperTitle: paper.Title,
			Text:       paper.Abstract,
			Relevance:  relevance,
		})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Relevance > passages[j].Relevance
	})
	if len(passages) > maxPassages {
		passages = passages[:maxPassages]
	}
	return passages
}

func chunkPassages(paper common.Paper, text string, terms []string) []common.Passage {
	words := strings.Fields(text)
	chunks := make([]common.Passage, 0, len(words)/passageChunkWords+1)

	for start := 0; start < len(words); start += passageChunkWords {
		end := start + passageChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		relevance := chunkRelevance(chunk, terms)
		if relevance <= passageMinRelevance {
			continue
		}
		chunks = append(chunks, common.Passage{
			PaperID:    paper.ID,
			PaperTitle: paper.Title,
			Text:       chunk,
			Relevance:  relevance,
		})
	}
	return chunks
}

// chunkRelevance is the fraction of distinct significant question terms
// present in the chunk.
func chunkRelevance(chunk string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(chunk)
	found := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// questionTerms extracts the distinct lowercased question terms longer than
// three characters.
func questionTerms(question string) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, token := range strings.Fields(strings.ToLower(question)) {
		token = strings.Trim(token, ".,;:!?\"'()[]")
		if len(token) <= 3 {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}
