package store

import (
	"sort"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/common"
)

// SortScored orders papers by score descending, ties broken by citation
// count descending. All three retrieval strategies share this ordering.
func SortScored(papers []common.ScoredPaper) {
	sort.SliceStable(papers, func(i, j int) bool {
		if papers[i].Score != papers[j].Score {
			return papers[i].Score > papers[j].Score
		}
		return papers[i].Paper.CitationCount > papers[j].Paper.CitationCount
	})
}

// Truncate bounds papers to limit; a non-positive limit keeps everything.
func Truncate(papers []common.ScoredPaper, limit int) []common.ScoredPaper {
	if limit > 0 && len(papers) > limit {
		return papers[:limit]
	}
	return papers
}
