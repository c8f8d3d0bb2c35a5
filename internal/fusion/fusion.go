// Package fusion implements Reciprocal Rank Fusion over ranked candidate lists.
//
// RRF combines rankings from multiple retrieval modalities without comparing
// their raw scores: each candidate's fused score is the sum of 1/(k+rank) over
// the modalities it appears in, where rank is its 1-based position and k is a
// smoothing constant. Candidates ranked well by both modalities float to the
// top; candidates present in only one list still score from that list alone.
//
// Reference: Cormack, Clarke & Buettcher (2009).
package fusion

import (
	"fmt"
	"sort"
)

// DefaultK is the smoothing constant used when none is configured.
const DefaultK = 60

// Result is a candidate identifier with its fused score.
type Result struct {
	ID    string
	Score float64
}

// Fuse merges two ranked ID lists (dense-ranked and sparse-ranked) into a
// single list ordered by descending RRF score. Ties break by the better dense
// rank, then the better sparse rank, then lexicographically by ID, so the
// output is deterministic for identical inputs.
//
// Either list may be empty, in which case the output reproduces the other
// list's relative order. A duplicate ID within one list is an error: a search
// backend must not return the same candidate twice in one modality.
func Fuse(dense, sparse []string, k int) ([]Result, error) {
	if k <= 0 {
		k = DefaultK
	}

	denseRanks, err := rankMap(dense)
	if err != nil {
		return nil, fmt.Errorf("dense list: %w", err)
	}
	sparseRanks, err := rankMap(sparse)
	if err != nil {
		return nil, fmt.Errorf("sparse list: %w", err)
	}

	// Preserve first-seen order only for building the candidate set; final
	// order is fully determined by score and tie-break rules.
	ids := make([]string, 0, len(denseRanks)+len(sparseRanks))
	seen := make(map[string]struct{}, len(denseRanks)+len(sparseRanks))
	for _, id := range dense {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, id := range sparse {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		var score float64
		if rank, ok := denseRanks[id]; ok {
			score += 1.0 / float64(k+rank)
		}
		if rank, ok := sparseRanks[id]; ok {
			score += 1.0 / float64(k+rank)
		}
		results = append(results, Result{ID: id, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		di, dj := rankOrMax(denseRanks, results[i].ID), rankOrMax(denseRanks, results[j].ID)
		if di != dj {
			return di < dj
		}
		si, sj := rankOrMax(sparseRanks, results[i].ID), rankOrMax(sparseRanks, results[j].ID)
		if si != sj {
			return si < sj
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// rankMap builds a 1-based rank lookup, failing on duplicate IDs.
func rankMap(ids []string) (map[string]int, error) {
	ranks := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := ranks[id]; ok {
			return nil, fmt.Errorf("duplicate candidate id %q", id)
		}
		ranks[id] = i + 1
	}
	return ranks, nil
}

func rankOrMax(ranks map[string]int, id string) int {
	if rank, ok := ranks[id]; ok {
		return rank
	}
	return int(^uint(0) >> 1)
}
