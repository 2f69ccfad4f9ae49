package search

import (
	"math"
	"sort"
)

type Pair struct {
	QueryTimestamp     float64 `json:"query_timestamp"`
	CandidateTimestamp float64 `json:"candidate_timestamp"`
}

type VideoMatchResult struct {
	VideoID    string  `json:"video_id"`
	MatchCount int     `json:"match_count"`
	Confidence float64 `json:"confidence"`
	Offset     float64 `json:"offset"`
	Pairs      []Pair  `json:"pairs"`
}

type Ranker struct {
	tolerance float64
	scale     float64
}

func NewRanker(tolerance, scale float64) Ranker {
	return Ranker{tolerance: tolerance, scale: scale}
}

// Confidence grows with the number of matched query frames and shrinks as
// the offsets spread out. The result lies in [0,1).
func (r Ranker) Confidence(matchCount int, variance float64) float64 {
	size := 1 - math.Exp(-float64(matchCount)/r.scale)
	tightness := 1 / (1 + variance/(r.tolerance*r.tolerance))
	return size * tightness
}

// Rank scores the best cluster of each video, drops those with fewer than
// minMatches distinct query frames and returns at most limit results ordered
// by confidence, match count, then video id.
func (r Ranker) Rank(clustersByVideo map[string][]TemporalCluster, minMatches, limit int) []VideoMatchResult {
	results := []VideoMatchResult{}

	for videoID, clusters := range clustersByVideo {
		var best *VideoMatchResult
		for _, cl := range clusters {
			res := r.score(videoID, cl)
			if res.MatchCount < minMatches {
				continue
			}
			if best == nil || better(res, *best) {
				best = &res
			}
		}
		if best != nil {
			results = append(results, *best)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return better(results[i], results[j]) ||
			(!better(results[j], results[i]) && results[i].VideoID < results[j].VideoID)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func better(a, b VideoMatchResult) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.MatchCount > b.MatchCount
}

// score keeps the closest candidate for each query frame, so one query frame
// matching several stored frames still counts once.
func (r Ranker) score(videoID string, cl TemporalCluster) VideoMatchResult {
	bestByQuery := make(map[int]MatchCandidate, len(cl.Candidates))
	for _, c := range cl.Candidates {
		cur, ok := bestByQuery[c.QueryIndex]
		if !ok || c.Distance < cur.Distance || (c.Distance == cur.Distance && c.FrameIndex < cur.FrameIndex) {
			bestByQuery[c.QueryIndex] = c
		}
	}

	kept := make([]MatchCandidate, 0, len(bestByQuery))
	for _, c := range bestByQuery {
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].QueryTimestamp != kept[j].QueryTimestamp {
			return kept[i].QueryTimestamp < kept[j].QueryTimestamp
		}
		return kept[i].QueryIndex < kept[j].QueryIndex
	})

	mean := meanOffset(kept)
	var variance float64
	pairs := make([]Pair, len(kept))
	for i, c := range kept {
		d := c.Offset() - mean
		variance += d * d
		pairs[i] = Pair{QueryTimestamp: c.QueryTimestamp, CandidateTimestamp: c.CandidateTimestamp}
	}
	if len(kept) > 0 {
		variance /= float64(len(kept))
	}

	return VideoMatchResult{
		VideoID:    videoID,
		MatchCount: len(kept),
		Confidence: r.Confidence(len(kept), variance),
		Offset:     mean,
		Pairs:      pairs,
	}
}
