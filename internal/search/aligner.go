package search

import (
	"sort"
)

// TemporalCluster is a run of candidates from one video whose offsets chain
// together within the tolerance window.
type TemporalCluster struct {
	VideoID    string
	Candidates []MatchCandidate
	MeanOffset float64
}

// Align groups candidates by video and splits each group into single-linkage
// clusters over query_timestamp − candidate_timestamp. Every candidate lands
// in exactly one cluster; nothing is discarded here.
func Align(matches []FrameMatches, tolerance float64) map[string][]TemporalCluster {
	byVideo := make(map[string][]MatchCandidate)
	for _, fm := range matches {
		for _, c := range fm.Candidates {
			byVideo[c.VideoID] = append(byVideo[c.VideoID], c)
		}
	}

	out := make(map[string][]TemporalCluster, len(byVideo))
	for videoID, cands := range byVideo {
		out[videoID] = clusterOffsets(videoID, cands, tolerance)
	}
	return out
}

func clusterOffsets(videoID string, cands []MatchCandidate, tolerance float64) []TemporalCluster {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Offset() != b.Offset() {
			return a.Offset() < b.Offset()
		}
		if a.QueryIndex != b.QueryIndex {
			return a.QueryIndex < b.QueryIndex
		}
		return a.FrameIndex < b.FrameIndex
	})

	var clusters []TemporalCluster
	start := 0
	for i := 1; i <= len(cands); i++ {
		if i < len(cands) && cands[i].Offset()-cands[i-1].Offset() <= tolerance {
			continue
		}
		members := make([]MatchCandidate, i-start)
		copy(members, cands[start:i])
		clusters = append(clusters, TemporalCluster{
			VideoID:    videoID,
			Candidates: members,
			MeanOffset: meanOffset(members),
		})
		start = i
	}
	return clusters
}

func meanOffset(cands []MatchCandidate) float64 {
	if len(cands) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cands {
		sum += c.Offset()
	}
	return sum / float64(len(cands))
}
