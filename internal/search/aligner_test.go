package search

import (
	"testing"
)

func cand(queryIndex int, queryTS float64, videoID string, frameIndex int, candidateTS, distance float64) MatchCandidate {
	return MatchCandidate{
		QueryIndex:         queryIndex,
		QueryTimestamp:     queryTS,
		VideoID:            videoID,
		FrameIndex:         frameIndex,
		CandidateTimestamp: candidateTS,
		Distance:           distance,
		Similarity:         Similarity(distance),
	}
}

func group(cands ...MatchCandidate) []FrameMatches {
	byQuery := map[int]int{}
	var out []FrameMatches
	for _, c := range cands {
		pos, ok := byQuery[c.QueryIndex]
		if !ok {
			pos = len(out)
			byQuery[c.QueryIndex] = pos
			out = append(out, FrameMatches{QueryIndex: c.QueryIndex})
		}
		out[pos].Candidates = append(out[pos].Candidates, c)
	}
	return out
}

func TestAlign_SplitsByOffset(t *testing.T) {
	matches := group(
		cand(0, 10, "x", 0, 8.0, 0),
		cand(1, 11, "x", 1, 8.9, 0),
		cand(2, 12, "x", 2, 9.7, 0),
		cand(3, 13, "x", 3, 8.0, 0),
		cand(4, 14, "x", 4, 8.6, 0),
		cand(5, 15, "x", 5, 6.0, 0),
	)

	clusters := Align(matches, 0.5)["x"]
	if len(clusters) != 3 {
		t.Fatalf("expected 3 clusters, got %d", len(clusters))
	}

	wantSizes := []int{3, 2, 1}
	wantMeans := []float64{(2.0 + 2.1 + 2.3) / 3, (5.0 + 5.4) / 2, 9.0}
	for i, cl := range clusters {
		if len(cl.Candidates) != wantSizes[i] {
			t.Errorf("cluster %d: expected %d candidates, got %d", i, wantSizes[i], len(cl.Candidates))
		}
		if d := cl.MeanOffset - wantMeans[i]; d > 1e-9 || d < -1e-9 {
			t.Errorf("cluster %d: expected mean offset %f, got %f", i, wantMeans[i], cl.MeanOffset)
		}
		if cl.VideoID != "x" {
			t.Errorf("cluster %d: wrong video %q", i, cl.VideoID)
		}
	}
}

func TestAlign_SingleLinkageChains(t *testing.T) {
	matches := group(
		cand(0, 1.0, "x", 0, 0, 0),
		cand(1, 1.4, "x", 1, 0, 0),
		cand(2, 1.8, "x", 2, 0, 0),
		cand(3, 2.2, "x", 3, 0, 0),
	)

	clusters := Align(matches, 0.5)["x"]
	if len(clusters) != 1 || len(clusters[0].Candidates) != 4 {
		t.Fatalf("expected one chained cluster of 4, got %+v", clusters)
	}
}

func TestAlign_GroupsByVideoAndKeepsSingletons(t *testing.T) {
	matches := group(
		cand(0, 0, "a", 5, 3, 0.1),
		cand(0, 0, "b", 2, 1, 0.2),
		cand(1, 1, "b", 3, 2, 0.1),
	)

	byVideo := Align(matches, 0.5)
	if len(byVideo) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(byVideo))
	}
	if len(byVideo["a"]) != 1 || len(byVideo["a"][0].Candidates) != 1 {
		t.Errorf("singleton cluster for video a should be kept, got %+v", byVideo["a"])
	}
	if len(byVideo["b"]) != 1 || len(byVideo["b"][0].Candidates) != 2 {
		t.Errorf("expected video b to form one cluster of 2, got %+v", byVideo["b"])
	}
}

func TestAlign_NeverDiscards(t *testing.T) {
	var cands []MatchCandidate
	for i := 0; i < 30; i++ {
		cands = append(cands, cand(i, float64(i), []string{"a", "b", "c"}[i%3], i, float64(i*i%7), 0))
	}

	total := 0
	for _, clusters := range Align(group(cands...), 0.5) {
		for _, cl := range clusters {
			total += len(cl.Candidates)
		}
	}
	if total != len(cands) {
		t.Errorf("expected %d clustered candidates, got %d", len(cands), total)
	}
}

func TestAlign_Empty(t *testing.T) {
	if got := Align(nil, 0.5); len(got) != 0 {
		t.Errorf("expected no clusters, got %v", got)
	}
}
