package index

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
)

type node struct {
	videoID    string
	frameIndex int
	timestamp  float64
	vec        []float32
	seq        uint64
	level      int
	links      [][]int32
	deleted    bool
}

type candidate struct {
	id   int32
	dist float64
}

type minQueue []candidate

func (q minQueue) Len() int           { return len(q) }
func (q minQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q minQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *minQueue) Push(x any)        { *q = append(*q, x.(candidate)) }
func (q *minQueue) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

type maxQueue []candidate

func (q maxQueue) Len() int           { return len(q) }
func (q maxQueue) Less(i, j int) bool { return q[i].dist > q[j].dist }
func (q maxQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *maxQueue) Push(x any)        { *q = append(*q, x.(candidate)) }
func (q *maxQueue) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

// graph is a hierarchical navigable small world graph. It is not safe for
// concurrent use; callers serialise writes against reads.
type graph struct {
	params    HNSWParams
	nodes     []*node
	entry     int32
	maxLevel  int
	levelMult float64
	rng       *rand.Rand
	live      int
	deleted   int
}

func newGraph(params HNSWParams, seed int64) *graph {
	params = params.withDefaults()
	return &graph{
		params:    params,
		entry:     -1,
		levelMult: 1 / math.Log(float64(params.M)),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (g *graph) randomLevel() int {
	r := g.rng.Float64()
	if r == 0 {
		r = math.SmallestNonzeroFloat64
	}
	return int(math.Floor(-math.Log(r) * g.levelMult))
}

func (g *graph) maxLinks(level int) int {
	if level == 0 {
		return 2 * g.params.M
	}
	return g.params.M
}

func (g *graph) distTo(q []float32, id int32) float64 {
	return squaredL2(q, g.nodes[id].vec)
}

func (g *graph) insert(n *node) int32 {
	id := int32(len(g.nodes))
	n.level = g.randomLevel()
	n.links = make([][]int32, n.level+1)
	g.nodes = append(g.nodes, n)
	g.live++

	if g.entry < 0 {
		g.entry = id
		g.maxLevel = n.level
		return id
	}

	ep := g.entry
	epDist := g.distTo(n.vec, ep)
	for l := g.maxLevel; l > n.level; l-- {
		ep, epDist = g.greedy(n.vec, ep, epDist, l)
	}

	eps := []candidate{{id: ep, dist: epDist}}
	for l := min(n.level, g.maxLevel); l >= 0; l-- {
		found := g.searchLayer(n.vec, eps, g.params.EfConstruction, l)
		neighbours := found
		if len(neighbours) > g.params.M {
			neighbours = neighbours[:g.params.M]
		}
		n.links[l] = make([]int32, 0, len(neighbours))
		for _, nb := range neighbours {
			n.links[l] = append(n.links[l], nb.id)
			g.link(nb.id, id, l)
		}
		eps = found
	}

	if n.level > g.maxLevel {
		g.maxLevel = n.level
		g.entry = id
	}
	return id
}

func (g *graph) link(from, to int32, level int) {
	src := g.nodes[from]
	src.links[level] = append(src.links[level], to)
	limit := g.maxLinks(level)
	if len(src.links[level]) <= limit {
		return
	}

	cands := make([]candidate, len(src.links[level]))
	for i, id := range src.links[level] {
		cands[i] = candidate{id: id, dist: squaredL2(src.vec, g.nodes[id].vec)}
	}
	sortCandidates(cands)
	kept := make([]int32, limit)
	for i := 0; i < limit; i++ {
		kept[i] = cands[i].id
	}
	src.links[level] = kept
}

func (g *graph) greedy(q []float32, ep int32, epDist float64, level int) (int32, float64) {
	for changed := true; changed; {
		changed = false
		for _, nb := range g.nodes[ep].links[level] {
			if d := g.distTo(q, nb); d < epDist {
				ep, epDist = nb, d
				changed = true
			}
		}
	}
	return ep, epDist
}

func (g *graph) searchLayer(q []float32, eps []candidate, ef int, level int) []candidate {
	visited := make(map[int32]struct{}, min(ef*4, len(g.nodes)))
	cands := &minQueue{}
	results := &maxQueue{}

	for _, e := range eps {
		if _, ok := visited[e.id]; ok {
			continue
		}
		visited[e.id] = struct{}{}
		heap.Push(cands, e)
		heap.Push(results, e)
		if results.Len() > ef {
			heap.Pop(results)
		}
	}

	for cands.Len() > 0 {
		c := heap.Pop(cands).(candidate)
		if results.Len() >= ef && c.dist > (*results)[0].dist {
			break
		}
		for _, nb := range g.nodes[c.id].links[level] {
			if _, ok := visited[nb]; ok {
				continue
			}
			visited[nb] = struct{}{}
			d := g.distTo(q, nb)
			if results.Len() < ef || d < (*results)[0].dist {
				heap.Push(cands, candidate{id: nb, dist: d})
				heap.Push(results, candidate{id: nb, dist: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]candidate, len(*results))
	copy(out, *results)
	sortCandidates(out)
	return out
}

func (g *graph) search(q []float32, k int) []candidate {
	if g.entry < 0 || k <= 0 || g.live == 0 {
		return nil
	}

	k = min(k, g.live)
	ef := g.params.ef(k)
	if g.deleted > 0 {
		ef += min(g.deleted, ef)
	}
	ef = min(ef, len(g.nodes))

	ep := g.entry
	epDist := g.distTo(q, ep)
	for l := g.maxLevel; l > 0; l-- {
		ep, epDist = g.greedy(q, ep, epDist, l)
	}

	found := g.searchLayer(q, []candidate{{id: ep, dist: epDist}}, ef, 0)
	out := make([]candidate, 0, k)
	for _, c := range found {
		if g.nodes[c.id].deleted {
			continue
		}
		out = append(out, c)
		if len(out) == k {
			break
		}
	}
	return out
}

func (g *graph) exact(q []float32, k int) []candidate {
	out := make([]candidate, 0, g.live)
	for id, n := range g.nodes {
		if n.deleted {
			continue
		}
		out = append(out, candidate{id: int32(id), dist: squaredL2(q, n.vec)})
	}
	sortCandidates(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (g *graph) remove(id int32) {
	n := g.nodes[id]
	if n.deleted {
		return
	}
	n.deleted = true
	g.live--
	g.deleted++
}

// needsRebuild reports whether tombstones outnumber live nodes.
func (g *graph) needsRebuild() bool {
	return g.deleted > 0 && g.deleted > g.live
}

// sortCandidates orders by distance, then by node id which follows insertion order.
func sortCandidates(c []candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].dist != c[j].dist {
			return c[i].dist < c[j].dist
		}
		return c[i].id < c[j].id
	})
}
