package layout

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/canvaslayout/pkg/workflow"
)

// Bucket is a block's classification for ordering and spacing inside a
// group. Higher buckets trail.
type Bucket int

// Buckets in trailing order.
const (
	BucketRegular Bucket = iota
	BucketTerminal
	BucketDisabled
	BucketOrphaned
)

// disabledGroupPrefix keeps disabled blocks out of enabled siblings' groups.
const disabledGroupPrefix = "disabled:"

// Classification is the graph analysis of one sibling set.
type Classification struct {
	// Layers maps every input block to its layer index.
	Layers map[string]int
	// Groups lists, per layer, the ordered groups of block IDs.
	Groups map[int][][]string
	// MaxLayer is the highest assigned layer.
	MaxLayer int

	Disabled map[string]bool
	Terminal map[string]bool
	Orphaned map[string]bool

	InDegree     map[string]int
	OutDegree    map[string]int
	Predecessors map[string][]string

	// Unresolved lists, sorted, the blocks the traversal never dequeued:
	// members of cycles and anything downstream of one.
	Unresolved []string
}

// Bucket returns the classification bucket of id.
func (c *Classification) Bucket(id string) Bucket {
	switch {
	case c.Orphaned[id]:
		return BucketOrphaned
	case c.Disabled[id]:
		return BucketDisabled
	case c.Terminal[id]:
		return BucketTerminal
	default:
		return BucketRegular
	}
}

// LayerIDs returns the non-empty layer indices in ascending order.
func (c *Classification) LayerIDs() []int {
	return slices.Sorted(maps.Keys(c.Groups))
}

// Classify assigns layers and groups to blocks. Edges with an endpoint
// outside blocks are ignored.
//
// # Algorithm
//
// Layering is a longest-path traversal (Kahn's algorithm):
//  1. Seed layer 0 with every block of in-degree 0 and every entry point
//  2. For each dequeued block, push successors to max(existing, layer+1)
//  3. Enqueue a successor once all its incoming edges are consumed
//
// Entry points stay on layer 0 even when they have incoming edges. Blocks
// never assigned a layer (cycles) fall back to layer 0, or to MaxLayer+2
// when orphaned.
func Classify(blocks []workflow.Block, edges []workflow.Edge) Classification {
	c := Classification{
		Layers:       make(map[string]int, len(blocks)),
		Groups:       make(map[int][][]string),
		Disabled:     make(map[string]bool),
		Terminal:     make(map[string]bool),
		Orphaned:     make(map[string]bool),
		InDegree:     make(map[string]int, len(blocks)),
		OutDegree:    make(map[string]int, len(blocks)),
		Predecessors: make(map[string][]string),
	}

	byID := make(map[string]workflow.Block, len(blocks))
	order := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if _, dup := byID[b.ID]; dup {
			continue
		}
		byID[b.ID] = b
		order = append(order, b.ID)
		c.InDegree[b.ID] = 0
		c.OutDegree[b.ID] = 0
	}

	adjacency := make(map[string][]string)
	for _, e := range edges {
		if _, ok := byID[e.Source]; !ok {
			continue
		}
		if _, ok := byID[e.Target]; !ok {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		c.OutDegree[e.Source]++
		c.InDegree[e.Target]++
		if !slices.Contains(c.Predecessors[e.Target], e.Source) {
			c.Predecessors[e.Target] = append(c.Predecessors[e.Target], e.Source)
		}
	}
	for id := range c.Predecessors {
		slices.Sort(c.Predecessors[id])
	}

	for _, id := range order {
		b := byID[id]
		if !b.Enabled {
			c.Disabled[id] = true
		}
		if c.OutDegree[id] == 0 && !b.IsContainer() {
			c.Terminal[id] = true
		}
		if c.InDegree[id] == 0 && c.OutDegree[id] == 0 && !b.IsEntryPoint() {
			c.Orphaned[id] = true
		}
	}

	remaining := maps.Clone(c.InDegree)
	visited := make(map[string]bool, len(order))
	queue := make([]string, 0, len(order))
	for _, id := range order {
		if c.InDegree[id] == 0 || byID[id].IsEntryPoint() {
			c.Layers[id] = 0
			visited[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[curr] {
			if !byID[next].IsEntryPoint() {
				if layer := c.Layers[curr] + 1; layer > c.Layers[next] {
					c.Layers[next] = layer
				}
			}
			remaining[next]--
			if remaining[next] == 0 && !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, l := range c.Layers {
		c.MaxLayer = max(c.MaxLayer, l)
	}
	orphanLayer := c.MaxLayer + 2
	for _, id := range order {
		if !visited[id] {
			c.Unresolved = append(c.Unresolved, id)
		}
		if _, ok := c.Layers[id]; ok {
			continue
		}
		if c.Orphaned[id] {
			c.Layers[id] = orphanLayer
		} else {
			c.Layers[id] = 0
		}
	}
	slices.Sort(c.Unresolved)
	for _, l := range c.Layers {
		c.MaxLayer = max(c.MaxLayer, l)
	}

	c.group(order)
	return c
}

// group partitions every layer. Predecessor groups come first (by key),
// then disabled groups (by key), then one terminal group, then one orphan
// group.
func (c *Classification) group(order []string) {
	type layerBuckets struct {
		keyed    map[string][]string
		terminal []string
		orphaned []string
	}
	layers := make(map[int]*layerBuckets)

	for _, id := range order {
		l := c.Layers[id]
		lb := layers[l]
		if lb == nil {
			lb = &layerBuckets{keyed: make(map[string][]string)}
			layers[l] = lb
		}
		switch {
		case c.Orphaned[id]:
			lb.orphaned = append(lb.orphaned, id)
		case c.Terminal[id]:
			lb.terminal = append(lb.terminal, id)
		default:
			key := strings.Join(c.Predecessors[id], ",")
			if c.Disabled[id] {
				key = disabledGroupPrefix + key
			}
			lb.keyed[key] = append(lb.keyed[key], id)
		}
	}

	for l, lb := range layers {
		keys := slices.SortedFunc(maps.Keys(lb.keyed), func(a, b string) int {
			da, db := strings.HasPrefix(a, disabledGroupPrefix), strings.HasPrefix(b, disabledGroupPrefix)
			if da != db {
				if da {
					return 1
				}
				return -1
			}
			return strings.Compare(a, b)
		})
		var groups [][]string
		for _, k := range keys {
			groups = append(groups, c.sortGroup(lb.keyed[k]))
		}
		if len(lb.terminal) > 0 {
			groups = append(groups, c.sortGroup(lb.terminal))
		}
		if len(lb.orphaned) > 0 {
			groups = append(groups, c.sortGroup(lb.orphaned))
		}
		c.Groups[l] = groups
	}
}

// sortGroup orders a group by bucket, then ID, so exceptional blocks trail.
func (c *Classification) sortGroup(ids []string) []string {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b string) int {
		if ba, bb := c.Bucket(a), c.Bucket(b); ba != bb {
			return int(ba) - int(bb)
		}
		return strings.Compare(a, b)
	})
	return out
}
