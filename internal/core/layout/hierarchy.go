package layout

import (
	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/geometry"
)

// HierarchyNode is the tree form of the containment hierarchy.
type HierarchyNode struct {
	Block    domain.Block     `json:"block"`
	Children []*HierarchyNode `json:"children,omitempty"`
}

// HierarchyStats summarizes a built hierarchy.
type HierarchyStats struct {
	TotalBlocks      int         `json:"total_blocks"`
	RootBlocks       int         `json:"root_blocks"`
	MaxDepth         int         `json:"max_depth"`
	BlocksByLevel    map[int]int `json:"blocks_by_level"`
	AvgChildrenCount float64     `json:"avg_children_count"`
}

// BuildHierarchy annotates blocks with containment links. A block's parent is
// the smallest-area block strictly containing it; the parent's area must be
// strictly larger than the child's, which rules out cycles among identical
// boxes. Ties on area go to the earliest block in input order. Input order is
// preserved; ids are untouched.
func BuildHierarchy(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
		out[i].ParentID = nil
		out[i].Children = nil
		out[i].Level = 0
	}

	for i := range out {
		childArea := out[i].Box.Area()
		parent := -1
		parentArea := 0.0
		for j := range out {
			if i == j {
				continue
			}
			area := out[j].Box.Area()
			if area <= childArea {
				continue
			}
			if !geometry.Contains(out[j].Box, out[i].Box, 0) {
				continue
			}
			if parent == -1 || area < parentArea {
				parent = j
				parentArea = area
			}
		}
		if parent >= 0 {
			id := out[parent].ID
			out[i].ParentID = &id
		}
	}

	// Children in input order, levels by walking the parent chain.
	byID := make(map[int]int, len(out))
	for i, b := range out {
		byID[b.ID] = i
	}
	for i := range out {
		if out[i].ParentID != nil {
			p := byID[*out[i].ParentID]
			out[p].Children = append(out[p].Children, out[i].ID)
		}
	}
	for i := range out {
		level := 0
		for cur := i; out[cur].ParentID != nil; {
			cur = byID[*out[cur].ParentID]
			level++
		}
		out[i].Level = level
	}
	return out
}

// BuildHierarchyTree converts hierarchy-annotated blocks into root nodes.
// Roots and children keep the input order of the flat list.
func BuildHierarchyTree(blocks []domain.Block) []*HierarchyNode {
	nodes := make(map[int]*HierarchyNode, len(blocks))
	for _, b := range blocks {
		nodes[b.ID] = &HierarchyNode{Block: b}
	}
	var roots []*HierarchyNode
	for _, b := range blocks {
		if b.ParentID == nil {
			roots = append(roots, nodes[b.ID])
			continue
		}
		parent := nodes[*b.ParentID]
		parent.Children = append(parent.Children, nodes[b.ID])
	}
	return roots
}

// FlattenHierarchy is the inverse of BuildHierarchyTree: a pre-order walk
// that yields every block exactly once.
func FlattenHierarchy(roots []*HierarchyNode) []domain.Block {
	var out []domain.Block
	var walk func(*HierarchyNode)
	walk = func(n *HierarchyNode) {
		out = append(out, n.Block)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// ComputeHierarchyStats aggregates depth and fan-out over annotated blocks.
func ComputeHierarchyStats(blocks []domain.Block) HierarchyStats {
	stats := HierarchyStats{
		TotalBlocks:   len(blocks),
		BlocksByLevel: make(map[int]int),
	}
	parents := 0
	children := 0
	for _, b := range blocks {
		if b.ParentID == nil {
			stats.RootBlocks++
		}
		if b.Level > stats.MaxDepth {
			stats.MaxDepth = b.Level
		}
		stats.BlocksByLevel[b.Level]++
		if len(b.Children) > 0 {
			parents++
			children += len(b.Children)
		}
	}
	if parents > 0 {
		stats.AvgChildrenCount = float64(children) / float64(parents)
	}
	return stats
}
