// Package layout derives page structure from raw OCR blocks: merging of
// fragmented adjacent blocks, section grouping and the containment hierarchy.
package layout

import (
	"sort"
	"strings"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/geometry"
)

// MergeAdjacentBlocks fuses blocks whose boxes sit within thresholdPx of each
// other both vertically and horizontally. The result is in reading order with
// ids re-assigned from 0. A threshold <= 0 disables merging but still sorts
// and re-indexes. Blocks with invalid boxes are never merged and keep their
// reading-order slot.
//
// Merging runs to a fixed point, so applying it twice yields the same result.
func MergeAdjacentBlocks(blocks []domain.Block, thresholdPx float64) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	sortReadingOrder(out)

	if thresholdPx > 0 {
		for {
			merged, changed := mergeOnce(out, thresholdPx)
			out = merged
			if !changed {
				break
			}
		}
	}

	for i := range out {
		out[i].ID = i
	}
	return out
}

func sortReadingOrder(blocks []domain.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Box.YMin != blocks[j].Box.YMin {
			return blocks[i].Box.YMin < blocks[j].Box.YMin
		}
		return blocks[i].Box.XMin < blocks[j].Box.XMin
	})
}

// mergeOnce does a single clustering pass. Candidate pairs are clustered with
// union-find, then each component is fused into one block.
func mergeOnce(blocks []domain.Block, thresholdPx float64) ([]domain.Block, bool) {
	n := len(blocks)
	if n < 2 {
		return blocks, false
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	changed := false
	for i := 0; i < n; i++ {
		if !blocks[i].Box.Valid() {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !blocks[j].Box.Valid() {
				continue
			}
			vGap := geometry.VerticalDistance(blocks[i].Box, blocks[j].Box)
			hGap := geometry.HorizontalDistance(blocks[i].Box, blocks[j].Box)
			if vGap <= thresholdPx && hGap <= thresholdPx {
				if find(i) != find(j) {
					union(i, j)
					changed = true
				}
			}
		}
	}
	if !changed {
		return blocks, false
	}

	groups := make(map[int][]domain.Block, n)
	order := make([]int, 0, n)
	for i, b := range blocks {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], b)
	}

	out := make([]domain.Block, 0, len(order))
	for _, root := range order {
		out = append(out, fuse(groups[root]))
	}
	sortReadingOrder(out)
	return out, true
}

// fuse collapses one merge component. Texts join with single spaces in
// reading order, the box is the union, confidence is the mean, and the type
// is taken from the highest-confidence member.
func fuse(members []domain.Block) domain.Block {
	if len(members) == 1 {
		return members[0]
	}
	sortReadingOrder(members)

	texts := make([]string, 0, len(members))
	boxes := make([]domain.BoundingBox, 0, len(members))
	best := members[0]
	for _, m := range members {
		if m.Text != "" {
			texts = append(texts, m.Text)
		}
		boxes = append(boxes, m.Box)
		if m.Confidence > best.Confidence {
			best = m
		}
	}
	box, _ := geometry.UnionBox(boxes)
	return domain.Block{
		Text:       strings.Join(texts, " "),
		Confidence: domain.MeanConfidence(members),
		Box:        box,
		Polygon:    box.Polygon(),
		Type:       best.Type,
	}
}
