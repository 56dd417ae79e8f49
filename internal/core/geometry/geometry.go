// Package geometry holds the pure bounding-box math shared by the block
// post-processing pipeline. All functions are stateless and never fail on
// degenerate boxes; callers decide what a zero result means.
package geometry

import (
	"math"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

// UnionBox returns the smallest box covering all inputs. The second return is
// false for an empty input; the zero box is returned in that case.
func UnionBox(boxes []domain.BoundingBox) (domain.BoundingBox, bool) {
	if len(boxes) == 0 {
		return domain.BoundingBox{}, false
	}
	xMin, yMin := boxes[0].XMin, boxes[0].YMin
	xMax, yMax := boxes[0].XMax, boxes[0].YMax
	for _, b := range boxes[1:] {
		xMin = math.Min(xMin, b.XMin)
		yMin = math.Min(yMin, b.YMin)
		xMax = math.Max(xMax, b.XMax)
		yMax = math.Max(yMax, b.YMax)
	}
	return domain.NewBoundingBox(xMin, yMin, xMax, yMax), true
}

// OverlapRatio returns intersection area divided by the area of a.
// 0 when the boxes are disjoint or either has non-positive area.
func OverlapRatio(a, b domain.BoundingBox) float64 {
	if !a.Valid() || !b.Valid() {
		return 0
	}
	xOverlap := math.Min(a.XMax, b.XMax) - math.Max(a.XMin, b.XMin)
	yOverlap := math.Min(a.YMax, b.YMax) - math.Max(a.YMin, b.YMin)
	if xOverlap <= 0 || yOverlap <= 0 {
		return 0
	}
	return xOverlap * yOverlap / a.Area()
}

// Contains reports whether inner lies within outer expanded by tolerance
// pixels on all sides.
func Contains(outer, inner domain.BoundingBox, tolerance float64) bool {
	return inner.XMin >= outer.XMin-tolerance &&
		inner.YMin >= outer.YMin-tolerance &&
		inner.XMax <= outer.XMax+tolerance &&
		inner.YMax <= outer.YMax+tolerance
}

// VerticalGap is the signed distance from a's bottom edge to b's top edge,
// negative when the boxes already overlap vertically.
func VerticalGap(a, b domain.BoundingBox) float64 {
	return b.YMin - a.YMax
}

// VerticalDistance is the separation between the vertical ranges of a and b,
// 0 when they overlap. Order-independent.
func VerticalDistance(a, b domain.BoundingBox) float64 {
	d := math.Max(a.YMin, b.YMin) - math.Min(a.YMax, b.YMax)
	if d < 0 {
		return 0
	}
	return d
}

// HorizontalDistance is the separation between the horizontal ranges of a and
// b, 0 when they overlap. Order-independent.
func HorizontalDistance(a, b domain.BoundingBox) float64 {
	d := math.Max(a.XMin, b.XMin) - math.Min(a.XMax, b.XMax)
	if d < 0 {
		return 0
	}
	return d
}

func HorizontalCenterDistance(a, b domain.BoundingBox) float64 {
	return math.Abs((a.XMin+a.XMax)/2 - (b.XMin+b.XMax)/2)
}

// OverlapsVertically reports whether the vertical ranges of a and b intersect.
func OverlapsVertically(a, b domain.BoundingBox) bool {
	return math.Max(a.YMin, b.YMin) < math.Min(a.YMax, b.YMax)
}
