package domain

// BoundingBox is the canonical axis-aligned rectangle of a block. Width and
// Height are derived from the corners; use the constructors so both stay
// consistent. A box is valid only when XMax > XMin and YMax > YMin.
type BoundingBox struct {
	XMin   float64 `json:"x_min"`
	YMin   float64 `json:"y_min"`
	XMax   float64 `json:"x_max"`
	YMax   float64 `json:"y_max"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewBoundingBox(xMin, yMin, xMax, yMax float64) BoundingBox {
	return BoundingBox{
		XMin:   xMin,
		YMin:   yMin,
		XMax:   xMax,
		YMax:   yMax,
		Width:  xMax - xMin,
		Height: yMax - yMin,
	}
}

// BoundingBoxFromPolygon reduces a quadrilateral (or any point set) to its
// axis-aligned envelope. Returns the zero box for fewer than two points.
func BoundingBoxFromPolygon(points [][]float64) BoundingBox {
	if len(points) < 2 {
		return BoundingBox{}
	}
	xMin, yMin := points[0][0], points[0][1]
	xMax, yMax := xMin, yMin
	for _, p := range points[1:] {
		if len(p) < 2 {
			continue
		}
		if p[0] < xMin {
			xMin = p[0]
		}
		if p[0] > xMax {
			xMax = p[0]
		}
		if p[1] < yMin {
			yMin = p[1]
		}
		if p[1] > yMax {
			yMax = p[1]
		}
	}
	return NewBoundingBox(xMin, yMin, xMax, yMax)
}

// Polygon returns the four corners clockwise from the top-left.
func (b BoundingBox) Polygon() [][]float64 {
	return [][]float64{
		{b.XMin, b.YMin},
		{b.XMax, b.YMin},
		{b.XMax, b.YMax},
		{b.XMin, b.YMax},
	}
}

func (b BoundingBox) Area() float64 {
	if !b.Valid() {
		return 0
	}
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

func (b BoundingBox) Valid() bool {
	return b.XMax > b.XMin && b.YMax > b.YMin
}
