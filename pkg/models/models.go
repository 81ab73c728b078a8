package models

import "math"

// Box is an axis-aligned rectangle in page coordinates
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Valid reports whether the box has non-negative extent on both axes
func (b Box) Valid() bool {
	return b.MaxX >= b.MinX && b.MaxY >= b.MinY
}

// Intersects reports whether two boxes share at least one point
func (b Box) Intersects(other Box) bool {
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// Region is a polygon detected on a page, as returned by the layout API
type Region struct {
	ID      string  `json:"id"`
	Page    int     `json:"page"`
	Polygon Polygon `json:"polygon"`
}

// Envelope returns the smallest axis-aligned box holding all four corners
func (r Region) Envelope() Box {
	c := r.Polygon.coords
	box := Box{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for i := 0; i < len(c); i += 2 {
		box.MinX = math.Min(box.MinX, c[i])
		box.MaxX = math.Max(box.MaxX, c[i])
		box.MinY = math.Min(box.MinY, c[i+1])
		box.MaxY = math.Max(box.MaxY, c[i+1])
	}
	return box
}
