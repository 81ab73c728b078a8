package models

// MutablePoint is the editable counterpart of Point.
// It is not safe for concurrent mutation.
type MutablePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Immutable snapshots the point
func (m MutablePoint) Immutable() Point {
	return Point{x: m.X, y: m.Y}
}

// MutableVertices is the editable counterpart of Vertices. Corners are held
// by value so copies never share state.
type MutableVertices struct {
	TopLeft     MutablePoint `json:"top_left"`
	TopRight    MutablePoint `json:"top_right"`
	BottomRight MutablePoint `json:"bottom_right"`
	BottomLeft  MutablePoint `json:"bottom_left"`
}

// Corner returns a pointer to the named corner for in-place edits.
// It returns nil for an unknown corner.
func (m *MutableVertices) Corner(c Corner) *MutablePoint {
	switch c {
	case TopLeft:
		return &m.TopLeft
	case TopRight:
		return &m.TopRight
	case BottomRight:
		return &m.BottomRight
	case BottomLeft:
		return &m.BottomLeft
	}
	return nil
}

// Immutable snapshots all four corners
func (m MutableVertices) Immutable() Vertices {
	return NewVertices(
		m.TopLeft.Immutable(),
		m.TopRight.Immutable(),
		m.BottomRight.Immutable(),
		m.BottomLeft.Immutable(),
	)
}
