// Package models holds the polygon value types returned by the document
// layout analysis API and the conversions between their representations.
package models

import "fmt"

// Corner names one vertex of a layout polygon
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// corners maps each flat position (x1,y1)..(x4,y4) to the labeled corner it holds.
var corners = [4]Corner{TopLeft, TopRight, BottomRight, BottomLeft}

var cornerNames = [4]string{"top_left", "top_right", "bottom_right", "bottom_left"}

func (c Corner) String() string {
	if c < TopLeft || c > BottomLeft {
		return fmt.Sprintf("Corner(%d)", int(c))
	}
	return cornerNames[c]
}

// ParseCorner resolves a corner by its snake_case name
func ParseCorner(name string) (Corner, error) {
	for i, n := range cornerNames {
		if n == name {
			return Corner(i), nil
		}
	}
	return 0, fmt.Errorf("unknown corner %q", name)
}

// Point is an immutable x/y pair.
type Point struct {
	x, y float64
}

// NewPoint creates a point
func NewPoint(x, y float64) Point {
	return Point{x: x, y: y}
}

func (p Point) X() float64 { return p.x }
func (p Point) Y() float64 { return p.y }

// Mutable returns an independent copy whose fields can be reassigned.
func (p Point) Mutable() MutablePoint {
	return MutablePoint{X: p.x, Y: p.y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.x, p.y)
}

// Polygon is the flat form of a layout polygon: four x/y pairs ordered
// top-left, top-right, bottom-right, bottom-left. Values are immutable.
type Polygon struct {
	coords [8]float64
}

// NewPolygon creates a polygon from its eight coordinates in API order
func NewPolygon(x1, y1, x2, y2, x3, y3, x4, y4 float64) Polygon {
	return Polygon{coords: [8]float64{x1, y1, x2, y2, x3, y3, x4, y4}}
}

func (p Polygon) X1() float64 { return p.coords[0] }
func (p Polygon) Y1() float64 { return p.coords[1] }
func (p Polygon) X2() float64 { return p.coords[2] }
func (p Polygon) Y2() float64 { return p.coords[3] }
func (p Polygon) X3() float64 { return p.coords[4] }
func (p Polygon) Y3() float64 { return p.coords[5] }
func (p Polygon) X4() float64 { return p.coords[6] }
func (p Polygon) Y4() float64 { return p.coords[7] }

// Coords returns a copy of the eight coordinates in API order
func (p Polygon) Coords() [8]float64 {
	return p.coords
}

// Vertices converts the flat form to the labeled-corner form.
func (p Polygon) Vertices() Vertices {
	var v Vertices
	for pos, c := range corners {
		v.points[c] = Point{x: p.coords[2*pos], y: p.coords[2*pos+1]}
	}
	return v
}

// Vertices is the labeled-corner form of a layout polygon. Values are immutable.
type Vertices struct {
	points [4]Point
}

// NewVertices creates vertices from the four labeled corners
func NewVertices(topLeft, topRight, bottomRight, bottomLeft Point) Vertices {
	var v Vertices
	v.points[TopLeft] = topLeft
	v.points[TopRight] = topRight
	v.points[BottomRight] = bottomRight
	v.points[BottomLeft] = bottomLeft
	return v
}

func (v Vertices) TopLeft() Point     { return v.points[TopLeft] }
func (v Vertices) TopRight() Point    { return v.points[TopRight] }
func (v Vertices) BottomRight() Point { return v.points[BottomRight] }
func (v Vertices) BottomLeft() Point  { return v.points[BottomLeft] }

// Corner returns the point at the given corner. It panics on an unknown corner.
func (v Vertices) Corner(c Corner) Point {
	return v.points[c]
}

// Polygon converts the labeled-corner form back to the flat form.
func (v Vertices) Polygon() Polygon {
	var p Polygon
	for pos, c := range corners {
		p.coords[2*pos] = v.points[c].x
		p.coords[2*pos+1] = v.points[c].y
	}
	return p
}

// Mutable returns a deep copy whose corners can be adjusted in place.
func (v Vertices) Mutable() MutableVertices {
	return MutableVertices{
		TopLeft:     v.points[TopLeft].Mutable(),
		TopRight:    v.points[TopRight].Mutable(),
		BottomRight: v.points[BottomRight].Mutable(),
		BottomLeft:  v.points[BottomLeft].Mutable(),
	}
}
