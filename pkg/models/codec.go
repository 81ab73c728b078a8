package models

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrPolygonArity is returned when a decoded coordinate array does not hold exactly eight numbers
var ErrPolygonArity = errors.New("polygon must have exactly 8 coordinates")

// ErrMissingCoordinate is returned when a labeled corner or one of its coordinates is absent
var ErrMissingCoordinate = errors.New("missing coordinate")

// ParsePolygon builds a polygon from coordinates already decoded in API order
func ParsePolygon(values []float64) (Polygon, error) {
	if len(values) != 8 {
		return Polygon{}, fmt.Errorf("%w: got %d", ErrPolygonArity, len(values))
	}
	var p Polygon
	copy(p.coords[:], values)
	return p, nil
}

// MarshalJSON encodes the polygon as the API's flat array [x1,y1,...,x4,y4]
func (p Polygon) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.coords)
}

// UnmarshalJSON decodes the API's flat array form
func (p *Polygon) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var elems []*float64
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("failed to decode polygon: %w", err)
	}
	values := make([]float64, len(elems))
	for i, e := range elems {
		if e == nil {
			return fmt.Errorf("failed to decode polygon: coordinate %d is null", i+1)
		}
		values[i] = *e
	}
	parsed, err := ParsePolygon(values)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Polygon) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p.coords); err != nil {
		return nil, fmt.Errorf("failed to encode polygon: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Polygon) GobDecode(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p.coords); err != nil {
		return fmt.Errorf("failed to decode polygon: %w", err)
	}
	return nil
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Mutable())
}

func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var w pointWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode point: %w", err)
	}
	pt, err := w.point("point")
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// MarshalJSON encodes the vertices as an object keyed by corner name
func (v Vertices) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Mutable())
}

// UnmarshalJSON decodes the labeled form; every corner and coordinate must be present
func (v *Vertices) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var w verticesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode vertices: %w", err)
	}

	var decoded Vertices
	for c, pw := range [4]*pointWire{
		TopLeft:     w.TopLeft,
		TopRight:    w.TopRight,
		BottomRight: w.BottomRight,
		BottomLeft:  w.BottomLeft,
	} {
		if pw == nil {
			return fmt.Errorf("%w: %s", ErrMissingCoordinate, Corner(c))
		}
		pt, err := pw.point(Corner(c).String())
		if err != nil {
			return err
		}
		decoded.points[c] = pt
	}
	*v = decoded
	return nil
}

// pointWire and verticesWire tell absent keys apart from zero coordinates
type pointWire struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (w pointWire) point(name string) (Point, error) {
	if w.X == nil {
		return Point{}, fmt.Errorf("%w: %s.x", ErrMissingCoordinate, name)
	}
	if w.Y == nil {
		return Point{}, fmt.Errorf("%w: %s.y", ErrMissingCoordinate, name)
	}
	return Point{x: *w.X, y: *w.Y}, nil
}

type verticesWire struct {
	TopLeft     *pointWire `json:"top_left"`
	TopRight    *pointWire `json:"top_right"`
	BottomRight *pointWire `json:"bottom_right"`
	BottomLeft  *pointWire `json:"bottom_left"`
}
