package models

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPolygon(r *rand.Rand) Polygon {
	var c [8]float64
	for i := range c {
		c[i] = r.NormFloat64() * 1e3
	}
	return NewPolygon(c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7])
}

func TestPolygonToVerticesMapping(t *testing.T) {
	p := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8)
	v := p.Vertices()

	expected := NewVertices(NewPoint(1, 2), NewPoint(3, 4), NewPoint(5, 6), NewPoint(7, 8))
	assert.Equal(t, expected, v)
	assert.Equal(t, NewPoint(1, 2), v.TopLeft())
	assert.Equal(t, NewPoint(3, 4), v.TopRight())
	assert.Equal(t, NewPoint(5, 6), v.BottomRight())
	assert.Equal(t, NewPoint(7, 8), v.BottomLeft())
	assert.Equal(t, p, v.Polygon())
}

func TestPolygonGetters(t *testing.T) {
	p := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8)
	got := []float64{p.X1(), p.Y1(), p.X2(), p.Y2(), p.X3(), p.Y3(), p.X4(), p.Y4()}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, got)
	assert.Equal(t, [8]float64{1, 2, 3, 4, 5, 6, 7, 8}, p.Coords())
}

func TestRoundTrips(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		p := randomPolygon(r)
		assert.True(t, p.Vertices().Polygon() == p, "flat round trip %v", p)

		v := p.Vertices()
		assert.True(t, v.Polygon().Vertices() == v, "vertices round trip %v", v)
		assert.True(t, v.Mutable().Immutable() == v, "mutability round trip %v", v)
	}
}

func TestRoundTripExtremeValues(t *testing.T) {
	p := NewPolygon(-0.0, math.MaxFloat64, math.SmallestNonzeroFloat64, -math.MaxFloat64,
		0.1, 0.2, 1e-300, -1e300)
	assert.Equal(t, p.Coords(), p.Vertices().Polygon().Coords())
	assert.Equal(t, p.Coords(), p.Vertices().Mutable().Immutable().Polygon().Coords())
}

func TestPointMutableIsIndependent(t *testing.T) {
	p := NewPoint(1.5, -2.5)
	m := p.Mutable()
	assert.Equal(t, p, m.Immutable())

	m.X = 99
	m.Y = 100
	assert.Equal(t, 1.5, p.X())
	assert.Equal(t, -2.5, p.Y())
	assert.Equal(t, NewPoint(99, 100), m.Immutable())
}

func TestVerticesMutableIsIndependent(t *testing.T) {
	v := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8).Vertices()
	mv := v.Mutable()
	mv.TopLeft.X = 99

	assert.Equal(t, MutablePoint{X: 3, Y: 4}, mv.TopRight)
	assert.Equal(t, MutablePoint{X: 5, Y: 6}, mv.BottomRight)
	assert.Equal(t, MutablePoint{X: 7, Y: 8}, mv.BottomLeft)
	assert.Equal(t, NewPoint(1, 2), v.TopLeft())
	assert.Equal(t, NewPolygon(99, 2, 3, 4, 5, 6, 7, 8), mv.Immutable().Polygon())

	// snapshots taken before further edits stay fixed
	snapshot := mv.Immutable()
	mv.BottomLeft.Y = -1
	assert.Equal(t, NewPoint(7, 8), snapshot.BottomLeft())
}

func TestMutableVerticesCorner(t *testing.T) {
	mv := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8).Vertices().Mutable()
	for _, c := range []Corner{TopLeft, TopRight, BottomRight, BottomLeft} {
		pt := mv.Corner(c)
		require.NotNil(t, pt)
		pt.Y += 10
	}
	assert.Nil(t, mv.Corner(Corner(7)))
	assert.Equal(t, NewPolygon(1, 12, 3, 14, 5, 16, 7, 18), mv.Immutable().Polygon())
}

func TestCornerNames(t *testing.T) {
	testCases := []struct {
		name   string
		corner Corner
	}{
		{"top_left", TopLeft},
		{"top_right", TopRight},
		{"bottom_right", BottomRight},
		{"bottom_left", BottomLeft},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseCorner(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.corner, c)
			assert.Equal(t, tc.name, c.String())
		})
	}

	_, err := ParseCorner("center")
	assert.Error(t, err)
	assert.Equal(t, "Corner(9)", Corner(9).String())
}

func TestPointsAreMapKeys(t *testing.T) {
	seen := map[Point]int{}
	seen[NewPoint(1, 2)]++
	seen[NewPolygon(1, 2, 0, 0, 0, 0, 0, 0).Vertices().TopLeft()]++
	assert.Equal(t, 2, seen[NewPoint(1, 2)])
}

func TestPolygonJSON(t *testing.T) {
	var p Polygon
	err := json.Unmarshal([]byte(`[1, 2.5, 3, 4, 5, 6, 7, -8]`), &p)
	require.NoError(t, err)
	assert.Equal(t, NewPolygon(1, 2.5, 3, 4, 5, 6, 7, -8), p)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2.5, 3, 4, 5, 6, 7, -8]`, string(data))
}

func TestPolygonJSONErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		arity bool
	}{
		{"too short", `[1, 2, 3, 4, 5, 6, 7]`, true},
		{"too long", `[1, 2, 3, 4, 5, 6, 7, 8, 9]`, true},
		{"empty", `[]`, true},
		{"not numbers", `["a", 2, 3, 4, 5, 6, 7, 8]`, false},
		{"object", `{"x1": 1}`, false},
		{"null element", `[1, null, 3, 4, 5, 6, 7, 8]`, false},
		{"null last element", `[1, 2, 3, 4, 5, 6, 7, null]`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Polygon
			err := p.UnmarshalJSON([]byte(tc.input))
			require.Error(t, err)
			assert.Equal(t, tc.arity, errors.Is(err, ErrPolygonArity))
		})
	}
}

func TestPolygonJSONNullIsNoop(t *testing.T) {
	p := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, p.UnmarshalJSON([]byte("null")))
	assert.Equal(t, NewPolygon(1, 2, 3, 4, 5, 6, 7, 8), p)
}

func TestParsePolygon(t *testing.T) {
	p, err := ParsePolygon([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, NewPolygon(1, 2, 3, 4, 5, 6, 7, 8), p)

	_, err = ParsePolygon([]float64{1, 2})
	assert.ErrorIs(t, err, ErrPolygonArity)
}

func TestVerticesJSON(t *testing.T) {
	v := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8).Vertices()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"top_left": {"x": 1, "y": 2},
		"top_right": {"x": 3, "y": 4},
		"bottom_right": {"x": 5, "y": 6},
		"bottom_left": {"x": 7, "y": 8}
	}`, string(data))

	var decoded Vertices
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, v, decoded)
}

func TestVerticesJSONMissingCoordinates(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		msg   string
	}{
		{"empty object", `{}`, "top_left"},
		{"only top_left.x", `{"top_left": {"x": 1}}`, "top_left.y"},
		{"null corner", `{"top_left": {"x": 1, "y": 2}, "top_right": null, "bottom_right": {"x": 5, "y": 6}, "bottom_left": {"x": 7, "y": 8}}`, "top_right"},
		{"missing bottom_left.x", `{"top_left": {"x": 1, "y": 2}, "top_right": {"x": 3, "y": 4}, "bottom_right": {"x": 5, "y": 6}, "bottom_left": {"y": 8}}`, "bottom_left.x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var v Vertices
			err := v.UnmarshalJSON([]byte(tc.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingCoordinate)
			assert.Contains(t, err.Error(), tc.msg)
			assert.Equal(t, Vertices{}, v)

			assert.Error(t, json.Unmarshal([]byte(tc.input), &v))
		})
	}
}

func TestPointJSON(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`{"x": 0, "y": -3.5}`), &p))
	assert.Equal(t, NewPoint(0, -3.5), p)

	err := p.UnmarshalJSON([]byte(`{"x": 1}`))
	assert.ErrorIs(t, err, ErrMissingCoordinate)
}

func TestRegionJSONAndGob(t *testing.T) {
	var region Region
	err := json.Unmarshal([]byte(`{"id": "r1", "page": 2, "polygon": [0, 0, 10, 0, 10, 5, 0, 5]}`), &region)
	require.NoError(t, err)
	assert.Equal(t, "r1", region.ID)
	assert.Equal(t, 2, region.Page)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(region))
	var decoded Region
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, region, decoded)
}

func TestRegionEnvelope(t *testing.T) {
	// skewed quadrilateral, corners not axis aligned
	region := Region{ID: "skew", Polygon: NewPolygon(2, 1, 9, 0, 10, 6, 1, 7)}
	assert.Equal(t, Box{MinX: 1, MinY: 0, MaxX: 10, MaxY: 7}, region.Envelope())
}

func TestBox(t *testing.T) {
	a := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	assert.True(t, a.Valid())
	assert.False(t, Box{MinX: 5, MaxX: 1}.Valid())
	assert.True(t, a.Intersects(Box{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20}))
	assert.False(t, a.Intersects(Box{MinX: 11, MinY: 0, MaxX: 20, MaxY: 5}))
}

func BenchmarkVerticesRoundTrip(b *testing.B) {
	p := NewPolygon(1, 2, 3, 4, 5, 6, 7, 8)
	for i := 0; i < b.N; i++ {
		_ = p.Vertices().Mutable().Immutable().Polygon()
	}
}
