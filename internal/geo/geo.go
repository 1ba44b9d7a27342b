package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/pvpguard/combatcore/pkg/core"
)

// DISTANCES
// World coordinates use Y as the vertical axis, so "horizontal" means the X/Z plane.
// All functions are pure and follow IEEE semantics: NaN in, NaN out.

// HorizontalDistance returns the Euclidean distance between a and b projected
// onto the horizontal plane.
func HorizontalDistance(a, b core.Vec3) float64 {
	return math.Hypot(a.X()-b.X(), a.Z()-b.Z())
}

// Distance3D returns the full Euclidean distance between a and b.
func Distance3D(a, b core.Vec3) float64 {
	return a.Sub(b).Len()
}

// VerticalDelta returns the absolute difference along the vertical axis.
func VerticalDelta(a, b core.Vec3) float64 {
	return math.Abs(a.Y() - b.Y())
}

// Sub returns a - b.
func Sub(a, b core.Vec3) core.Vec3 {
	return a.Sub(b)
}

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Vec3FromString parses "x,y,z" or "[x,y,z]" into a Vec3.
func Vec3FromString(coords string) (core.Vec3, error) {
	coords = strings.TrimSpace(coords)
	coords = strings.TrimPrefix(coords, "[")
	coords = strings.TrimSuffix(coords, "]")

	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return core.Vec3{}, ErrInvalidCoordinates
	}
	var v core.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return core.Vec3{}, ErrInvalidCoordinates
		}
		v[i] = f
	}
	return v, nil
}

// GEO POINTS
// Audit rows store positions as WKB points. The ground plane (X/Z) maps to the
// geometry's XY and the vertical axis to Z, so spatial tooling sees a map view.

// PointFromVec3 converts a world position into an XYZ point. Non-finite
// components are rejected.
func PointFromVec3(v core.Vec3) (geom.Point, error) {
	p, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X(), Y: v.Z()},
		Z:    v.Y(),
		Type: geom.DimXYZ,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return p, nil
}

// Vec3FromPoint is the inverse of PointFromVec3. Empty points yield the origin.
func Vec3FromPoint(p geom.Point) core.Vec3 {
	c, ok := p.Coordinates()
	if !ok {
		return core.Vec3{}
	}
	return core.Vec3{c.X, c.Z, c.Y}
}
