// pkg/core/vec.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a world-space position or offset. Y is the vertical axis.
// It is an array value, so copies never alias.
type Vec3 = mgl64.Vec3

// NewVec3 builds a Vec3 from its components.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}
