// pkg/core/actor.go
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityID identifies an entity on the host server.
type EntityID = uuid.UUID

// Tier classifies a connected client for tolerance purposes.
// The zero value is TierLegacy, which receives no hitbox forgiveness.
type Tier uint8

const (
	// TierLegacy clients report exact positions without interpolation.
	TierLegacy Tier = iota
	// TierModern clients interpolate entity positions client-side.
	TierModern
)

// String returns the lower-case tier name.
func (t Tier) String() string {
	switch t {
	case TierModern:
		return "modern"
	case TierLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// ParseTier parses a tier name as sent by the host ("modern"/"legacy", or "1"/"0").
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modern", "1":
		return TierModern, nil
	case "legacy", "0":
		return TierLegacy, nil
	default:
		return TierLegacy, fmt.Errorf("unknown client tier %q", s)
	}
}

// Placement is where an actor currently is.
type Placement struct {
	Eye    Vec3    // eye position
	Base   Vec3    // feet position
	Height float64 // reference collision height, 0 if unknown
}

// ActorSnapshot is the last state the host reported for an actor.
type ActorSnapshot struct {
	ID        EntityID
	Placement Placement
	Tier      Tier
	UpdatedAt time.Time
}

// PositionSource looks up actor placement. Implemented by the host integration.
type PositionSource interface {
	Placement(id EntityID) (Placement, bool)
}

// TierSource classifies actors by client compatibility tier.
type TierSource interface {
	Tier(id EntityID) (Tier, bool)
}
