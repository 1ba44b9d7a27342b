// Package parser converts raw host command arguments into typed requests.
// It has no dependencies beyond a logger and never touches shared state.
package parser

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pvpguard/combatcore/internal/geo"
	"github.com/pvpguard/combatcore/internal/util"
	"github.com/pvpguard/combatcore/pkg/core"
)

// HostNamespace derives stable entity IDs from host handles that are not
// UUIDs (numeric network IDs, player names).
var HostNamespace = uuid.MustParse("6f1c1f2e-4b7a-5d3c-9e61-2a8f0c5b7d14")

// Parser provides pure []string -> request conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// EntityID parses a UUID, or derives one from any other non-empty handle.
func EntityID(s string) (core.EntityID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, fmt.Errorf("empty entity id")
	}
	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}
	return uuid.NewSHA1(HostNamespace, []byte(s)), nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to float: %w", name, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be finite, got %s", name, s)
	}
	return f, nil
}

// parseFloatList parses "[a,b,...]" with finite elements.
func parseFloatList(name, s string) ([]float64, error) {
	parts := util.SplitList(s)
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := parseFloat(fmt.Sprintf("%s[%d]", name, i), p)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func parseVec3(name, s string) (core.Vec3, error) {
	v, err := geo.Vec3FromString(s)
	if err != nil {
		return v, fmt.Errorf("error parsing %s %q: %w", name, s, err)
	}
	return v, nil
}

func need(cmd string, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s: expected %d args, got %d", cmd, n, len(args))
	}
	return nil
}
