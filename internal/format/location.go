package format

import (
	"fmt"
	"math"
	"strings"
)

// Location is a point in a named world.
type Location struct {
	World string  `yaml:"world" json:"world"`
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Z     float64 `yaml:"z" json:"z"`
}

// Block returns the block coordinates containing the location.
func (l Location) Block() (x, y, z int) {
	return int(math.Floor(l.X)), int(math.Floor(l.Y)), int(math.Floor(l.Z))
}

// WorldKind classifies a world by its name suffix.
func WorldKind(world string) string {
	switch {
	case strings.HasSuffix(world, "_nether"):
		return "the nether"
	case strings.HasSuffix(world, "_the_end"):
		return "the end"
	default:
		return "the overworld"
	}
}

// FormatLocation renders a location without style codes, e.g.
// "(10, 64, -5) in the nether".
func FormatLocation(loc Location, withWorld bool) string {
	x, y, z := loc.Block()
	s := fmt.Sprintf("(%d, %d, %d)", x, y, z)
	if withWorld {
		s += " in " + WorldKind(loc.World)
	}
	return s
}

// Location renders a location with the location and text styles applied.
func (r *Renderer) Location(loc Location, withWorld bool) string {
	x, y, z := loc.Block()
	lc := r.Code(r.styles.Location)
	s := fmt.Sprintf("%s(%d, %d, %d)", lc, x, y, z)
	if withWorld {
		s += r.Code(r.styles.Text) + " in " + lc + WorldKind(loc.World)
	}
	return s
}
