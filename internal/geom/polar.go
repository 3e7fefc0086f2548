package geom

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a point in the simulation plane, pivot at the origin.
type Vec = r2.Vec

// Polar is an arm of a given length rotated by Angle radians.
type Polar struct {
	Length float64 `json:"length"`
	Angle  float64 `json:"angle"`
}

type Convention int

const (
	Hanging Convention = iota
	Standard
)

func (c Convention) String() string {
	switch c {
	case Hanging:
		return "hanging"
	case Standard:
		return "standard"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// ParseConvention accepts the names produced by String; empty means Hanging.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hanging":
		return Hanging, nil
	case "standard":
		return Standard, nil
	default:
		return Hanging, fmt.Errorf("unknown angle convention: %q", s)
	}
}

// ToCartesian maps an arm to the position of its free end.
func (c Convention) ToCartesian(p Polar) Vec {
	sin, cos := math.Sincos(p.Angle)
	if c == Standard {
		return Vec{X: p.Length * cos, Y: p.Length * sin}
	}
	return Vec{X: p.Length * sin, Y: p.Length * cos}
}

// FromCartesian is the inverse of ToCartesian. The origin maps to the zero arm.
func (c Convention) FromCartesian(v Vec) Polar {
	if v.X == 0 && v.Y == 0 {
		return Polar{}
	}
	length := r2.Norm(v)
	if c == Standard {
		return Polar{Length: length, Angle: math.Atan2(v.Y, v.X)}
	}
	return Polar{Length: length, Angle: math.Atan2(v.X, v.Y)}
}

// ToCartesian uses the Hanging convention.
func (p Polar) ToCartesian() Vec {
	return Hanging.ToCartesian(p)
}

// FromCartesian uses the Hanging convention.
func FromCartesian(v Vec) Polar {
	return Hanging.FromCartesian(v)
}

// Chain converts arms hinged in series into absolute bob positions.
// Arm i hangs from the end of arm i-1; arm 0 hangs from the origin.
func (c Convention) Chain(arms []Polar) []Vec {
	bobs := make([]Vec, len(arms))
	var pivot Vec
	for i, arm := range arms {
		pivot = r2.Add(pivot, c.ToCartesian(arm))
		bobs[i] = pivot
	}
	return bobs
}

// Screen flips both axes, matching toolkits whose y axis points up while
// the hanging bob is drawn below its pivot.
func Screen(v Vec) Vec {
	return r2.Scale(-1, v)
}
