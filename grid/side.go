package grid

import (
	"fmt"
	"strings"
)

// Side is one of the four edges of a chunk
type Side uint8

const (
	SideTop    Side = 0 // +y
	SideRight  Side = 1 // +x
	SideBottom Side = 2 // -y
	SideLeft   Side = 3 // -x
)

// SideCount is the number of chunk sides
const SideCount = 4

// Sides lists all sides in code order
var Sides = [SideCount]Side{SideTop, SideRight, SideBottom, SideLeft}

var sideNames = [SideCount]string{"top", "right", "bottom", "left"}

// Opposite maps Top<->Bottom and Right<->Left
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideRight:
		return SideLeft
	case SideLeft:
		return SideRight
	}
	return s
}

// Valid reports whether s is one of the four sides
func (s Side) Valid() bool {
	return s < SideCount
}

// Adjacent returns the cardinal adjacency flag pointing through this side
func (s Side) Adjacent() Adjacent {
	switch s {
	case SideTop:
		return AdjTop
	case SideRight:
		return AdjRight
	case SideBottom:
		return AdjBottom
	case SideLeft:
		return AdjLeft
	}
	return 0
}

func (s Side) String() string {
	if !s.Valid() {
		return fmt.Sprintf("side(%d)", uint8(s))
	}
	return sideNames[s]
}

// ParseSide accepts a side name (case-insensitive) or its numeric code
func ParseSide(str string) (Side, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	for i, name := range sideNames {
		if str == name || str == fmt.Sprint(i) {
			return Side(i), nil
		}
	}
	return 0, fmt.Errorf("unknown side %q", str)
}
