package grid

// Adjacent selects one of the 8 neighbors of a cell
type Adjacent uint8

const (
	AdjTop         Adjacent = 1 << 0
	AdjRight       Adjacent = 1 << 1
	AdjLeft        Adjacent = 1 << 2
	AdjBottom      Adjacent = 1 << 3
	AdjTopLeft     Adjacent = 1 << 4
	AdjTopRight    Adjacent = 1 << 5
	AdjBottomRight Adjacent = 1 << 6
	AdjBottomLeft  Adjacent = 1 << 7
)

// NoNeighbor is returned when the requested neighbor lies outside the local grid
const NoNeighbor = -1

// CardinalOrder is the neighbor enumeration order used by field propagation and descent
// First strictly-better neighbor in this order wins ties
var CardinalOrder = [4]Adjacent{AdjLeft, AdjRight, AdjTop, AdjBottom}

// Direction returns the steering code toward a cardinal neighbor, DirNone for diagonals
func (a Adjacent) Direction() Direction {
	switch a {
	case AdjTop:
		return DirTop
	case AdjRight:
		return DirRight
	case AdjBottom:
		return DirBottom
	case AdjLeft:
		return DirLeft
	}
	return DirNone
}

// Neighbor resolves a neighbor inside a square width×width grid
// p must be Coord(index, width); cross-chunk travel goes through gateways, never through here
func Neighbor(index int, adj Adjacent, p Point, width int) int {
	return NeighborRect(index, adj, p, width, width)
}

// NeighborRect resolves a neighbor inside a width×height grid
func NeighborRect(index int, adj Adjacent, p Point, width, height int) int {
	left := p.X > 0
	right := p.X < width-1
	top := p.Y < height-1
	bottom := p.Y > 0

	switch adj {
	case AdjLeft:
		if left {
			return index - 1
		}
	case AdjRight:
		if right {
			return index + 1
		}
	case AdjTop:
		if top {
			return index + width
		}
	case AdjBottom:
		if bottom {
			return index - width
		}
	case AdjTopLeft:
		if top && left {
			return index + width - 1
		}
	case AdjTopRight:
		if top && right {
			return index + width + 1
		}
	case AdjBottomRight:
		if bottom && right {
			return index - width + 1
		}
	case AdjBottomLeft:
		if bottom && left {
			return index - width - 1
		}
	}
	return NoNeighbor
}
