package game

// Direction 地图方向
type Direction string

const (
	DirectionN  Direction = "N"
	DirectionNE Direction = "NE"
	DirectionE  Direction = "E"
	DirectionSE Direction = "SE"
	DirectionS  Direction = "S"
	DirectionSW Direction = "SW"
	DirectionW  Direction = "W"
	DirectionNW Direction = "NW"
)

var directionOffsets = map[Direction][2]int{
	DirectionN:  {0, -1},
	DirectionNE: {1, -1},
	DirectionE:  {1, 0},
	DirectionSE: {1, 1},
	DirectionS:  {0, 1},
	DirectionSW: {-1, 1},
	DirectionW:  {-1, 0},
	DirectionNW: {-1, -1},
}

// Directions EnumAttr解码用的取值表
var Directions = func() map[string]Direction {
	m := make(map[string]Direction, len(directionOffsets))
	for d := range directionOffsets {
		m[string(d)] = d
	}
	return m
}()

func (d Direction) Valid() bool {
	_, ok := directionOffsets[d]
	return ok
}

// Step 沿方向偏移一格
func (d Direction) Step(x, y int) (int, int) {
	off := directionOffsets[d]
	return x + off[0], y + off[1]
}
