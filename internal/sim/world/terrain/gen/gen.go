package gen

func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Flat describes a layered world: Layers[y] is the block kind at height y,
// everything above the last layer is air.
type Flat struct {
	Layers []byte
}

func (f Flat) BlockAt(y int) byte {
	if y < 0 || y >= len(f.Layers) {
		return 0
	}
	return f.Layers[y]
}

// SurfaceY is the first air height of the flat column.
func (f Flat) SurfaceY() int {
	for y := len(f.Layers) - 1; y >= 0; y-- {
		if f.Layers[y] != 0 {
			return y + 1
		}
	}
	return 0
}
