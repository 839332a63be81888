package model

import "fmt"

// Pos addresses one cell in a dimension.
type Pos struct {
	X, Y, Z int
	Dim     int8
}

func (p Pos) ToArray() [3]int { return [3]int{p.X, p.Y, p.Z} }

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d@%d)", p.X, p.Y, p.Z, p.Dim)
}

// Add steps one cell across face f.
func (p Pos) Add(f Face) Pos {
	dx, dy, dz := f.Offset()
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz, Dim: p.Dim}
}

func (p Pos) Up() Pos   { return p.Add(FaceUp) }
func (p Pos) Down() Pos { return p.Add(FaceDown) }

// Face names one of the six axis directions of a cell.
type Face int8

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceEast
	FaceWest

	FaceNone Face = -1
)

// Faces lists the six axis directions in notification order.
var Faces = [6]Face{FaceDown, FaceUp, FaceNorth, FaceSouth, FaceEast, FaceWest}

var faceOffsets = [6][3]int{
	FaceDown:  {0, -1, 0},
	FaceUp:    {0, 1, 0},
	FaceNorth: {1, 0, 0},
	FaceSouth: {-1, 0, 0},
	FaceEast:  {0, 0, 1},
	FaceWest:  {0, 0, -1},
}

var faceNames = [6]string{"down", "up", "north", "south", "east", "west"}

func (f Face) Valid() bool { return f >= FaceDown && f <= FaceWest }

func (f Face) Offset() (dx, dy, dz int) {
	if !f.Valid() {
		return 0, 0, 0
	}
	o := faceOffsets[f]
	return o[0], o[1], o[2]
}

// Opposite returns the face pointing the other way along the same axis.
func (f Face) Opposite() Face {
	if !f.Valid() {
		return FaceNone
	}
	return f ^ 1
}

func (f Face) String() string {
	if !f.Valid() {
		return "none"
	}
	return faceNames[f]
}

// wire face codes: 0 -y, 1 +y, 2 -z, 3 +z, 4 -x, 5 +x
var wireFaces = [6]Face{FaceDown, FaceUp, FaceWest, FaceEast, FaceSouth, FaceNorth}

// FaceFromWire converts a client face code; anything outside 0..5 is FaceNone.
func FaceFromWire(code int8) Face {
	if code < 0 || int(code) >= len(wireFaces) {
		return FaceNone
	}
	return wireFaces[code]
}

// Wire is the inverse of FaceFromWire.
func (f Face) Wire() int8 {
	for code, wf := range wireFaces {
		if wf == f {
			return int8(code)
		}
	}
	return -1
}
