package world

import modelpkg "github.com/poizan42/mineserver/internal/sim/world/kernel/model"

type Pos = modelpkg.Pos
type Face = modelpkg.Face
type Cell = modelpkg.Cell
type Item = modelpkg.Item

const (
	FaceDown  = modelpkg.FaceDown
	FaceUp    = modelpkg.FaceUp
	FaceNorth = modelpkg.FaceNorth
	FaceSouth = modelpkg.FaceSouth
	FaceEast  = modelpkg.FaceEast
	FaceWest  = modelpkg.FaceWest
	FaceNone  = modelpkg.FaceNone
)

var Faces = modelpkg.Faces

func FaceFromWire(code int8) Face { return modelpkg.FaceFromWire(code) }

func NoItem() Item { return modelpkg.NoItem() }
