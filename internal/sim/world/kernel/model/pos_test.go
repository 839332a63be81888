package model

import "testing"

func TestFaceOppositeAndOffsets(t *testing.T) {
	for _, f := range Faces {
		o := f.Opposite()
		if o.Opposite() != f || o == f {
			t.Fatalf("%s: bad opposite %s", f, o)
		}
		p := Pos{X: 3, Y: 10, Z: -4, Dim: 1}
		if back := p.Add(f).Add(o); back != p {
			t.Fatalf("%s: round trip %v != %v", f, back, p)
		}
	}
	if got := (Pos{}).Add(FaceNorth); got != (Pos{X: 1}) {
		t.Fatalf("north=%v", got)
	}
	if got := (Pos{}).Add(FaceWest); got != (Pos{Z: -1}) {
		t.Fatalf("west=%v", got)
	}
}

func TestFaceFromWire(t *testing.T) {
	want := map[int8]Pos{
		0: {Y: -1},
		1: {Y: 1},
		2: {Z: -1},
		3: {Z: 1},
		4: {X: -1},
		5: {X: 1},
	}
	for code, off := range want {
		f := FaceFromWire(code)
		if got := (Pos{}).Add(f); got != off {
			t.Fatalf("code %d: got %v want %v", code, got, off)
		}
		if f.Wire() != code {
			t.Fatalf("code %d: Wire()=%d", code, f.Wire())
		}
	}
	if FaceFromWire(-1) != FaceNone || FaceFromWire(6) != FaceNone {
		t.Fatalf("out of range codes must map to FaceNone")
	}
}
