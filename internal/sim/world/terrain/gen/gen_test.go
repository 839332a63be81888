package gen

import "testing"

func TestFloorDivMod(t *testing.T) {
	cases := []struct{ a, b, q, m int }{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.q {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.q)
		}
		if got := Mod(c.a, c.b); got != c.m {
			t.Fatalf("Mod(%d,%d)=%d want %d", c.a, c.b, got, c.m)
		}
	}
}

func TestFlat(t *testing.T) {
	f := Flat{Layers: []byte{7, 1, 3, 0, 2, 0}}
	if f.BlockAt(0) != 7 || f.BlockAt(4) != 2 || f.BlockAt(5) != 0 || f.BlockAt(-1) != 0 || f.BlockAt(100) != 0 {
		t.Fatalf("unexpected BlockAt results")
	}
	if f.SurfaceY() != 5 {
		t.Fatalf("SurfaceY=%d want 5", f.SurfaceY())
	}
	if (Flat{}).SurfaceY() != 0 {
		t.Fatalf("empty flat surface must be 0")
	}
}
