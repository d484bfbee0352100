package geom

import "testing"

func TestPosNeighbor(t *testing.T) {
	p := Pos{X: 2, Y: -1}
	cases := map[Direction]Pos{
		N: {X: 2, Y: -2},
		E: {X: 3, Y: -1},
		S: {X: 2, Y: 0},
		W: {X: 1, Y: -1},
	}
	for d, expected := range cases {
		if got := p.Neighbor(d); got != expected {
			t.Fatalf("neighbor %s of %s: expected %s, got %s", d, p, expected, got)
		}
	}
}

func TestPosLess(t *testing.T) {
	if !(Pos{X: -1, Y: 5}).Less(Pos{X: 0, Y: -5}) {
		t.Fatal("expected x to dominate ordering")
	}
	if !(Pos{X: 0, Y: -1}).Less(Pos{X: 0, Y: 1}) {
		t.Fatal("expected y to break ties")
	}
	if (Pos{X: 1, Y: 1}).Less(Pos{X: 1, Y: 1}) {
		t.Fatal("equal positions must not be less")
	}
}

func TestRotationGroup(t *testing.T) {
	for _, a := range Rotations {
		if got := a.Add(a.Negated()); got != None {
			t.Fatalf("%s + negated = %s, expected NONE", a, got)
		}
		if got := a.Add(None); got != a {
			t.Fatalf("%s + NONE = %s", a, got)
		}
		for _, b := range Rotations {
			if a.Add(b) != b.Add(a) {
				t.Fatalf("rotation addition not commutative for %s, %s", a, b)
			}
		}
	}
	if Right.Add(HalfTurn) != Left {
		t.Fatalf("RIGHT + HALF_TURN should be LEFT")
	}
	if Left.DegreesCW() != 270 {
		t.Fatalf("expected LEFT to be 270 degrees, got %d", Left.DegreesCW())
	}
}

func TestDirectionRotated(t *testing.T) {
	if N.Rotated(Right) != E {
		t.Fatal("N rotated right should be E")
	}
	if W.Rotated(Right) != N {
		t.Fatal("W rotated right should wrap to N")
	}
	for _, d := range Directions {
		if d.Opposite().Opposite() != d {
			t.Fatalf("opposite of opposite of %s is not itself", d)
		}
	}
	if S.Opposite() != N {
		t.Fatal("opposite of S should be N")
	}
}

func TestParseRotation(t *testing.T) {
	for in, want := range map[string]Rotation{"none": None, "RIGHT": Right, "180": HalfTurn, " 270 ": Left, "0": None} {
		got, err := ParseRotation(in)
		if err != nil {
			t.Fatalf("ParseRotation(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRotation(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseRotation("45"); err == nil {
		t.Fatal("expected error for 45 degrees")
	}
}
