package layout

import (
	"math"
	"testing"
)

func TestPositionsEmpty(t *testing.T) {
	if got := Positions(nil); got != nil {
		t.Errorf("nil input should yield nil, got %v", got)
	}
	if got := Positions([]string{}); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
}

func TestPositionsDeterministic(t *testing.T) {
	keys := []string{"a", "b", "a", "", "c", "b", "a"}
	first := Positions(keys)
	second := Positions(keys)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("position %d differs across calls: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSingleGroupCentersAtOrigin(t *testing.T) {
	// One group → radius collapses to 0, single member sits on the origin.
	got := Positions([]string{"only"})
	if len(got) != 1 {
		t.Fatalf("got %d positions, want 1", len(got))
	}
	if got[0].X != 0 || got[0].Y != 0 {
		t.Errorf("single member of single group = %v, want origin", got[0])
	}
}

func TestSingleMemberAtGroupCenter(t *testing.T) {
	// Two groups of one member each: members must sit exactly on their
	// group centers on the R=3 circle.
	got := Positions([]string{"a", "b"})
	wantA := Point{X: GroupRadius, Y: 0}
	if math.Abs(got[0].X-wantA.X) > 1e-9 || math.Abs(got[0].Y-wantA.Y) > 1e-9 {
		t.Errorf("group a center = %v, want %v", got[0], wantA)
	}
	wantB := Point{X: GroupRadius * math.Cos(math.Pi), Y: GroupRadius * math.Sin(math.Pi)}
	if math.Abs(got[1].X-wantB.X) > 1e-9 || math.Abs(got[1].Y-wantB.Y) > 1e-9 {
		t.Errorf("group b center = %v, want %v", got[1], wantB)
	}
}

func TestRingPartition(t *testing.T) {
	// 19 members of one group: rings of 8, 8, 3.
	n := 19
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "g"
	}

	got := Positions(keys)
	if len(got) != n {
		t.Fatalf("got %d positions, want %d", len(got), n)
	}

	ringOf := func(p Point) int {
		r := math.Hypot(p.X, p.Y)
		return int(math.Round(r/RingSpacing)) - 1
	}

	counts := map[int]int{}
	for _, p := range got {
		counts[ringOf(p)]++
	}
	if counts[0] != 8 || counts[1] != 8 || counts[2] != 3 {
		t.Errorf("ring occupancy = %v, want map[0:8 1:8 2:3]", counts)
	}
}

func TestPartialRingSpreadsFullCircle(t *testing.T) {
	// 10 members: second ring holds 2, spread at 2π·k/2 — opposite sides.
	keys := make([]string, 10)
	for i := range keys {
		keys[i] = "g"
	}
	got := Positions(keys)

	p8, p9 := got[8], got[9]
	// Both on ring radius 1.6, at angles 0 and π.
	want8 := Point{X: 2 * RingSpacing, Y: 0}
	if math.Abs(p8.X-want8.X) > 1e-9 || math.Abs(p8.Y-want8.Y) > 1e-9 {
		t.Errorf("positions[8] = %v, want %v", p8, want8)
	}
	if math.Abs(p9.X+2*RingSpacing) > 1e-9 || math.Abs(p9.Y) > 1e-9 {
		t.Errorf("positions[9] = %v, want (-1.6, 0)", p9)
	}
}

func TestUngroupedPlacedLast(t *testing.T) {
	// Groups: a, b, then the ungrouped group → three centers. The ungrouped
	// member occupies the third center (angle 2·2π/3).
	got := Positions([]string{"a", "b", ""})
	angle := 2 * (2 * math.Pi / 3)
	want := Point{X: GroupRadius * math.Cos(angle), Y: GroupRadius * math.Sin(angle)}
	if math.Abs(got[2].X-want.X) > 1e-9 || math.Abs(got[2].Y-want.Y) > 1e-9 {
		t.Errorf("ungrouped member = %v, want %v", got[2], want)
	}
}

func TestAllPositionsFinite(t *testing.T) {
	keys := []string{"a", "a", "b", "", "", "c", "a", "b"}
	for _, p := range Positions(keys) {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			t.Fatalf("non-finite position %v", p)
		}
	}
}
