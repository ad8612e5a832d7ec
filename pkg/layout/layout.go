// Package layout places graph nodes in a deterministic domain-clustered
// radial layout.
//
// Items are partitioned by a group key (normally the primary domain ID),
// group centers are spread evenly on a circle, and members of each group are
// arranged in concentric rings around their center. The result is a stable,
// legible clustering without a physics simulation: positions are a pure
// O(n) function of group membership and intra-group rank.
//
// Both the formula view and the replicated-nodes view feed this package; the
// caller supplies one group key per placeable item and gets one coordinate
// back per item.
package layout

import "math"

// Layout constants.
const (
	// GroupRadius is the radius of the circle group centers are placed on.
	// It collapses to 0 when there is exactly one group.
	GroupRadius = 3.0

	// RingSpacing is the radial distance between consecutive member rings.
	RingSpacing = 0.8

	// RingSize is the maximum number of members per ring.
	RingSize = 8
)

// Point is a 2-D coordinate. Positions are ephemeral: recomputed every pass,
// with no identity beyond the item they were computed for.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ungrouped is the group key for items with no group. They form one
// additional group placed after all keyed groups.
const Ungrouped = ""

// Positions computes one coordinate per item from its group key.
//
// Groups are ordered by first encounter in groupKeys; the ungrouped group
// (key "") comes last when non-empty. Group centers sit at angle
// 2π·i/numGroups on the GroupRadius circle. Within a group, a single member
// is placed exactly at the center; otherwise members fill concentric rings of
// RingSize, where the final partial ring spreads its members over the full
// angle range.
//
// A nil or empty input yields an empty result. Positions never fails.
func Positions(groupKeys []string) []Point {
	if len(groupKeys) == 0 {
		return nil
	}

	// Partition by group key, keeping first-encounter order.
	var order []string
	groups := make(map[string][]int)
	var ungrouped []int
	for i, key := range groupKeys {
		if key == Ungrouped {
			ungrouped = append(ungrouped, i)
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	numGroups := len(order)
	if len(ungrouped) > 0 {
		numGroups++
	}

	positions := make([]Point, len(groupKeys))

	radius := GroupRadius
	if numGroups <= 1 {
		radius = 0
	}
	angleStep := 2 * math.Pi / float64(numGroups)

	for gi, key := range order {
		angle := float64(gi) * angleStep
		arrangeGroup(positions, groups[key], radius*math.Cos(angle), radius*math.Sin(angle))
	}
	if len(ungrouped) > 0 {
		angle := float64(len(order)) * angleStep
		arrangeGroup(positions, ungrouped, radius*math.Cos(angle), radius*math.Sin(angle))
	}

	return positions
}

// arrangeGroup places a group's members around its center. A single member
// lands exactly on the center; larger groups fill rings of RingSize members
// at radius RingSpacing·(ring+1). The last ring divides the circle by its
// actual occupancy rather than RingSize.
func arrangeGroup(positions []Point, indices []int, cx, cy float64) {
	n := len(indices)
	if n == 1 {
		positions[indices[0]] = Point{X: cx, Y: cy}
		return
	}

	for i, idx := range indices {
		ring := i / RingSize
		posInRing := i % RingSize
		inThisRing := min(RingSize, n-ring*RingSize)

		r := RingSpacing * float64(ring+1)
		angle := 2 * math.Pi * float64(posInRing) / float64(inThisRing)

		positions[idx] = Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		}
	}
}
