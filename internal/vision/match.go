package vision

import (
	"math/bits"
	"sort"
)

// maxMatches caps how many of the best descriptor matches feed the affine
// estimate.
const maxMatches = 50

// match pairs a descriptor index in the template image with one in the
// target image.
type match struct {
	template int
	target   int
	distance int
}

func hamming(a, b descriptor) int {
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}

// matchDescriptors performs symmetric (mutual nearest-neighbor) matching on
// Hamming distance: a pair survives only if each descriptor is the other's
// nearest neighbor. Survivors are sorted ascending by distance and capped at
// maxMatches.
func matchDescriptors(template, target []descriptor) []match {
	if len(template) == 0 || len(target) == 0 {
		return nil
	}

	nearest := func(d descriptor, pool []descriptor) (int, int) {
		bestIdx, bestDist := -1, 1<<30
		for i, p := range pool {
			if dist := hamming(d, p); dist < bestDist {
				bestIdx, bestDist = i, dist
			}
		}
		return bestIdx, bestDist
	}

	forward := make([]int, len(template))
	for i, d := range template {
		forward[i], _ = nearest(d, target)
	}

	var matches []match
	for i, j := range forward {
		back, dist := nearest(target[j], template)
		if back == i {
			matches = append(matches, match{template: i, target: j, distance: dist})
		}
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].distance != matches[b].distance {
			return matches[a].distance < matches[b].distance
		}
		return matches[a].template < matches[b].template
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}
