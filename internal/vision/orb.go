package vision

import (
	"math"
	"math/rand"
	"sort"
)

// ORB-family detector parameters.
const (
	fastThreshold   = 20  // intensity delta for the FAST corner test
	fastArc         = 9   // required contiguous arc length (FAST-9)
	maxKeypoints    = 500 // keep the strongest corners
	descriptorBits  = 256
	descriptorBytes = descriptorBits / 8
	patchRadius     = 15 // orientation / descriptor patch half-size
)

// keypoint is a detected corner with an intensity-centroid orientation.
type keypoint struct {
	x, y  int
	score int
	angle float64 // radians
}

// descriptor is a 256-bit binary descriptor.
type descriptor [descriptorBytes]byte

// Bresenham circle of radius 3 used by the FAST segment test.
var fastCircle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// detectKeypoints runs FAST-9 with non-maximum suppression, keeps the
// strongest maxKeypoints corners, and assigns each an intensity-centroid
// orientation.
func detectKeypoints(g *imageGray) []keypoint {
	scores := make([]int, g.w*g.h)
	var candidates []keypoint

	for y := patchRadius; y < g.h-patchRadius; y++ {
		for x := patchRadius; x < g.w-patchRadius; x++ {
			if score := fastScore(g, x, y); score > 0 {
				scores[y*g.w+x] = score
				candidates = append(candidates, keypoint{x: x, y: y, score: score})
			}
		}
	}

	// 3x3 non-maximum suppression.
	var kps []keypoint
	for _, kp := range candidates {
		best := true
		for dy := -1; dy <= 1 && best; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if scores[(kp.y+dy)*g.w+kp.x+dx] > kp.score {
					best = false
					break
				}
			}
		}
		if best {
			kps = append(kps, kp)
		}
	}

	sort.Slice(kps, func(i, j int) bool {
		if kps[i].score != kps[j].score {
			return kps[i].score > kps[j].score
		}
		if kps[i].y != kps[j].y {
			return kps[i].y < kps[j].y
		}
		return kps[i].x < kps[j].x
	})
	if len(kps) > maxKeypoints {
		kps = kps[:maxKeypoints]
	}

	for i := range kps {
		kps[i].angle = orientation(g, kps[i].x, kps[i].y)
	}
	return kps
}

// fastScore runs the FAST-9 segment test at (x, y). It returns 0 for
// non-corners, otherwise the sum of absolute differences over the arc as a
// corner strength.
func fastScore(g *imageGray, x, y int) int {
	center := int(g.pix[y*g.w+x])
	brighter := center + fastThreshold
	darker := center - fastThreshold

	var ring [16]int
	for i, off := range fastCircle {
		ring[i] = int(g.pix[(y+off[1])*g.w+x+off[0]])
	}

	score := 0
	for _, want := range []bool{true, false} { // brighter arc, then darker arc
		run := 0
		sum := 0
		// Walk the ring twice to catch arcs that wrap around.
		for i := 0; i < 32; i++ {
			v := ring[i%16]
			hit := (want && v > brighter) || (!want && v < darker)
			if hit {
				run++
				sum += absInt(v - center)
				if run >= fastArc && sum > score {
					score = sum
				}
			} else {
				run = 0
				sum = 0
			}
		}
	}
	return score
}

// orientation computes the intensity-centroid angle over a circular patch,
// giving the descriptor rotation invariance.
func orientation(g *imageGray, x, y int) float64 {
	var m10, m01 float64
	for dy := -patchRadius; dy <= patchRadius; dy++ {
		for dx := -patchRadius; dx <= patchRadius; dx++ {
			if dx*dx+dy*dy > patchRadius*patchRadius {
				continue
			}
			v := float64(g.at(x+dx, y+dy))
			m10 += float64(dx) * v
			m01 += float64(dy) * v
		}
	}
	return math.Atan2(m01, m10)
}

// briefPattern holds the sampling point pairs for the binary descriptor.
// Generated once from a fixed seed so descriptors are comparable across
// processes.
var briefPattern = makeBriefPattern()

func makeBriefPattern() [descriptorBits][4]float64 {
	rng := rand.New(rand.NewSource(0x1209))
	var pattern [descriptorBits][4]float64
	sigma := float64(patchRadius) / 2
	sample := func() float64 {
		for {
			v := rng.NormFloat64() * sigma
			if v >= -float64(patchRadius) && v <= float64(patchRadius) {
				return v
			}
		}
	}
	for i := range pattern {
		pattern[i] = [4]float64{sample(), sample(), sample(), sample()}
	}
	return pattern
}

// computeDescriptors builds steered BRIEF descriptors: each sampling pair is
// rotated by the keypoint's orientation before the intensity comparison.
func computeDescriptors(g *imageGray, kps []keypoint) []descriptor {
	descs := make([]descriptor, len(kps))
	for i, kp := range kps {
		cos, sin := math.Cos(kp.angle), math.Sin(kp.angle)
		for bit := 0; bit < descriptorBits; bit++ {
			p := briefPattern[bit]
			x1 := kp.x + int(math.Round(cos*p[0]-sin*p[1]))
			y1 := kp.y + int(math.Round(sin*p[0]+cos*p[1]))
			x2 := kp.x + int(math.Round(cos*p[2]-sin*p[3]))
			y2 := kp.y + int(math.Round(sin*p[2]+cos*p[3]))
			if g.at(x1, y1) < g.at(x2, y2) {
				descs[i][bit/8] |= 1 << (bit % 8)
			}
		}
	}
	return descs
}
