package vision

import (
	"math"
	"math/rand"
)

// Probabilistic Hough parameters. Tuned alongside the edge thresholds so the
// deskew heuristic fires on printed forms without chasing noise.
const (
	houghThreshold = 30
	houghMinLength = 30
	houghMaxGap    = 10
	houghAngles    = 180 // 1 degree resolution
)

// segment is a detected straight line segment.
type segment struct {
	x1, y1, x2, y2 int
}

// angle returns the segment orientation in degrees, in (-90, 90].
func (s segment) angle() float64 {
	return math.Atan2(float64(s.y2-s.y1), float64(s.x2-s.x1)) * 180 / math.Pi
}

// detectSegments extracts line segments from a binary edge map using a
// progressive probabilistic Hough transform. Edge points are consumed in
// random order; a fixed seed keeps results reproducible for a given input.
func detectSegments(edges *edgeMap) []segment {
	w, h := edges.w, edges.h
	numRho := 2*(w+h) + 1
	rhoOffset := (numRho - 1) / 2

	sin := make([]float64, houghAngles)
	cos := make([]float64, houghAngles)
	for n := 0; n < houghAngles; n++ {
		theta := float64(n) * math.Pi / houghAngles
		sin[n] = math.Sin(theta)
		cos[n] = math.Cos(theta)
	}

	var points [][2]int
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.at(x, y) {
				points = append(points, [2]int{x, y})
				mask[y*w+x] = true
			}
		}
	}

	accum := make([]int, houghAngles*numRho)
	vote := func(x, y, delta int) (bestAngle, bestVal int) {
		bestVal = -1
		for n := 0; n < houghAngles; n++ {
			r := int(math.Round(float64(x)*cos[n]+float64(y)*sin[n])) + rhoOffset
			accum[n*numRho+r] += delta
			if v := accum[n*numRho+r]; v > bestVal {
				bestVal, bestAngle = v, n
			}
		}
		return bestAngle, bestVal
	}

	rng := rand.New(rand.NewSource(0x0f5))
	var segments []segment

	for count := len(points); count > 0; count-- {
		idx := rng.Intn(count)
		px, py := points[idx][0], points[idx][1]
		points[idx] = points[count-1]

		if !mask[py*w+px] {
			continue
		}
		bestAngle, bestVal := vote(px, py, +1)
		if bestVal < houghThreshold {
			continue
		}

		// Walk along the line in both directions, tolerating small gaps.
		dx, dy := -sin[bestAngle], cos[bestAngle]
		if math.Abs(dx) < math.Abs(dy) {
			dx, dy = dx/math.Abs(dy), dy/math.Abs(dy)
		} else {
			dy, dx = dy/math.Abs(dx), dx/math.Abs(dx)
		}

		var ends [2][2]int
		for dir := 0; dir < 2; dir++ {
			sx, sy := dx, dy
			if dir == 1 {
				sx, sy = -sx, -sy
			}
			fx, fy := float64(px), float64(py)
			lastX, lastY := px, py
			gap := 0
			for {
				fx += sx
				fy += sy
				x, y := int(math.Round(fx)), int(math.Round(fy))
				if x < 0 || y < 0 || x >= w || y >= h {
					break
				}
				if mask[y*w+x] || edges.at(x, y) {
					lastX, lastY = x, y
					gap = 0
				} else {
					gap++
					if gap > houghMaxGap {
						break
					}
				}
			}
			ends[dir] = [2]int{lastX, lastY}
		}

		length := max(absInt(ends[0][0]-ends[1][0]), absInt(ends[0][1]-ends[1][1]))
		good := length >= houghMinLength

		// Clear the segment's pixels from the mask and withdraw their votes
		// so they cannot seed further segments.
		for dir := 0; dir < 2; dir++ {
			sx, sy := dx, dy
			if dir == 1 {
				sx, sy = -sx, -sy
			}
			fx, fy := float64(px), float64(py)
			for {
				x, y := int(math.Round(fx)), int(math.Round(fy))
				if x < 0 || y < 0 || x >= w || y >= h {
					break
				}
				if mask[y*w+x] {
					mask[y*w+x] = false
					if x != px || y != py {
						vote(x, y, -1)
					}
				}
				if x == ends[dir][0] && y == ends[dir][1] {
					break
				}
				fx += sx
				fy += sy
			}
		}

		if good {
			segments = append(segments, segment{
				x1: ends[1][0], y1: ends[1][1],
				x2: ends[0][0], y2: ends[0][1],
			})
		}
	}
	return segments
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
