package vision

import (
	"image"
	"math"
)

// Edge detection thresholds, matching the sensitivity the deskew heuristic
// was tuned with.
const (
	edgeLowThreshold  = 50
	edgeHighThreshold = 150
)

// edgeMap is a binary edge image produced by detectEdges.
type edgeMap struct {
	w, h int
	on   []bool
}

func (e *edgeMap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= e.w || y >= e.h {
		return false
	}
	return e.on[y*e.w+x]
}

// detectEdges runs a gradient-based edge detector (Sobel gradients,
// non-maximum suppression along the gradient direction, then double
// thresholding with hysteresis).
func detectEdges(g *imageGray) *edgeMap {
	w, h := g.w, g.h
	mag := make([]float64, w*h)
	dir := make([]float64, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -int(g.at(x-1, y-1)) + int(g.at(x+1, y-1)) +
				-2*int(g.at(x-1, y)) + 2*int(g.at(x+1, y)) +
				-int(g.at(x-1, y+1)) + int(g.at(x+1, y+1))
			gy := -int(g.at(x-1, y-1)) - 2*int(g.at(x, y-1)) - int(g.at(x+1, y-1)) +
				int(g.at(x-1, y+1)) + 2*int(g.at(x, y+1)) + int(g.at(x+1, y+1))
			i := y*w + x
			mag[i] = math.Hypot(float64(gx), float64(gy))
			dir[i] = math.Atan2(float64(gy), float64(gx))
		}
	}

	// Non-maximum suppression: keep a pixel only if it is a local maximum
	// along its gradient direction (quantized to 4 orientations).
	thin := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}
			angle := dir[i] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			var m1, m2 float64
			switch {
			case angle < 22.5 || angle >= 157.5:
				m1, m2 = mag[i-1], mag[i+1]
			case angle < 67.5:
				m1, m2 = mag[(y-1)*w+x+1], mag[(y+1)*w+x-1]
			case angle < 112.5:
				m1, m2 = mag[(y-1)*w+x], mag[(y+1)*w+x]
			default:
				m1, m2 = mag[(y-1)*w+x-1], mag[(y+1)*w+x+1]
			}
			if m >= m1 && m >= m2 {
				thin[i] = m
			}
		}
	}

	// Double threshold with hysteresis: strong edges seed a flood fill that
	// promotes connected weak edges.
	edges := &edgeMap{w: w, h: h, on: make([]bool, w*h)}
	weak := make([]bool, w*h)
	var stack []int
	for i, m := range thin {
		if m >= edgeHighThreshold {
			edges.on[i] = true
			stack = append(stack, i)
		} else if m >= edgeLowThreshold {
			weak[i] = true
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if weak[j] && !edges.on[j] {
					edges.on[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

// imageGray is a flat grayscale buffer used by the detectors. It avoids the
// bounds conversions of image.Gray in the inner loops.
type imageGray struct {
	w, h int
	pix  []uint8
}

func (g *imageGray) at(x, y int) uint8 {
	if x < 0 {
		x = 0
	}
	if x >= g.w {
		x = g.w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= g.h {
		y = g.h - 1
	}
	return g.pix[y*g.w+x]
}

// newImageGray copies an image.Gray into a flat zero-origin buffer.
func newImageGray(g *image.Gray) *imageGray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &imageGray{w: w, h: h, pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.pix[y*w+x] = g.GrayAt(b.Min.X+x, b.Min.Y+y).Y
		}
	}
	return out
}
