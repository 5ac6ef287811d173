package vision

import (
	"image"
	"math"
	"sort"
)

// Deskew detects the dominant line orientation in a captured document and
// rotates the image about its center to bring those lines horizontal.
//
// The angle is taken as the median over all detected segments, which keeps a
// handful of outlier segments (table borders, handwriting) from skewing the
// estimate. If no segments are detected the input is returned unchanged.
// This is a best-effort heuristic: callers must tolerate residual skew.
func Deskew(img image.Image) image.Image {
	gray := newImageGray(toGray(img))
	segments := detectSegments(detectEdges(gray))
	if len(segments) == 0 {
		return img
	}

	angles := make([]float64, len(segments))
	for i, s := range segments {
		angles[i] = s.angle()
	}
	return rotate(img, median(angles))
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// rotate rotates img by angleDeg about its center, keeping the original
// dimensions. Sampling is Catmull-Rom (cubic) with edge-replicating border
// fill, so rotated-in corners pick up the nearest edge pixels instead of
// black.
func rotate(img image.Image, angleDeg float64) image.Image {
	src := toRGBA(img)
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	cx, cy := float64(w)/2, float64(h)/2

	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			sx := cos*dx - sin*dy + cx
			sy := sin*dx + cos*dy + cy
			r, g, b, a := sampleCatmullRom(src, sx, sy)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = a
		}
	}
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			dst.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return dst
}

// catmullRom is the cubic interpolation kernel (a = -0.5).
func catmullRom(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t < 1:
		return 1.5*t*t*t - 2.5*t*t + 1
	case t < 2:
		return -0.5*t*t*t + 2.5*t*t - 4*t + 2
	default:
		return 0
	}
}

// sampleCatmullRom samples src at a fractional coordinate using a 4x4
// Catmull-Rom kernel. Out-of-bounds taps replicate the nearest edge pixel.
func sampleCatmullRom(src *image.RGBA, fx, fy float64) (uint8, uint8, uint8, uint8) {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))

	var sum [4]float64
	var weightSum float64
	for j := -1; j <= 2; j++ {
		wy := catmullRom(fy - float64(y0+j))
		if wy == 0 {
			continue
		}
		sy := clampInt(y0+j, 0, h-1)
		for i := -1; i <= 2; i++ {
			wx := catmullRom(fx - float64(x0+i))
			if wx == 0 {
				continue
			}
			sx := clampInt(x0+i, 0, w-1)
			wgt := wx * wy
			p := src.PixOffset(sx, sy)
			sum[0] += wgt * float64(src.Pix[p+0])
			sum[1] += wgt * float64(src.Pix[p+1])
			sum[2] += wgt * float64(src.Pix[p+2])
			sum[3] += wgt * float64(src.Pix[p+3])
			weightSum += wgt
		}
	}
	if weightSum == 0 {
		return 0, 0, 0, 0
	}
	clamp8 := func(v float64) uint8 {
		v = math.Round(v / weightSum)
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return clamp8(sum[0]), clamp8(sum[1]), clamp8(sum[2]), clamp8(sum[3])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
