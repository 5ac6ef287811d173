// Package vision implements the geometric normalization used by the document
// pipeline: deskewing a captured image and re-aligning template ROI
// coordinates onto a shifted or rotated capture.
//
// Everything in this package is a pure function of pixel buffers. Every
// failure mode (no detected lines, too few keypoints or matches, a failed
// affine fit) degrades to returning the input unchanged; callers never see
// an error from the geometry path.
package vision

import (
	"image"
	"image/color"
)

// Box is a rectangular region in pixel coordinates, origin top-left.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the box has non-positive dimensions.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// toGray converts any image to 8-bit grayscale using the standard luma
// weights.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// grayAt returns the pixel at (x, y) with edge replication for out-of-bounds
// coordinates.
func grayAt(g *image.Gray, x, y int) uint8 {
	b := g.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	}
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return g.GrayAt(x, y).Y
}
