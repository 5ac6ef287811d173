package vision

import (
	"image"
	"image/color"
	"testing"
)

// flatImage returns a uniform gray image with no detectable structure.
func flatImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

// fillRect paints a solid rectangle.
func fillRect(img *image.RGBA, x0, y0, w, h int, c color.RGBA) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			img.Set(x, y, c)
		}
	}
}

// featureImage returns a white canvas with several distinct dark blobs, the
// kind of structure the keypoint detector reliably fires on.
func featureImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	fillRect(img, 0, 0, 200, 200, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	black := color.RGBA{A: 255}
	fillRect(img, 40, 40, 24, 24, black)   // square
	fillRect(img, 130, 45, 36, 12, black)  // wide bar
	fillRect(img, 50, 130, 12, 40, black)  // tall bar
	fillRect(img, 130, 130, 30, 30, black) // larger square
	fillRect(img, 150, 150, 20, 8, color.RGBA{R: 255, G: 255, B: 255, A: 255}) // notch
	return img
}

func samePixels(t *testing.T, a, b image.Image) bool {
	t.Helper()
	if a.Bounds() != b.Bounds() {
		return false
	}
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return false
			}
		}
	}
	return true
}

func TestDeskewNoLines(t *testing.T) {
	img := flatImage(100, 80)
	out := Deskew(img)
	if out != image.Image(img) {
		t.Fatal("expected the identical image back when no lines are detected")
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("odd length: expected 2, got %v", got)
	}
	if got := median([]float64{1, 2, 3, 10}); got != 2.5 {
		t.Errorf("even length: expected 2.5, got %v", got)
	}
	if got := median([]float64{5}); got != 5 {
		t.Errorf("single value: expected 5, got %v", got)
	}
}

func TestTransformBox(t *testing.T) {
	t.Run("pure translation", func(t *testing.T) {
		m := Affine{A: 1, B: 0, TX: 20, TY: 10}
		got := transformBox(Box{X: 40, Y: 60, W: 80, H: 40}, m)
		want := Box{X: 60, Y: 70, W: 80, H: 40}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("rotation yields enclosing rectangle", func(t *testing.T) {
		// 90 degree rotation about the origin.
		m := Affine{A: 0, B: 1}
		got := transformBox(Box{X: 0, Y: 0, W: 10, H: 20}, m)
		want := Box{X: -20, Y: 0, W: 20, H: 10}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})
}

func TestEstimateAffine(t *testing.T) {
	t.Run("recovers translation despite outliers", func(t *testing.T) {
		var pairs []pointPair
		for _, p := range [][2]float64{{10, 10}, {150, 20}, {30, 160}, {120, 140}, {80, 70}} {
			pairs = append(pairs, pointPair{sx: p[0], sy: p[1], dx: p[0] + 20, dy: p[1] + 10})
		}
		pairs = append(pairs, pointPair{sx: 50, sy: 50, dx: 400, dy: 400}) // outlier

		m, ok := estimateAffine(pairs)
		if !ok {
			t.Fatal("expected a successful fit")
		}
		if x, y := m.Apply(100, 100); absFloat(x-120) > 0.5 || absFloat(y-110) > 0.5 {
			t.Errorf("expected (120, 110), got (%v, %v)", x, y)
		}
	})

	t.Run("too few pairs fails", func(t *testing.T) {
		if _, ok := estimateAffine([]pointPair{{sx: 1, sy: 1, dx: 1, dy: 1}}); ok {
			t.Error("expected failure with one pair")
		}
	})

	t.Run("degenerate coincident points fail", func(t *testing.T) {
		pairs := []pointPair{
			{sx: 5, sy: 5, dx: 7, dy: 7},
			{sx: 5, sy: 5, dx: 7, dy: 7},
			{sx: 5, sy: 5, dx: 7, dy: 7},
		}
		// All source points coincide: minimal samples are singular, but the
		// fallback must not panic.
		estimateAffine(pairs)
	})
}

func TestAlignROIs(t *testing.T) {
	rois := map[string]Box{
		"field_a": {X: 40, Y: 60, W: 80, H: 40},
		"field_b": {X: 10, Y: 10, W: 20, H: 20},
	}

	t.Run("identical images keep boxes", func(t *testing.T) {
		img := featureImage()
		got := AlignROIs(img, img, rois)
		if len(got) != len(rois) {
			t.Fatalf("expected %d boxes, got %d", len(rois), len(got))
		}
		for name, want := range rois {
			b := got[name]
			if absInt(b.X-want.X) > 1 || absInt(b.Y-want.Y) > 1 ||
				absInt(b.W-want.W) > 1 || absInt(b.H-want.H) > 1 {
				t.Errorf("%s: expected %+v within rounding, got %+v", name, want, b)
			}
		}
	})

	t.Run("featureless images skip alignment", func(t *testing.T) {
		got := AlignROIs(flatImage(64, 64), flatImage(64, 64), rois)
		for name, want := range rois {
			if got[name] != want {
				t.Errorf("%s: expected unchanged %+v, got %+v", name, want, got[name])
			}
		}
	})

	t.Run("tiny images skip alignment", func(t *testing.T) {
		got := AlignROIs(flatImage(8, 8), featureImage(), rois)
		for name, want := range rois {
			if got[name] != want {
				t.Errorf("%s: expected unchanged %+v, got %+v", name, want, got[name])
			}
		}
	})
}

func TestCropROI(t *testing.T) {
	img := featureImage()

	t.Run("in-bounds crop", func(t *testing.T) {
		crop := CropROI(img, Box{X: 40, Y: 40, W: 24, H: 24})
		if crop.Bounds().Dx() != 24 || crop.Bounds().Dy() != 24 {
			t.Errorf("expected 24x24, got %v", crop.Bounds())
		}
		r, g, b, _ := crop.At(0, 0).RGBA()
		if r != 0 || g != 0 || b != 0 {
			t.Error("expected the crop to start inside the black square")
		}
	})

	t.Run("crop clamps to image bounds", func(t *testing.T) {
		crop := CropROI(img, Box{X: 190, Y: 190, W: 50, H: 50})
		if crop.Bounds().Dx() != 10 || crop.Bounds().Dy() != 10 {
			t.Errorf("expected 10x10 clamped crop, got %v", crop.Bounds())
		}
	})

	t.Run("fully outside yields empty crop", func(t *testing.T) {
		crop := CropROI(img, Box{X: 500, Y: 500, W: 10, H: 10})
		if crop.Bounds().Dx() != 0 || crop.Bounds().Dy() != 0 {
			t.Errorf("expected empty crop, got %v", crop.Bounds())
		}
	})
}

func TestScaleForOCR(t *testing.T) {
	t.Run("small crops upscale", func(t *testing.T) {
		out := ScaleForOCR(flatImage(100, 24))
		if out.Bounds().Dy() != minOCRHeight {
			t.Errorf("expected height %d, got %d", minOCRHeight, out.Bounds().Dy())
		}
		if out.Bounds().Dx() != 200 {
			t.Errorf("expected proportional width 200, got %d", out.Bounds().Dx())
		}
	})

	t.Run("large crops pass through", func(t *testing.T) {
		img := flatImage(100, 60)
		if out := ScaleForOCR(img); out != image.Image(img) {
			t.Error("expected pass-through for crops above the minimum height")
		}
	})

	t.Run("empty crop passes through", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 0, 0))
		if out := ScaleForOCR(img); out != image.Image(img) {
			t.Error("expected pass-through for empty crops")
		}
	})
}

func TestBinarize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	fillRect(img, 0, 0, 2, 2, color.RGBA{R: 30, G: 30, B: 30, A: 255})
	fillRect(img, 2, 0, 2, 2, color.RGBA{R: 220, G: 220, B: 220, A: 255})

	out := Binarize(img)
	if out.GrayAt(0, 0).Y != 0 {
		t.Error("dark side should binarize to black")
	}
	if out.GrayAt(3, 1).Y != 255 {
		t.Error("bright side should binarize to white")
	}
}

func TestMatchDescriptors(t *testing.T) {
	d := func(b byte) descriptor {
		var out descriptor
		out[0] = b
		return out
	}

	t.Run("mutual nearest neighbors survive", func(t *testing.T) {
		template := []descriptor{d(0b0000_0001), d(0b1111_0000)}
		target := []descriptor{d(0b1111_0000), d(0b0000_0001)}
		matches := matchDescriptors(template, target)
		if len(matches) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(matches))
		}
		// Sorted ascending by distance; both are exact.
		for _, m := range matches {
			if m.distance != 0 {
				t.Errorf("expected exact match, got distance %d", m.distance)
			}
		}
	})

	t.Run("empty inputs match nothing", func(t *testing.T) {
		if got := matchDescriptors(nil, []descriptor{d(1)}); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
