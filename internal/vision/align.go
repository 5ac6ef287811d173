package vision

import (
	"image"
	"math"
)

// AlignROIs maps ROI boxes defined against templateImg onto targetImg by
// recovering the similarity transform between the two captures.
//
// Keypoints and binary descriptors are detected independently on both
// grayscale images, matched with a symmetric nearest-neighbor matcher, and a
// RANSAC partial affine fit maps template coordinates to target coordinates.
// Each ROI's four corners are pushed through the transform and replaced by
// their axis-aligned bounding box. Skewed boxes are deliberately
// approximated by their enclosing rectangle so the cropping step can consume
// them directly.
//
// Any shortfall (fewer than 3 keypoints on either image, no descriptors,
// fewer than 3 surviving matches, failed fit) returns rois unchanged.
func AlignROIs(templateImg, targetImg image.Image, rois map[string]Box) map[string]Box {
	grayT := newImageGray(toGray(templateImg))
	grayI := newImageGray(toGray(targetImg))

	kpT := detectKeypoints(grayT)
	kpI := detectKeypoints(grayI)
	if len(kpT) < 3 || len(kpI) < 3 {
		return rois
	}

	descT := computeDescriptors(grayT, kpT)
	descI := computeDescriptors(grayI, kpI)

	matches := matchDescriptors(descT, descI)
	if len(matches) < 3 {
		return rois
	}

	pairs := make([]pointPair, len(matches))
	for i, m := range matches {
		pairs[i] = pointPair{
			sx: float64(kpT[m.template].x), sy: float64(kpT[m.template].y),
			dx: float64(kpI[m.target].x), dy: float64(kpI[m.target].y),
		}
	}

	transform, ok := estimateAffine(pairs)
	if !ok {
		return rois
	}

	aligned := make(map[string]Box, len(rois))
	for name, box := range rois {
		aligned[name] = transformBox(box, transform)
	}
	return aligned
}

// transformBox pushes the box's four corners through the transform and
// returns their axis-aligned bounding box, rounded to whole pixels.
func transformBox(box Box, m Affine) Box {
	corners := [4][2]float64{
		{float64(box.X), float64(box.Y)},
		{float64(box.X + box.W), float64(box.Y)},
		{float64(box.X + box.W), float64(box.Y + box.H)},
		{float64(box.X), float64(box.Y + box.H)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y := m.Apply(c[0], c[1])
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return Box{
		X: int(math.Round(minX)),
		Y: int(math.Round(minY)),
		W: int(math.Round(maxX - minX)),
		H: int(math.Round(maxY - minY)),
	}
}
