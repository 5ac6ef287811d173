package vision

import (
	"math"
	"math/rand"
)

// RANSAC parameters for the partial affine fit.
const (
	ransacIterations = 200
	ransacThreshold  = 3.0 // pixels
	minInliers       = 3
)

// Affine is a partial affine transform: rotation, uniform scale and
// translation, no shear.
//
//	x' = A*x - B*y + TX
//	y' = B*x + A*y + TY
type Affine struct {
	A, B, TX, TY float64
}

// Apply maps a point through the transform.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x - m.B*y + m.TX, m.B*x + m.A*y + m.TY
}

type pointPair struct {
	sx, sy float64 // source (template) point
	dx, dy float64 // destination (target) point
}

// estimateAffine recovers a similarity transform mapping source points to
// destination points, robust to outliers via RANSAC consensus with a
// least-squares refit over the inlier set. ok is false when no model with at
// least minInliers support exists.
func estimateAffine(pairs []pointPair) (m Affine, ok bool) {
	if len(pairs) < 2 {
		return Affine{}, false
	}

	rng := rand.New(rand.NewSource(0x0a11))
	bestInliers := 0
	var bestModel Affine

	for iter := 0; iter < ransacIterations; iter++ {
		i := rng.Intn(len(pairs))
		j := rng.Intn(len(pairs))
		if i == j {
			continue
		}
		model, valid := solveMinimal(pairs[i], pairs[j])
		if !valid {
			continue
		}
		inliers := countInliers(pairs, model)
		if inliers > bestInliers {
			bestInliers = inliers
			bestModel = model
		}
	}

	if bestInliers < minInliers {
		return Affine{}, false
	}

	// Refine over the consensus set.
	var inlierPairs []pointPair
	for _, p := range pairs {
		if residual(p, bestModel) <= ransacThreshold {
			inlierPairs = append(inlierPairs, p)
		}
	}
	if refined, valid := solveLeastSquares(inlierPairs); valid {
		return refined, true
	}
	return bestModel, true
}

func residual(p pointPair, m Affine) float64 {
	x, y := m.Apply(p.sx, p.sy)
	return math.Hypot(x-p.dx, y-p.dy)
}

func countInliers(pairs []pointPair, m Affine) int {
	n := 0
	for _, p := range pairs {
		if residual(p, m) <= ransacThreshold {
			n++
		}
	}
	return n
}

// solveMinimal computes the similarity transform from two point
// correspondences. Degenerate samples (coincident source points) are
// rejected.
func solveMinimal(p1, p2 pointPair) (Affine, bool) {
	dx := p2.sx - p1.sx
	dy := p2.sy - p1.sy
	det := dx*dx + dy*dy
	if det < 1e-9 {
		return Affine{}, false
	}
	ex := p2.dx - p1.dx
	ey := p2.dy - p1.dy
	a := (dx*ex + dy*ey) / det
	b := (dx*ey - dy*ex) / det
	return Affine{
		A:  a,
		B:  b,
		TX: p1.dx - (a*p1.sx - b*p1.sy),
		TY: p1.dy - (b*p1.sx + a*p1.sy),
	}, true
}

// solveLeastSquares fits the four similarity parameters to all pairs by
// minimizing squared reprojection error (closed-form normal equations).
func solveLeastSquares(pairs []pointPair) (Affine, bool) {
	if len(pairs) < 2 {
		return Affine{}, false
	}
	var n, sx, sy, sq, sxX, syX, sX, sY float64
	for _, p := range pairs {
		n++
		sx += p.sx
		sy += p.sy
		sq += p.sx*p.sx + p.sy*p.sy
		sxX += p.sx*p.dx + p.sy*p.dy
		syX += p.sx*p.dy - p.sy*p.dx
		sX += p.dx
		sY += p.dy
	}
	det := n*sq - sx*sx - sy*sy
	if math.Abs(det) < 1e-9 {
		return Affine{}, false
	}
	a := (n*sxX - sx*sX - sy*sY) / det
	b := (n*syX + sy*sX - sx*sY) / det
	return Affine{
		A:  a,
		B:  b,
		TX: (sX - a*sx + b*sy) / n,
		TY: (sY - b*sx - a*sy) / n,
	}, true
}
