// Package coherence estimates the interferometric coherence of two
// co-registered SLC rasters over a weighted spatial window.
//
// For reference r1 and secondary r2 the estimator forms the interferogram
// r1·conj(r2), smooths it with the kernel w and normalizes it:
//
//	MethodMagnitude:  |w * (r1·conj(r2))| / (w * |r1·conj(r2)|)
//	MethodIntensity:  |w * (r1·conj(r2))| / sqrt((w * |r1|²)·(w * |r2|²))
//
// where * is 2D "same"-size convolution with zero padding. Pixels whose
// denominator vanishes (0/0) are set to 0, and results are clamped to [0,1].
//
// An Estimator is safe for concurrent use; the kernel is shared read-only and
// full-size workspaces come from a pool and are zeroed on checkout.
package coherence
