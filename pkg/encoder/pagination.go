package encoder

import "math"

// paginationEpsilon absorbs float error so an image exactly k pages tall
// yields k pages, never k+1.
const paginationEpsilon = 1e-9

// PageCount is max(1, ceil(imageHeight/pageHeight)).
func PageCount(imageHeight, pageHeight float64) int {
	if pageHeight <= 0 || imageHeight <= 0 {
		return 1
	}
	n := int(math.Ceil(imageHeight/pageHeight - paginationEpsilon))
	return max(n, 1)
}

// Paginate returns the vertical offset of the image on each page: 0, -P,
// -2P and so on.
func Paginate(imageHeight, pageHeight float64) []float64 {
	n := PageCount(imageHeight, pageHeight)
	offsets := make([]float64, n)
	for i := range offsets {
		offsets[i] = -float64(i) * pageHeight
	}
	return offsets
}

// ScaledHeight converts a raster height in pixels to millimetres at the
// given page width.
func ScaledHeight(rasterWidth, rasterHeight int, pageWidthMM float64) float64 {
	if rasterWidth <= 0 {
		return 0
	}
	return float64(rasterHeight) * pageWidthMM / float64(rasterWidth)
}
