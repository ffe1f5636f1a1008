package enhance

import (
	"math"

	"github.com/jpfielding/histeq.go/pkg/gray"
	"gonum.org/v1/gonum/stat"
)

// DSIHE is dualistic sub-image histogram equalization: the histogram is split at
// its population median and each half is equalized within its own range.
func DSIHE(b *gray.Buffer) *gray.Buffer {
	if b.Empty() {
		return gray.New(b.Rows, b.Cols)
	}
	return EqualizeSplit(b, MedianPivot(gray.HistogramOf(b)))
}

// BBHE is brightness preserving bi-histogram equalization: the histogram is split
// at the rounded mean intensity and each half is equalized within its own range.
func BBHE(b *gray.Buffer) *gray.Buffer {
	if b.Empty() {
		return gray.New(b.Rows, b.Cols)
	}
	return EqualizeSplit(b, MeanPivot(gray.HistogramOf(b)))
}

// MedianPivot returns the smallest level whose cumulative count reaches half the pixels
func MedianPivot(h gray.Histogram) int {
	cdf := h.CDF()
	if cdf.Total() == 0 {
		return 0
	}
	return cdf.Percentile(0.5)
}

// MeanPivot returns the rounded mean intensity, never less than 1 so the low
// subset [0, t) always has a non-empty range.
func MeanPivot(h gray.Histogram) int {
	if h.Total() == 0 {
		return 1
	}
	t := int(math.Round(stat.Mean(gray.LevelValues(), h.Floats())))
	if t < 1 {
		t = 1
	}
	return t
}

// EqualizeSplit equalizes pixels below t into [0, t-1] and pixels at or above t
// into [t, 255]. t is clamped to [0, 256].
func EqualizeSplit(b *gray.Buffer, t int) *gray.Buffer {
	if b.Empty() {
		return gray.New(b.Rows, b.Cols)
	}
	return splitLUT(gray.HistogramOf(b), t).Apply(b)
}

// splitLUT builds the two sub-range mappings. A subset with no pixels leaves its
// entries zero.
func splitLUT(h gray.Histogram, t int) LUT {
	var lut LUT
	t = max(0, min(t, gray.Levels))
	if low := h.Sub(0, t); low.Total() > 0 {
		equalizeRange(&lut, low, 0, t-1)
	}
	if high := h.Sub(t, gray.Levels); high.Total() > 0 {
		equalizeRange(&lut, high, t, gray.Levels-1)
	}
	return lut
}

// equalizeRange maps levels [lo, hi] of a histogram holding only that range onto
// [lo, hi]. Zero dynamic range maps everything to hi.
func equalizeRange(lut *LUT, h gray.Histogram, lo, hi int) {
	cdf := h.CDF()
	cmin, cmax := cdf[lo], cdf[hi]
	if cmax == cmin {
		for v := lo; v <= hi; v++ {
			lut[v] = uint8(hi)
		}
		return
	}
	span := float64(hi - lo)
	den := float64(cmax - cmin)
	for v := lo; v <= hi; v++ {
		lut[v] = saturate(float64(lo) + float64(cdf[v]-cmin)*span/den)
	}
}
