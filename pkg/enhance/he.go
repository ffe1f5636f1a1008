package enhance

import "github.com/jpfielding/histeq.go/pkg/gray"

// HE performs global histogram equalization, mapping each level v to
// round(255 * CDF[v] / CDF[255]).
//
// The mapping is monotonic, so the relative order of intensities is kept.
// A buffer holding a single level comes back constant, and an empty buffer
// comes back empty with the same shape.
func HE(b *gray.Buffer) *gray.Buffer {
	if b.Empty() {
		return gray.New(b.Rows, b.Cols)
	}
	return heLUT(gray.HistogramOf(b)).Apply(b)
}

func heLUT(h gray.Histogram) LUT {
	var lut LUT
	cdf := h.CDF()
	total := float64(cdf.Total())
	if total == 0 {
		return lut
	}
	for v, c := range cdf {
		lut[v] = saturate(255 * float64(c) / total)
	}
	return lut
}
