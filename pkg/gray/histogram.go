package gray

// Levels is the number of intensity levels of an 8-bit sample
const Levels = 256

// Histogram counts pixels per intensity level
type Histogram [Levels]int

// CDF is the running sum of a Histogram
type CDF [Levels]int

// HistogramOf builds the histogram of a buffer. An empty buffer yields all zeros.
func HistogramOf(b *Buffer) Histogram {
	return histogramOf(b.Pix)
}

func histogramOf(pix []uint8) Histogram {
	var h Histogram
	for _, v := range pix {
		h[v]++
	}
	return h
}

// Region builds the histogram of the rectangle [x0,x1) x [y0,y1), clamped to the buffer
func (b *Buffer) Region(x0, y0, x1, y1 int) Histogram {
	var h Histogram
	x0, x1 = clamp(x0, 0, b.Cols), clamp(x1, 0, b.Cols)
	y0, y1 = clamp(y0, 0, b.Rows), clamp(y1, 0, b.Rows)
	if x0 >= x1 || y0 >= y1 {
		return h
	}
	for y := y0; y < y1; y++ {
		for _, v := range b.Pix[y*b.Cols+x0 : y*b.Cols+x1] {
			h[v]++
		}
	}
	return h
}

// Total returns the number of pixels counted
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// CDF returns the cumulative distribution of the histogram
func (h Histogram) CDF() CDF {
	var c CDF
	run := 0
	for i, v := range h {
		run += v
		c[i] = run
	}
	return c
}

// Sub returns a copy holding only levels in [lo, hi), all other bins zero
func (h Histogram) Sub(lo, hi int) Histogram {
	var s Histogram
	lo, hi = clamp(lo, 0, Levels), clamp(hi, 0, Levels)
	copy(s[lo:hi], h[lo:hi])
	return s
}

// Floats returns the counts as float64 weights
func (h Histogram) Floats() []float64 {
	w := make([]float64, Levels)
	for i, c := range h {
		w[i] = float64(c)
	}
	return w
}

// Total returns the final cumulative count
func (c CDF) Total() int {
	return c[Levels-1]
}

// Percentile returns the smallest level whose cumulative count reaches frac of the total
func (c CDF) Percentile(frac float64) int {
	target := frac * float64(c.Total())
	for i, v := range c {
		if float64(v) >= target {
			return i
		}
	}
	return Levels - 1
}

// LevelValues returns 0..255 as float64, the support of every histogram
func LevelValues() []float64 {
	x := make([]float64, Levels)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
