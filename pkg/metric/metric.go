package metric

import (
	"math"

	"github.com/jpfielding/histeq.go/pkg/gray"
	"gonum.org/v1/gonum/stat"
)

const (
	// Peak is the largest 8-bit sample value
	Peak = 255.0
	// Epsilon keeps log2 finite for empty histogram bins
	Epsilon = 1e-8
	// MaxEntropy is the entropy bound of an 8-bit image, in bits
	MaxEntropy = 8.0
)

// AMBE is the absolute mean brightness error |mean(enhanced) - mean(original)|.
// Buffers of different shapes fail with gray.ErrShapeMismatch.
func AMBE(original, enhanced *gray.Buffer) (float64, error) {
	if err := gray.CheckShape(original, enhanced); err != nil {
		return 0, err
	}
	if original.Empty() {
		return 0, nil
	}
	return math.Abs(Mean(enhanced) - Mean(original)), nil
}

// PSNR is the peak signal-to-noise ratio in dB over the 8-bit range.
// Identical buffers, empty ones included, return +Inf.
// Buffers of different shapes fail with gray.ErrShapeMismatch.
func PSNR(original, enhanced *gray.Buffer) (float64, error) {
	if err := gray.CheckShape(original, enhanced); err != nil {
		return 0, err
	}
	mse := MSE(original, enhanced)
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(Peak*Peak/mse), nil
}

// MSE is the mean squared error of two buffers of the same shape; 0 when empty
func MSE(a, b *gray.Buffer) float64 {
	if len(a.Pix) == 0 || len(a.Pix) != len(b.Pix) {
		return 0
	}
	var sum float64
	for i, v := range a.Pix {
		d := float64(v) - float64(b.Pix[i])
		sum += d * d
	}
	return sum / float64(len(a.Pix))
}

// Mean is the mean intensity; 0 when empty
func Mean(b *gray.Buffer) float64 {
	if b.Empty() {
		return 0
	}
	h := gray.HistogramOf(b)
	return stat.Mean(gray.LevelValues(), h.Floats())
}

// Contrast is the population standard deviation of the intensities; 0 when empty
func Contrast(b *gray.Buffer) float64 {
	if b.Empty() {
		return 0
	}
	h := gray.HistogramOf(b)
	return stat.PopStdDev(gray.LevelValues(), h.Floats())
}

// Entropy is the Shannon entropy in bits, -sum(p * log2(p + Epsilon)), in [0, 8].
// A single-level buffer and an empty buffer both give 0.
func Entropy(b *gray.Buffer) float64 {
	if b.Empty() {
		return 0
	}
	h := gray.HistogramOf(b)
	n := float64(b.Len())
	var e float64
	for _, c := range h {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		e -= p * math.Log2(p+Epsilon)
	}
	// epsilon drives a single-level buffer a hair below zero
	return math.Min(math.Max(e, 0), MaxEntropy)
}
