package batch

import (
	"math"
	"time"

	"github.com/jpfielding/histeq.go/pkg/enhance"
	"github.com/jpfielding/histeq.go/pkg/metric"
	"gonum.org/v1/gonum/stat"
)

// Report is the outcome of one batch run
type Report struct {
	ID      string        `json:"id"`
	Created time.Time     `json:"created"`
	Options Options       `json:"options"`
	Images  []ImageResult `json:"images"`
}

// ImageResult holds the scores of one source image and its enhancements
type ImageResult struct {
	Name       string            `json:"name"`
	Rows       int               `json:"rows,omitempty"`
	Cols       int               `json:"cols,omitempty"`
	Original   metric.Result     `json:"original"`
	Techniques []TechniqueResult `json:"techniques,omitempty"`
	// Skipped is the load error of an image that was not processed
	Skipped string `json:"skipped,omitempty"`
}

// TechniqueResult holds the scores of one enhanced image
type TechniqueResult struct {
	Technique enhance.Technique `json:"technique"`
	Metrics   metric.Result     `json:"metrics"`
	Digest    string            `json:"digest,omitempty"`
	Elapsed   time.Duration     `json:"elapsed_ns"`
	Err       string            `json:"error,omitempty"`
}

// Processed counts the images that were loaded
func (r *Report) Processed() int {
	n := 0
	for _, img := range r.Images {
		if img.Skipped == "" {
			n++
		}
	}
	return n
}

// Image finds a result by source name
func (r *Report) Image(name string) (ImageResult, bool) {
	for _, img := range r.Images {
		if img.Name == name {
			return img, true
		}
	}
	return ImageResult{}, false
}

// Technique finds the result of t for this image
func (ir ImageResult) Technique(t enhance.Technique) (TechniqueResult, bool) {
	for _, tr := range ir.Techniques {
		if tr.Technique == t {
			return tr, true
		}
	}
	return TechniqueResult{}, false
}

// Averages returns the mean score of every technique over the processed images,
// in the order of Options.Techniques. Failed techniques are left out; infinite
// PSNR values are left out of the PSNR mean, which is NotApplicable when none remain.
func (r *Report) Averages() []TechniqueResult {
	avgs := make([]TechniqueResult, 0, len(r.Options.Techniques))
	for _, t := range r.Options.Techniques {
		var ambe, psnr, contrast, entropy []float64
		for _, img := range r.Images {
			tr, ok := img.Technique(t)
			if !ok || tr.Err != "" {
				continue
			}
			ambe = appendFinite(ambe, tr.Metrics.AMBE)
			psnr = appendFinite(psnr, tr.Metrics.PSNR)
			contrast = appendFinite(contrast, tr.Metrics.Contrast)
			entropy = appendFinite(entropy, tr.Metrics.Entropy)
		}
		avgs = append(avgs, TechniqueResult{
			Technique: t,
			Metrics: metric.Result{
				AMBE:     mean(ambe),
				PSNR:     mean(psnr),
				Contrast: mean(contrast),
				Entropy:  mean(entropy),
			},
		})
	}
	return avgs
}

func appendFinite(vs []float64, s metric.Score) []float64 {
	v := float64(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return vs
	}
	return append(vs, v)
}

func mean(vs []float64) metric.Score {
	if len(vs) == 0 {
		return metric.NotApplicable
	}
	return metric.Score(stat.Mean(vs, nil))
}
