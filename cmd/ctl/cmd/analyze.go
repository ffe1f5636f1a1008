package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jpfielding/histeq.go/pkg/batch"
	"github.com/jpfielding/histeq.go/pkg/enhance"
	"github.com/jpfielding/histeq.go/pkg/gray"
	"github.com/jpfielding/histeq.go/pkg/imgio"
	"github.com/jpfielding/histeq.go/pkg/metric"
	"github.com/jpfielding/histeq.go/pkg/report"
	"github.com/spf13/cobra"
)

// Analysis describes one image and how each technique scores on it
type Analysis struct {
	Image       batch.ImageResult `json:"image"`
	Min         uint8             `json:"min"`
	Max         uint8             `json:"max"`
	Mean        float64           `json:"mean"`
	MedianPivot int               `json:"median_pivot"`
	MeanPivot   int               `json:"mean_pivot"`
	Histogram   *gray.Histogram   `json:"histogram,omitempty"`
}

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a single image",
		Long:  "Prints intensity statistics, the DSIHE and BBHE pivots and the metrics of every technique for one image.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			histogram, _ := cmd.Flags().GetBool("histogram")
			width, _ := cmd.Flags().GetInt("width")
			outDir, _ := cmd.Flags().GetString("out")

			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			opts, err := batchFlags(cmd)
			if err != nil {
				return err
			}
			opts.FailFast = true

			a, err := runAnalyze(ctx, opts, filePath, outDir, histogram)
			if err != nil {
				return err
			}
			if format == report.FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), a)
			}
			return writeAnalysis(cmd.OutOrStdout(), a, width)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("file", "", "image file path to analyze")
	pf.Bool("histogram", false, "include the 256 bin histogram")
	pf.Int("width", 60, "histogram bar width in characters")
	pf.StringP("out", "o", "", "directory to save enhanced images as <stem>_<technique>.png")
	addTechniqueFlags(cmd)
	return cmd
}

// single serves one already decoded image to a batch.Runner
type single struct {
	name string
	img  *gray.Buffer
}

func (s single) Load(ctx context.Context, name string) (*gray.Buffer, error) {
	if name != s.name {
		return nil, fmt.Errorf("%s: not loaded", name)
	}
	return s.img, nil
}

// runAnalyze computes the statistics of one image and scores every technique on it
func runAnalyze(ctx context.Context, opts batch.Options, filePath, outDir string, histogram bool) (*Analysis, error) {
	img, err := imgio.Load(filePath)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(filePath)
	r, err := batch.NewRunner(single{name, img}, opts)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		r.WithSink(saveTo(outDir))
	}
	res, err := r.Process(ctx, name)
	if err != nil {
		return nil, err
	}

	h := gray.HistogramOf(img)
	a := &Analysis{
		Image:       res,
		Mean:        metric.Mean(img),
		MedianPivot: enhance.MedianPivot(h),
		MeanPivot:   enhance.MeanPivot(h),
	}
	a.Min, a.Max = img.MinMax()
	if histogram {
		a.Histogram = &h
	}
	return a, nil
}

func writeAnalysis(w io.Writer, a *Analysis, width int) error {
	fmt.Fprintf(w, "range: %d..%d\tmean: %.4f\n", a.Min, a.Max, a.Mean)
	fmt.Fprintf(w, "pivots: DSIHE %d\tBBHE %d\n\n", a.MedianPivot, a.MeanPivot)
	if err := report.WriteImage(w, a.Image); err != nil {
		return err
	}
	if a.Histogram == nil {
		return nil
	}
	fmt.Fprintln(w, "\nhistogram")
	return report.WriteHistogram(w, *a.Histogram, width)
}
