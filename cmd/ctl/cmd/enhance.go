package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jpfielding/histeq.go/pkg/batch"
	"github.com/jpfielding/histeq.go/pkg/enhance"
	"github.com/jpfielding/histeq.go/pkg/gray"
	"github.com/jpfielding/histeq.go/pkg/imgio"
	"github.com/jpfielding/histeq.go/pkg/report"
	"github.com/spf13/cobra"
)

// NewEnhanceCmd runs every selected technique over a directory of images
func NewEnhanceCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Enhance and score a directory of images",
		Long:  "Loads the images of a directory as grayscale, applies each technique and reports AMBE, PSNR, contrast and entropy per image and technique.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			count, _ := cmd.Flags().GetString("count")
			workers, _ := cmd.Flags().GetInt("workers")
			outDir, _ := cmd.Flags().GetString("out")
			failFast, _ := cmd.Flags().GetBool("fail-fast")
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			opts, err := batchFlags(cmd)
			if err != nil {
				return err
			}
			opts.Workers = workers
			opts.FailFast = failFast

			all, err := imgio.List(dir)
			if err != nil {
				return err
			}
			names, err := imgio.Select(all, count)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "images selected", "dir", dir, "selected", len(names), "found", len(all))

			r, err := batch.NewRunner(imgio.Dir(dir), opts)
			if err != nil {
				return err
			}
			if outDir != "" {
				r.WithSink(saveTo(outDir))
			}
			rep, err := r.Run(ctx, names)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), format, rep)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("dir", "d", ".", "directory of images to process")
	pf.StringP("count", "n", "all", "number of images to process, or 'all'")
	pf.IntP("workers", "w", 0, "images processed concurrently (0 uses GOMAXPROCS)")
	pf.StringP("out", "o", "", "directory to save enhanced images as <stem>_<technique>.png")
	pf.Bool("fail-fast", false, "abort on the first technique error instead of recording it")
	addTechniqueFlags(cmd)
	return cmd
}

// addTechniqueFlags registers the flags shared by enhance and analyze
func addTechniqueFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringP("techniques", "t", "all", "comma separated techniques (HE,CLAHE,DSIHE,BBHE) or 'all'")
	pf.Float64("clip-limit", 2.0, "CLAHE clip limit as a multiple of the mean bin count ('inf' disables clipping)")
	pf.String("tiles", "8x8", "CLAHE tile grid as RxC")
	pf.StringP("format", "f", "text", "report format (text|json)")
}

func batchFlags(cmd *cobra.Command) (batch.Options, error) {
	opts := batch.DefaultOptions()
	techniques, _ := cmd.Flags().GetString("techniques")
	clipLimit, _ := cmd.Flags().GetFloat64("clip-limit")
	tiles, _ := cmd.Flags().GetString("tiles")

	ts, err := enhance.ParseTechniques(techniques)
	if err != nil {
		return opts, err
	}
	rows, cols, err := enhance.ParseGrid(tiles)
	if err != nil {
		return opts, err
	}
	opts.Techniques = ts
	opts.CLAHE = enhance.CLAHEOptions{ClipLimit: clipLimit, TileRows: rows, TileCols: cols}
	return opts, opts.CLAHE.Validate()
}

func formatFlag(cmd *cobra.Command) (report.Format, error) {
	format, _ := cmd.Flags().GetString("format")
	return report.ParseFormat(format)
}

// saveTo writes each enhanced buffer under dir
func saveTo(dir string) batch.Sink {
	return func(ctx context.Context, name string, t enhance.Technique, out *gray.Buffer) error {
		path := filepath.Join(dir, imgio.OutputName(name, string(t)))
		if err := imgio.Save(path, out); err != nil {
			return fmt.Errorf("failed to save %s result: %w", t, err)
		}
		slog.DebugContext(ctx, "saved", "technique", t, "path", path)
		return nil
	}
}
