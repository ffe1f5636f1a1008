package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jpfielding/histeq.go/pkg/batch"
	"github.com/jpfielding/histeq.go/pkg/gray"
	"github.com/jpfielding/histeq.go/pkg/metric"
)

// Format selects how a report is written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", ignoring case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q, expected text or json", s)
}

// Write renders a batch report in the given format
func Write(w io.Writer, f Format, rep *batch.Report) error {
	if f == FormatJSON {
		return WriteJSON(w, rep)
	}
	return WriteText(w, rep)
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteText writes one metrics table per image followed by the per-technique
// averages. Metrics that do not apply print as "-".
func WriteText(w io.Writer, rep *batch.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\timages=%d\tprocessed=%d\t%s\n", rep.ID, len(rep.Images), rep.Processed(), rep.Options.CLAHE)
	for _, img := range rep.Images {
		fmt.Fprintln(tw)
		writeImage(tw, img)
	}
	if rep.Processed() > 0 {
		fmt.Fprintf(tw, "\naverages\n")
		writeHeader(tw)
		for _, tr := range rep.Averages() {
			writeRow(tw, string(tr.Technique), tr.Metrics, "")
		}
	}
	return tw.Flush()
}

// WriteImage writes the metrics table of a single image
func WriteImage(w io.Writer, img batch.ImageResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	writeImage(tw, img)
	return tw.Flush()
}

func writeImage(tw *tabwriter.Writer, img batch.ImageResult) {
	if img.Skipped != "" {
		fmt.Fprintf(tw, "%s\tskipped: %s\n", img.Name, img.Skipped)
		return
	}
	fmt.Fprintf(tw, "%s\t%dx%d\n", img.Name, img.Rows, img.Cols)
	writeHeader(tw)
	writeRow(tw, "original", img.Original, "")
	for _, tr := range img.Techniques {
		writeRow(tw, string(tr.Technique), tr.Metrics, tr.Err)
	}
}

func writeHeader(tw *tabwriter.Writer) {
	fmt.Fprintln(tw, "  technique\tAMBE\tPSNR\tContraste\tEntropia\t")
}

func writeRow(tw *tabwriter.Writer, name string, m metric.Result, errMsg string) {
	fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n", name, m.AMBE, m.PSNR, m.Contrast, m.Entropy, errMsg)
}

// WriteHistogram prints the non-empty bins of h as "level count bar", the bar
// scaled so the fullest bin is width characters wide
func WriteHistogram(w io.Writer, h gray.Histogram, width int) error {
	peak := 0
	for _, c := range h {
		peak = max(peak, c)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight)
	for v, c := range h {
		if c == 0 {
			continue
		}
		bar := 0
		if peak > 0 && width > 0 {
			bar = max(1, c*width/peak)
		}
		fmt.Fprintf(tw, "%d\t%d\t %s\n", v, c, strings.Repeat("#", bar))
	}
	return tw.Flush()
}
