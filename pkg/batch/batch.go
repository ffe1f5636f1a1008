package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jpfielding/histeq.go/pkg/enhance"
	"github.com/jpfielding/histeq.go/pkg/gray"
	"github.com/jpfielding/histeq.go/pkg/logging"
	"github.com/jpfielding/histeq.go/pkg/metric"
	"github.com/jpfielding/histeq.go/pkg/util"
	"golang.org/x/sync/errgroup"
)

var unscored = metric.Result{
	AMBE:     metric.NotApplicable,
	PSNR:     metric.NotApplicable,
	Contrast: metric.NotApplicable,
	Entropy:  metric.NotApplicable,
}

// Loader fetches a decoded grayscale image by name
type Loader interface {
	Load(ctx context.Context, name string) (*gray.Buffer, error)
}

// Sink receives every enhanced buffer, e.g. to write it to disk
type Sink func(ctx context.Context, name string, t enhance.Technique, out *gray.Buffer) error

// Options configures a batch run
type Options struct {
	Techniques []enhance.Technique  `json:"techniques"`
	CLAHE      enhance.CLAHEOptions `json:"clahe"`

	// Workers bounds how many images are processed at once; <= 0 uses GOMAXPROCS
	Workers int `json:"workers"`

	// FailFast aborts the batch on the first technique or metric error instead
	// of recording it against the image
	FailFast bool `json:"fail_fast"`
}

// DefaultOptions runs every technique with default CLAHE settings
func DefaultOptions() Options {
	return Options{
		Techniques: enhance.AllTechniques,
		CLAHE:      enhance.DefaultCLAHEOptions(),
	}
}

// Runner enhances and scores a set of images
type Runner struct {
	loader    Loader
	opts      Options
	enhancers []enhance.Enhancer
	sink      Sink
}

// NewRunner validates the options and builds one enhancer per technique
func NewRunner(loader Loader, opts Options) (*Runner, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if len(opts.Techniques) == 0 {
		opts.Techniques = enhance.AllTechniques
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	es, err := enhance.Enhancers(opts.Techniques, opts.CLAHE)
	if err != nil {
		return nil, err
	}
	return &Runner{loader: loader, opts: opts, enhancers: es}, nil
}

// WithSink sets the receiver of enhanced buffers
func (r *Runner) WithSink(s Sink) *Runner {
	r.sink = s
	return r
}

// WithEnhancers replaces the enhancers built from Options.Techniques
func (r *Runner) WithEnhancers(es ...enhance.Enhancer) *Runner {
	r.enhancers = es
	r.opts.Techniques = make([]enhance.Technique, len(es))
	for i, e := range es {
		r.opts.Techniques[i] = e.Technique()
	}
	return r
}

// Options returns the effective options
func (r *Runner) Options() Options {
	return r.opts
}

// Run processes names with at most Workers images in flight. The techniques of
// one image run concurrently and are joined before its result is recorded.
// Images that cannot be loaded are skipped and reported, not fatal.
func (r *Runner) Run(ctx context.Context, names []string) (*Report, error) {
	rep := &Report{
		ID: util.RunID(struct {
			Options Options  `json:"options"`
			Images  []string `json:"images"`
		}{r.opts, names}),
		Created: time.Now().UTC(),
		Options: r.opts,
		Images:  make([]ImageResult, len(names)),
	}
	ctx = logging.AppendCtx(ctx, slog.String("run", rep.ID))
	slog.InfoContext(ctx, "batch started", "images", len(names), "workers", r.opts.Workers, "techniques", r.opts.Techniques)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := r.Process(gctx, name)
			if err != nil {
				return err
			}
			rep.Images[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "batch finished", "processed", rep.Processed(), "skipped", len(rep.Images)-rep.Processed())
	return rep, nil
}

// Process loads, enhances and scores one image
func (r *Runner) Process(ctx context.Context, name string) (ImageResult, error) {
	ctx = logging.AppendCtx(ctx, slog.String("image", name))
	start := time.Now()
	res := ImageResult{Name: name}

	img, err := r.loader.Load(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		slog.WarnContext(ctx, "skipping image", "error", err)
		res.Skipped = err.Error()
		return res, nil
	}
	res.Rows, res.Cols = img.Rows, img.Cols
	res.Original = metric.Standalone(img)
	res.Techniques = make([]TechniqueResult, len(r.enhancers))

	var g errgroup.Group
	for j, e := range r.enhancers {
		j, e := j, e
		g.Go(func() error {
			tr, err := r.apply(ctx, name, img, e)
			res.Techniques[j] = tr
			if err != nil && r.opts.FailFast {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	slog.InfoContext(ctx, "image processed", "size", img.String(), "elapsed", time.Since(start))
	return res, nil
}

func (r *Runner) apply(ctx context.Context, name string, img *gray.Buffer, e enhance.Enhancer) (TechniqueResult, error) {
	t := e.Technique()
	tr := TechniqueResult{Technique: t, Metrics: unscored}
	fail := func(err error) (TechniqueResult, error) {
		tr.Err = err.Error()
		slog.ErrorContext(ctx, "technique failed", "technique", t, "error", err)
		return tr, fmt.Errorf("%s %s: %w", name, t, err)
	}

	start := time.Now()
	out, err := e.Enhance(img)
	if err != nil {
		return fail(err)
	}
	tr.Elapsed = time.Since(start)
	slog.DebugContext(ctx, "technique applied", "technique", t, "elapsed", tr.Elapsed)

	m, err := metric.Evaluate(img, out)
	if err != nil {
		return fail(err)
	}
	tr.Metrics = m
	tr.Digest = util.Digest(out.Pix)

	if r.sink != nil {
		if err := r.sink(ctx, name, t, out); err != nil {
			return fail(err)
		}
	}
	return tr, nil
}
