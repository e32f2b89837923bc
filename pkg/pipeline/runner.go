package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/solgraph/solgraph/pkg/errors"
	"github.com/solgraph/solgraph/pkg/model"
	"github.com/solgraph/solgraph/pkg/observability"
	"github.com/solgraph/solgraph/pkg/render"
	"github.com/solgraph/solgraph/pkg/render/dot"
)

// Runner executes renders. The zero value works; NewRunner fills in a
// default logger.
//
// The Runner is stateless apart from its collaborators. Multiple goroutines
// can safely share one Runner with different options; every render carries
// its own naming counter inside the DOT writer, so concurrent renders never
// interfere.
type Runner struct {
	Layouter   render.Layouter
	Rasterizer render.Rasterizer
	Logger     *log.Logger
}

// NewRunner creates a runner. A nil logger defaults to log.Default();
// layouter and rasterizer default to the Graphviz and librsvg
// implementations when left nil.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Render produces the requested artifacts in memory.
//
// The DOT artifact is always produced. For FormatDOT no layout runs at all;
// for FormatSVG and up the DOT text is laid out, and only FormatPNG and
// FormatAll rasterize.
func (r *Runner) Render(ctx context.Context, entities []*model.Entity, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid render options")
	}

	result := &Result{
		RenderID:  uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.EntityCount = len(entities)

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, result.RenderID, opts.Format)
	err := r.render(ctx, entities, opts, result)
	observability.Pipeline().OnRenderComplete(ctx, result.RenderID, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// render runs the stages, filling in result.
func (r *Runner) render(ctx context.Context, entities []*model.Entity, opts Options, result *Result) error {
	logger := r.logger(opts)

	writeStart := time.Now()
	dotText := dot.Write(entities, opts.Diagram)
	result.Artifacts[FormatDOT] = []byte(dotText)
	result.Stats.WriteTime = time.Since(writeStart)

	logger.Debug("wrote DOT",
		"render_id", result.RenderID,
		"entities", len(entities),
		"duration", result.Stats.WriteTime)

	if !opts.needsLayout() {
		return nil
	}

	layoutStart := time.Now()
	svg, err := stageLayouter(r.Layouter).LayoutSVG(ctx, dotText)
	if err != nil {
		return err
	}
	result.Artifacts[FormatSVG] = svg
	result.Stats.LayoutTime = time.Since(layoutStart)

	logger.Info("laid out diagram",
		"render_id", result.RenderID,
		"entities", len(entities),
		"duration", result.Stats.LayoutTime)

	if opts.needsRaster() {
		rasterStart := time.Now()
		png, err := stageRasterizer(r.Rasterizer).RasterPNG(ctx, svg, opts.Scale)
		if err != nil {
			return err
		}
		result.Artifacts[FormatPNG] = png
		result.Stats.RasterTime = time.Since(rasterStart)

		logger.Info("rasterized diagram",
			"render_id", result.RenderID,
			"scale", opts.Scale,
			"duration", result.Stats.RasterTime)
	}

	return nil
}

// RenderSVG is a convenience wrapper returning only SVG bytes.
func (r *Runner) RenderSVG(ctx context.Context, entities []*model.Entity, diagram dot.Options) ([]byte, error) {
	result, err := r.Render(ctx, entities, Options{Format: FormatSVG, Diagram: diagram})
	if err != nil {
		return nil, err
	}
	return result.Artifacts[FormatSVG], nil
}

// Export renders and writes the requested artifacts to disk.
//
// The base output path comes from ResolveBase; one file per produced format
// is written as base plus extension. When PNG output is requested the SVG
// intermediate is written too, so a failing rasterizer still leaves the SVG
// behind for inspection.
func (r *Runner) Export(ctx context.Context, entities []*model.Entity, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid render options")
	}

	base, err := ResolveBase(opts.OutputPath, opts.Name)
	if err != nil {
		return nil, err
	}

	result, err := r.Render(ctx, entities, opts)
	if err != nil {
		return nil, err
	}

	if opts.Format == FormatDOT || opts.Format == FormatAll {
		if err := r.writeFile(result, base+".dot", result.Artifacts[FormatDOT]); err != nil {
			return nil, err
		}
	}
	if opts.Format != FormatDOT {
		if err := r.writeFile(result, base+".svg", result.Artifacts[FormatSVG]); err != nil {
			return nil, err
		}
	}
	if opts.needsRaster() {
		if err := r.writeFile(result, base+".png", result.Artifacts[FormatPNG]); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *Runner) writeFile(result *Result, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	result.Files = append(result.Files, path)
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return opts.Logger
}
