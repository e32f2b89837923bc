// Package pipeline runs the model → DOT → SVG → PNG rendering chain.
//
// This package implements the complete chain used by the CLI and the HTTP
// server. Centralizing it keeps behavior identical across entry points:
// the same diagram options, the same output naming, the same intermediate
// artifacts.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Write: serialize the class model to DOT text
//  2. Layout: run Graphviz over the DOT text, producing SVG
//  3. Raster: convert the SVG to PNG via librsvg
//
// Later stages run only when the requested format needs them: a DOT-only
// render never touches Graphviz, and only PNG output shells out to librsvg.
//
// # Usage
//
// Create a Runner and render in memory:
//
//	runner := pipeline.NewRunner(nil)
//	opts := pipeline.Options{Format: pipeline.FormatSVG}
//	result, err := runner.Render(ctx, entities, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Or write files next to the caller's chosen path:
//
//	opts := pipeline.Options{Format: pipeline.FormatAll, OutputPath: "out/MyToken"}
//	result, err := runner.Export(ctx, entities, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/solgraph/solgraph/pkg/render"
	"github.com/solgraph/solgraph/pkg/render/dot"
)

// =============================================================================
// Defaults - Single Source of Truth for CLI and Server
// =============================================================================

// Format constants for output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatAll = "all"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatAll: true,
}

const (
	// DefaultFormat is used when no format is requested.
	DefaultFormat = FormatPNG

	// DefaultScale is the raster scale factor. 2.0 produces 2x resolution
	// suitable for high-DPI displays.
	DefaultScale = 2.0

	// DefaultName names output files when no output path and no better
	// name is available.
	DefaultName = "diagram"
)

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, all)", format)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one render.
type Options struct {
	// Format selects the output artifact(s): dot, svg, png, or all.
	Format string

	// OutputPath is the file or directory to export to. See ResolveBase
	// for how it is interpreted. Ignored by Render.
	OutputPath string

	// Name is the fallback base name for output files when OutputPath is
	// empty or a directory. Usually the contract name or address.
	Name string

	// Scale is the PNG raster scale factor.
	Scale float64

	// Diagram configures DOT serialization.
	Diagram dot.Options

	// Logger receives stage timing. Defaults to a discarding logger.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the format and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// needsLayout reports whether the format requires the SVG stage.
func (o *Options) needsLayout() bool {
	return o.Format != FormatDOT
}

// needsRaster reports whether the format requires the PNG stage.
func (o *Options) needsRaster() bool {
	return o.Format == FormatPNG || o.Format == FormatAll
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of one render.
type Result struct {
	// RenderID uniquely identifies this render in logs and hooks.
	RenderID string

	// Artifacts contains produced outputs keyed by format
	// (dot, svg, png). The dot artifact is always present.
	Artifacts map[string][]byte

	// Files lists the paths written by Export, in write order.
	// Empty for in-memory renders.
	Files []string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntityCount int
	WriteTime   time.Duration
	LayoutTime  time.Duration
	RasterTime  time.Duration
}

// DOT returns the DOT artifact as text.
func (r *Result) DOT() string {
	return string(r.Artifacts[FormatDOT])
}

// stageLayouter returns the configured or default layouter.
func stageLayouter(l render.Layouter) render.Layouter {
	if l != nil {
		return l
	}
	return render.Graphviz{}
}

// stageRasterizer returns the configured or default rasterizer.
func stageRasterizer(r render.Rasterizer) render.Rasterizer {
	if r != nil {
		return r
	}
	return render.RSVG{}
}
