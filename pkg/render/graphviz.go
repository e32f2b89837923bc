// Package render turns DOT text into image bytes.
//
// The two capability interfaces, [Layouter] and [Rasterizer], split the work
// the way the binaries involved split it: layout (DOT to SVG) runs in-process
// through Graphviz, rasterization (SVG to PNG) shells out to librsvg. The
// render pipeline depends on the interfaces only, so tests can substitute
// fakes without either tool installed.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/solgraph/solgraph/pkg/errors"
)

// Layouter lays out DOT text and returns the resulting SVG bytes.
type Layouter interface {
	LayoutSVG(ctx context.Context, dot string) ([]byte, error)
}

// Graphviz is the default Layouter, backed by the Graphviz layout engine.
// The zero value is ready to use.
type Graphviz struct{}

// LayoutSVG runs the dot layout engine over the given DOT text.
//
// Failures carry the LAYOUT_ERROR code and wrap the underlying cause; the
// offending DOT text travels on the error message so a failing render can be
// reproduced with the dot CLI directly.
func (Graphviz) LayoutSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "initialize graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "parse DOT:\n%s", dot)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayout, err, "layout DOT:\n%s", dot)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the viewBox starts at the
// origin and width/height match it. Graphviz emits point-based dimensions
// that some rasterizers round differently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
