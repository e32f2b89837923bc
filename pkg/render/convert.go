package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/solgraph/solgraph/pkg/errors"
)

// Rasterizer converts SVG bytes to PNG bytes.
type Rasterizer interface {
	RasterPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error)
}

// RSVG is the default Rasterizer. It shells out to rsvg-convert.
// The zero value is ready to use.
type RSVG struct{}

// RasterPNG converts SVG bytes to PNG with the given scale factor.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI
// displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func (RSVG) RasterPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeRaster,
			"png export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	cmd := exec.CommandContext(ctx, "rsvg-convert", "-f", "png", "-z", fmt.Sprintf("%.2f", scale))
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRaster, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
