package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/solgraph/solgraph/pkg/model"
)

type fakeLayouter struct {
	calls int
}

func (f *fakeLayouter) LayoutSVG(ctx context.Context, dot string) ([]byte, error) {
	f.calls++
	return []byte("<svg>" + dot + "</svg>"), nil
}

type fakeRasterizer struct {
	calls int
	scale float64
}

func (f *fakeRasterizer) RasterPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	f.calls++
	f.scale = scale
	return []byte("PNG"), nil
}

func testEntities() []*model.Entity {
	return []*model.Entity{
		{ID: "1", Name: "Token", CodePath: "Token.sol"},
		{ID: "2", Name: "Vault", CodePath: "vault/Vault.sol"},
	}
}

func testRunner() (*Runner, *fakeLayouter, *fakeRasterizer) {
	l := &fakeLayouter{}
	rz := &fakeRasterizer{}
	return &Runner{Layouter: l, Rasterizer: rz}, l, rz
}

func TestRenderDOTSkipsLayout(t *testing.T) {
	r, l, rz := testRunner()

	result, err := r.Render(context.Background(), testEntities(), Options{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if l.calls != 0 {
		t.Errorf("layouter called %d times for dot format, want 0", l.calls)
	}
	if rz.calls != 0 {
		t.Errorf("rasterizer called %d times for dot format, want 0", rz.calls)
	}
	if len(result.Artifacts[FormatDOT]) == 0 {
		t.Error("missing dot artifact")
	}
	if _, ok := result.Artifacts[FormatSVG]; ok {
		t.Error("unexpected svg artifact for dot format")
	}
}

func TestRenderSVGSkipsRaster(t *testing.T) {
	r, l, rz := testRunner()

	result, err := r.Render(context.Background(), testEntities(), Options{Format: FormatSVG})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if l.calls != 1 {
		t.Errorf("layouter calls = %d, want 1", l.calls)
	}
	if rz.calls != 0 {
		t.Errorf("rasterizer calls = %d, want 0", rz.calls)
	}
	if len(result.Artifacts[FormatSVG]) == 0 {
		t.Error("missing svg artifact")
	}
}

func TestRenderAllProducesEveryArtifact(t *testing.T) {
	r, _, rz := testRunner()

	result, err := r.Render(context.Background(), testEntities(), Options{Format: FormatAll})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, format := range []string{FormatDOT, FormatSVG, FormatPNG} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("missing %s artifact", format)
		}
	}
	if rz.scale != DefaultScale {
		t.Errorf("raster scale = %v, want %v", rz.scale, DefaultScale)
	}
	if result.RenderID == "" {
		t.Error("missing render ID")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r, _, _ := testRunner()

	first, err := r.Render(context.Background(), testEntities(), Options{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := r.Render(context.Background(), testEntities(), Options{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !bytes.Equal(first.Artifacts[FormatDOT], second.Artifacts[FormatDOT]) {
		t.Error("repeated renders produced different DOT output")
	}
	if first.RenderID == second.RenderID {
		t.Error("renders share a render ID")
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	r, _, _ := testRunner()

	if _, err := r.Render(context.Background(), testEntities(), Options{Format: "pdf"}); err == nil {
		t.Fatal("Render() with unknown format succeeded")
	}
}

func TestExportWritesRequestedFiles(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{FormatDOT, []string{"Token.dot"}},
		{FormatSVG, []string{"Token.svg"}},
		{FormatPNG, []string{"Token.svg", "Token.png"}},
		{FormatAll, []string{"Token.dot", "Token.svg", "Token.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			r, _, _ := testRunner()

			result, err := r.Export(context.Background(), testEntities(), Options{
				Format:     tt.format,
				OutputPath: dir,
				Name:       "Token",
			})
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			if len(result.Files) != len(tt.want) {
				t.Fatalf("Files = %v, want %d files", result.Files, len(tt.want))
			}
			for i, name := range tt.want {
				want := filepath.Join(dir, name)
				if result.Files[i] != want {
					t.Errorf("Files[%d] = %q, want %q", i, result.Files[i], want)
				}
				if _, err := os.Stat(want); err != nil {
					t.Errorf("stat %s: %v", want, err)
				}
			}
		})
	}
}
