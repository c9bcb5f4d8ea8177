package evalplot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/classeval/internal/fsutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Drawer is anything that renders onto a canvas: *plot.Plot, *ConfusionPlot
// and *Grid.
type Drawer interface {
	Draw(draw.Canvas)
}

// Save renders d at w x h and writes it to path through fsys. The image
// format is taken from the file extension (png, svg, pdf, eps, jpg, tif).
func Save(fsys fsutil.FileSystem, d Drawer, w, h vg.Length, path string) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("canvas for %s: %w", path, err)
	}
	d.Draw(draw.New(c))

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	tracef("saved %s (%s)", path, format)
	return nil
}
