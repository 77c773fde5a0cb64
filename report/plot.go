package report

import (
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
)

var seriesColors = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
}

// PlotHistory renders per-epoch curves of the given metrics into path. The
// image format follows the extension (png, svg, pdf, ...).
func PlotHistory(path, title string, epochs []int, series map[string][]float64) error {
	if len(epochs) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "no epochs to plot")
	}
	if filepath.Ext(path) == "" {
		return errors.NewValidationError("history_plot", "needs a file extension", path)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		values := series[name]
		if len(values) != len(epochs) {
			return errors.NewDimensionError("PlotHistory."+name, len(epochs), len(values), 0)
		}
		pts := make(plotter.XYs, len(values))
		for j, v := range values {
			pts[j].X = float64(epochs[j])
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "plot %s", name)
		}
		line.Color = seriesColors[i%len(seriesColors)]
		if strings.HasPrefix(name, "val_") {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
