package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotSweep draws accuracy and F1 (scaled to percent) against the number of
// selected features. The image format follows the file extension (png, svg,
// pdf, jpg).
func PlotSweep(result *SweepResult, path string) error {
	if result == nil || len(result.Points) == 0 {
		return ErrNoCandidates
	}

	p := plot.New()
	p.Title.Text = "Feature selection sweep"
	p.X.Label.Text = "Selected features"
	p.Y.Label.Text = "Score (%)"

	accuracy := make(plotter.XYs, len(result.Points))
	f1 := make(plotter.XYs, len(result.Points))
	for i, pt := range result.Points {
		accuracy[i].X = float64(pt.Features)
		accuracy[i].Y = pt.Metrics.Accuracy
		f1[i].X = float64(pt.Features)
		f1[i].Y = 100 * pt.Metrics.F1Score
	}

	for i, series := range []struct {
		name string
		xys  plotter.XYs
	}{
		{name: "accuracy", xys: accuracy},
		{name: "F1", xys: f1},
	} {
		lines, points, err := plotter.NewLinePoints(series.xys)
		if err != nil {
			return fmt.Errorf("failed to build %s series: %w", series.name, err)
		}
		lines.Color = plotutil.Color(i)
		lines.Width = 2
		points.Color = plotutil.Color(i)
		p.Add(lines, points)
		p.Legend.Add(series.name, lines, points)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
