package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// SavePlot draws the means as a line chart, window index on the x axis, and
// saves it in the format implied by the path extension (png, svg, pdf...).
func SavePlot(path, title string, means []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "window"
	p.Y.Label.Text = "mean trip distance"
	p.Add(plotter.NewGrid())

	for _, segment := range segments(means) {
		line, err := plotter.NewLine(segment)
		if err != nil {
			return fmt.Errorf("error creating plot line: %w", err)
		}
		p.Add(line)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("error saving plot to %s: %w", path, err)
	}
	return nil
}

// segments splits the series into runs of defined means, so that empty
// windows show up as gaps in the line.
func segments(means []float64) []plotter.XYs {
	var (
		all     []plotter.XYs
		current plotter.XYs
	)
	for i, m := range means {
		if math.IsNaN(m) {
			if len(current) > 0 {
				all = append(all, current)
				current = nil
			}
			continue
		}
		current = append(current, plotter.XY{X: float64(i), Y: m})
	}
	if len(current) > 0 {
		all = append(all, current)
	}
	return all
}
