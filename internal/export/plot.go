package export

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// SavePNG draws each series against frames as a line and writes the plot
// to path. Non-finite samples are dropped.
func SavePNG(path, title string, frames []int, series map[string][]float64) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		pts := points(name, frames, series[name])
		if len(pts) == 0 {
			log.Printf("export: series %q has no finite samples, skipped", name)
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return fmt.Errorf("cannot save plot: %w", err)
	}
	return nil
}

func points(name string, frames []int, ys []float64) plotter.XYs {
	n := len(ys)
	if len(frames) != n {
		log.Printf("export: series %q has %d samples for %d frames", name, n, len(frames))
		n = min(n, len(frames))
	}

	pts := make(plotter.XYs, 0, n)
	dropped := 0
	for i := 0; i < n; i++ {
		y := ys[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			dropped++
			continue
		}
		pts = append(pts, plotter.XY{X: float64(frames[i]), Y: y})
	}
	if dropped > 0 {
		log.Printf("export: series %q dropped %d non-finite samples", name, dropped)
	}
	return pts
}

// Column extracts one state component from every row.
func Column(states [][]float64, index int) []float64 {
	out := make([]float64, len(states))
	for i, x := range states {
		if index < len(x) {
			out[i] = x[index]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
