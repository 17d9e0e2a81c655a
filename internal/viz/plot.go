package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
)

type PlotOptions struct {
	Height int
	Width  int
	// Log plots log10 of the values; non-positive values are clamped to
	// Floor.
	Log   bool
	Floor float64
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Height: 10, Width: 80, Floor: 1}
}

// PlotSpecies renders one species trajectory against sample index. times
// are in seconds and only used for the caption.
func PlotSpecies(name string, times, values []float64, opts PlotOptions) string {
	if len(values) == 0 {
		return Subtle.Render(fmt.Sprintf("%s: no data", name))
	}

	data := values
	unit := "cm^-3"
	if opts.Log {
		data = log10Series(values, opts.Floor)
		unit = "log10 cm^-3"
	}

	caption := fmt.Sprintf("%s (%s)", name, unit)
	if len(times) > 0 {
		caption = fmt.Sprintf("%s, %.3g..%.3g ms", caption, times[0]*1e3, times[len(times)-1]*1e3)
	}

	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// PlotMany overlays several series on one log10 chart.
func PlotMany(caption string, series [][]float64, opts PlotOptions) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) == 0 {
			continue
		}
		if opts.Log {
			s = log10Series(s, opts.Floor)
		}
		data = append(data, s)
	}
	if len(data) == 0 {
		return Subtle.Render(caption + ": no data")
	}

	colors := []asciigraph.AnsiColor{
		asciigraph.Red, asciigraph.Green, asciigraph.Yellow, asciigraph.Blue,
		asciigraph.Magenta, asciigraph.Cyan, asciigraph.White,
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors[:min(len(data), len(colors))]...),
	)
}

func log10Series(values []float64, floor float64) []float64 {
	if floor <= 0 {
		floor = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log10(math.Max(v, floor))
	}
	return out
}
