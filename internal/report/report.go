// Package report renders static strength curves from a merged dataset: one
// PNG per measured object and muscle model, with one line per secondary DOF
// value.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/joint-strength/internal/dataset"
	"github.com/banshee-data/joint-strength/internal/monitoring"
	"github.com/banshee-data/joint-strength/internal/security"
)

// MaxLines caps the number of secondary DOF curves per figure.
const MaxLines = 8

type figureKey struct {
	object string
	muscle string
}

type figure struct {
	primaryLabel   string
	secondaryLabel string
	lines          map[float64]plotter.XYs
	values         []float64
}

// Render draws every figure of ds into dir and returns the written paths in
// sorted order.
func Render(ds *dataset.Dataset, dir string) ([]string, error) {
	figs := group(ds)
	if len(figs) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	keys := make([]figureKey, 0, len(figs))
	for k := range figs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].object != keys[j].object {
			return keys[i].object < keys[j].object
		}
		return keys[i].muscle < keys[j].muscle
	})

	paths := make([]string, 0, len(keys))
	used := make(map[string]bool, len(keys))
	for _, k := range keys {
		name := uniqueName(used, FileName(k.object, k.muscle))
		if name != FileName(k.object, k.muscle) {
			monitoring.Logger().Warn("report file name collision",
				"object", k.object, "muscle", k.muscle, "file", name)
		}
		path := filepath.Join(dir, name)
		if err := renderFigure(k, figs[k], path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	monitoring.Logger().Info("rendered strength report", "dir", dir, "figures", len(paths))
	return paths, nil
}

func group(ds *dataset.Dataset) map[figureKey]*figure {
	if ds == nil {
		return nil
	}
	figs := make(map[figureKey]*figure)
	for _, r := range ds.Rows {
		k := figureKey{object: r.MeasureObject, muscle: r.AnyBodyMuscleType}
		f, ok := figs[k]
		if !ok {
			f = &figure{primaryLabel: r.PrimaryDoF, secondaryLabel: r.SecondaryDoF, lines: make(map[float64]plotter.XYs)}
			figs[k] = f
		}
		f.lines[r.MeasureSecondDoF] = append(f.lines[r.MeasureSecondDoF], plotter.XY{X: r.MeasurePrimaryDoF, Y: r.MeasureValue})
		f.values = append(f.values, r.MeasureValue)
	}
	return figs
}

func renderFigure(k figureKey, f *figure, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s strength (%s): mean %.1f, max %.1f",
		k.object, k.muscle, stat.Mean(f.values, nil), floats.Max(f.values))
	p.X.Label.Text = f.primaryLabel
	p.Y.Label.Text = "Strength"

	secondary := make([]float64, 0, len(f.lines))
	for v := range f.lines {
		secondary = append(secondary, v)
	}
	sort.Float64s(secondary)
	secondary = PickEvenly(secondary, MaxLines)

	colors := generateColors(len(secondary))
	for i, v := range secondary {
		pts := f.lines[v]
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s = %.4g", f.secondaryLabel, v), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// PickEvenly returns at most n values of the sorted slice vs, spread evenly
// and always including both ends.
func PickEvenly(vs []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(vs) <= n {
		return vs
	}
	if n == 1 {
		return vs[:1]
	}
	out := make([]float64, n)
	step := float64(len(vs)-1) / float64(n-1)
	for i := range out {
		out[i] = vs[int(float64(i)*step+0.5)]
	}
	return out
}

// uniqueName returns name, or name with a "_N" suffix before the extension
// when an earlier figure of the same report already took it.
func uniqueName(used map[string]bool, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	used[candidate] = true
	return candidate
}

// FileName is the PNG name of one figure. Names that differ only in case or
// punctuation share a FileName; Render disambiguates them.
func FileName(object, muscle string) string {
	return security.FileSlug(object) + "__" + security.FileSlug(muscle) + ".png"
}
