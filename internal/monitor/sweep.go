package monitor

import (
	"fmt"
	"image/color"
	"math"

	"github.com/banshee-data/faceoverlay/internal/anchors"
	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SweepPoint compares the two scale estimators at one head yaw.
type SweepPoint struct {
	Yaw float64
	// DistanceScale is the mesh estimator (nose-to-ear distance sum).
	DistanceScale float64
	// EarWidthScale is the flat estimator (projected ear-to-ear width).
	EarWidthScale float64
}

// ScaleSweep turns the synthetic head from −maxYaw to +maxYaw in steps
// and runs both estimators on each pose. Roll is held fixed.
func ScaleSweep(p pose.Params, maxYaw, roll float64, steps int) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, fmt.Errorf("scale sweep needs at least 2 steps, got %d", steps)
	}
	if maxYaw <= 0 || maxYaw >= math.Pi/2 {
		return nil, fmt.Errorf("max yaw %.3f outside (0, π/2)", maxYaw)
	}

	const w, h = 640, 480
	mesh := landmarks.NewSynthetic(landmarks.LayoutMesh, w, h)
	named := landmarks.NewSynthetic(landmarks.LayoutNamed, w, h)
	meshVariant := variants.DefaultMesh().Default()
	flatVariant := variants.DefaultFlat().Default()
	space := p.Space(w, h)

	points := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		yaw := -maxYaw + 2*maxYaw*float64(i)/float64(steps-1)
		hp := landmarks.HeadPose{Yaw: yaw, Roll: roll}

		ma, err := anchors.ResolveMesh(mesh.Face(hp), meshVariant)
		if err != nil {
			return nil, fmt.Errorf("yaw %.3f: %w", yaw, err)
		}
		fa, err := anchors.ResolveFlat(named.Face(hp), flatVariant)
		if err != nil {
			return nil, fmt.Errorf("yaw %.3f: %w", yaw, err)
		}
		points = append(points, SweepPoint{
			Yaw:           yaw,
			DistanceScale: p.EstimateMesh(ma, space, 0).Scale,
			EarWidthScale: p.EstimateFlat(fa, 0).Scale,
		})
	}
	diagf("scale sweep: %d poses over ±%.2f rad", len(points), maxYaw)
	return points, nil
}

// PlotScaleSweep writes a PNG of both estimators against yaw, each
// normalised to its value at the pose closest to frontal.
func PlotScaleSweep(points []SweepPoint, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("no sweep points to plot")
	}
	ref := points[0]
	for _, pt := range points[1:] {
		if math.Abs(pt.Yaw) < math.Abs(ref.Yaw) {
			ref = pt
		}
	}

	dist := make(plotter.XYs, len(points))
	width := make(plotter.XYs, len(points))
	for i, pt := range points {
		deg := pt.Yaw * 180 / math.Pi
		dist[i] = plotter.XY{X: deg, Y: pt.DistanceScale / ref.DistanceScale}
		width[i] = plotter.XY{X: deg, Y: pt.EarWidthScale / ref.EarWidthScale}
	}

	p := plot.New()
	p.Title.Text = "Scale estimate vs head yaw"
	p.X.Label.Text = "Yaw (deg)"
	p.Y.Label.Text = "Scale / frontal scale"

	distLine, err := plotter.NewLine(dist)
	if err != nil {
		return err
	}
	distLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	distLine.Width = vg.Points(1.5)
	p.Add(distLine)
	p.Legend.Add("nose-to-ear distance sum", distLine)

	widthLine, err := plotter.NewLine(width)
	if err != nil {
		return err
	}
	widthLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	widthLine.Width = vg.Points(1.5)
	widthLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(widthLine)
	p.Legend.Add("projected ear width", widthLine)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save scale sweep plot: %w", err)
	}
	return nil
}
