// Package monitor keeps diagnostic views of a running overlay session:
// a rolling pose history served as an HTML chart on the debug mux, and
// the offline yaw sweep that compares the two scale estimators.
package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/faceoverlay/internal/httputil"
	"github.com/banshee-data/faceoverlay/internal/render"
	"github.com/banshee-data/faceoverlay/internal/variants"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultHistorySize is the number of samples kept when NewPoseHistory
// is given a non-positive size.
const DefaultHistorySize = 600

// Sample is the placement of the first face in one drawn frame.
type Sample struct {
	Seq       uint64        `json:"seq"`
	Timestamp time.Time     `json:"timestamp"`
	Mode      variants.Mode `json:"mode"`
	Variant   string        `json:"variant"`
	Faces     int           `json:"faces"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Scale     float64       `json:"scale"`
	// Angle is the in-plane rotation in radians. For mesh placements it
	// is read back from the orientation.
	Angle float64 `json:"angle"`
}

// PoseHistory is a render.Sink that keeps the most recent samples in a
// ring buffer.
type PoseHistory struct {
	mu    sync.Mutex
	buf   []Sample
	next  int
	full  bool
	total uint64
}

// NewPoseHistory returns an empty history holding up to size samples.
func NewPoseHistory(size int) *PoseHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &PoseHistory{buf: make([]Sample, size)}
}

// Draw implements render.Sink.
func (h *PoseHistory) Draw(out *render.Output) error {
	s, ok := sampleOf(out)
	if !ok {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
	h.total++
	return nil
}

func sampleOf(out *render.Output) (Sample, bool) {
	if out.Empty() {
		return Sample{}, false
	}
	s := Sample{
		Seq:       out.Seq,
		Timestamp: out.Timestamp,
		Mode:      out.Mode,
		Variant:   out.VariantID,
	}
	if out.Mesh != nil {
		m := out.Mesh
		s.Faces = 1
		s.X, s.Y = m.Position.X, m.Position.Y
		s.Scale = m.Scale.X
		s.Angle = inPlaneAngle(m.Orientation)
		return s, true
	}
	a := out.Sprites[0]
	s.Faces = len(out.Sprites)
	s.X, s.Y = a.X, a.Y
	s.Scale = a.Scale
	s.Angle = a.Angle
	return s, true
}

// inPlaneAngle is the angle the rotation gives the +X axis, seen from
// the camera.
func inPlaneAngle(q r3.Rotation) float64 {
	x := q.Rotate(r3.Vec{X: 1})
	return math.Atan2(x.Y, x.X)
}

// Samples returns the retained samples, oldest first.
func (h *PoseHistory) Samples() []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		return append([]Sample(nil), h.buf[:h.next]...)
	}
	out := make([]Sample, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

// Total returns the number of samples recorded since creation,
// including those already evicted.
func (h *PoseHistory) Total() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// ServeHTTP renders the history. Query params:
//   - format=json returns the raw samples
//   - last=N limits the view to the newest N samples
func (h *PoseHistory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	samples := h.Samples()
	if v := r.URL.Query().Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid last %q", v))
			return
		}
		if n < len(samples) {
			samples = samples[len(samples)-n:]
		}
	}

	if r.URL.Query().Get("format") == "json" {
		httputil.WriteJSONOK(w, samples)
		return
	}

	var buf bytes.Buffer
	if err := renderHistory(&buf, samples); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func renderHistory(buf *bytes.Buffer, samples []Sample) error {
	seqs := make([]string, len(samples))
	scale := make([]opts.LineData, len(samples))
	angle := make([]opts.LineData, len(samples))
	xs := make([]opts.LineData, len(samples))
	ys := make([]opts.LineData, len(samples))
	for i, s := range samples {
		seqs[i] = strconv.FormatUint(s.Seq, 10)
		scale[i] = opts.LineData{Value: s.Scale}
		angle[i] = opts.LineData{Value: s.Angle * 180 / math.Pi}
		xs[i] = opts.LineData{Value: s.X}
		ys[i] = opts.LineData{Value: s.Y}
	}
	subtitle := "no frames drawn yet"
	if n := len(samples); n > 0 {
		last := samples[n-1]
		subtitle = fmt.Sprintf("mode=%s variant=%s faces=%d frames=%d", last.Mode, last.Variant, last.Faces, n)
	}

	scaleChart := charts.NewLine()
	scaleChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Overlay pose history", Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Scale and roll", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	scaleChart.SetXAxis(seqs).
		AddSeries("scale", scale).
		AddSeries("angle (deg)", angle)

	posChart := charts.NewLine()
	posChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Position"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	posChart.SetXAxis(seqs).
		AddSeries("x", xs).
		AddSeries("y", ys)

	page := components.NewPage()
	page.AddCharts(scaleChart, posChart)
	return page.Render(buf)
}
