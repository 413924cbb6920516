// Command yaw-sweep turns the synthetic head through a range of yaw
// angles and plots the two scale estimators against each other.
package main

import (
	"encoding/csv"
	"flag"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/banshee-data/faceoverlay/internal/monitor"
	"github.com/banshee-data/faceoverlay/internal/pose"
	"github.com/banshee-data/faceoverlay/internal/security"
)

var (
	out    = flag.String("out", "scale.png", "PNG output path")
	csvOut = flag.String("csv", "", "Optional CSV output path")
	steps  = flag.Int("steps", 61, "Number of yaw samples")
	maxDeg = flag.Float64("max-yaw", 60, "Largest yaw in degrees (each side)")
	rollDg = flag.Float64("roll", 0, "Fixed head roll in degrees")
)

func main() {
	flag.Parse()
	for _, p := range []string{*out, *csvOut} {
		if p == "" {
			continue
		}
		if err := security.ValidateExportPath(p); err != nil {
			log.Fatalf("invalid output path: %v", err)
		}
	}

	points, err := monitor.ScaleSweep(pose.DefaultParams(), *maxDeg*math.Pi/180, *rollDg*math.Pi/180, *steps)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	if err := monitor.PlotScaleSweep(points, *out); err != nil {
		log.Fatalf("plot failed: %v", err)
	}
	log.Printf("wrote %s (%d poses)", *out, len(points))

	if *csvOut != "" {
		if err := writeCSV(*csvOut, points); err != nil {
			log.Fatalf("csv failed: %v", err)
		}
		log.Printf("wrote %s", *csvOut)
	}
}

func writeCSV(path string, points []monitor.SweepPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"yaw_deg", "distance_scale", "ear_width_scale"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.FormatFloat(p.Yaw*180/math.Pi, 'f', 3, 64),
			strconv.FormatFloat(p.DistanceScale, 'f', 6, 64),
			strconv.FormatFloat(p.EarWidthScale, 'f', 6, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
