package main

import (
	"fmt"
	"os"

	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/variants"
)

// openDetector builds the detection source named by src. The returned
// close func is always non-nil.
func openDetector(src string, mode variants.Mode) (landmarks.Detector, func(), error) {
	noop := func() {}
	switch src {
	case "synthetic":
		layout := landmarks.LayoutNamed
		if mode == variants.ModeMesh {
			layout = landmarks.LayoutMesh
		}
		g := landmarks.NewSynthetic(layout, 640, 480)
		g.Pose = landmarks.YawSweep(0.6, 0.1, 240)
		return g, noop, nil

	case "jsonl":
		if *inPath == "-" {
			return landmarks.NewJSONLSource(os.Stdin), noop, nil
		}
		f, err := os.Open(*inPath)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %v", landmarks.ErrDetectorUnavailable, err)
		}
		s := landmarks.NewJSONLSource(f)
		return s, func() { _ = s.Close() }, nil

	case "udp":
		s, err := landmarks.ListenUDP(*listenUDP)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %v", landmarks.ErrDetectorUnavailable, err)
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown source %q (want synthetic, jsonl or udp)", src)
}
