package monitor

import "github.com/banshee-data/faceoverlay/internal/monitoring"

func diagf(format string, args ...interface{}) {
	monitoring.Component("monitor").Debugf(format, args...)
}
