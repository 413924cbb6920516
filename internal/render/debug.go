package render

import "github.com/banshee-data/faceoverlay/internal/monitoring"

func opsf(format string, args ...interface{}) {
	monitoring.Component("render").Infof(format, args...)
}

func diagf(format string, args ...interface{}) {
	monitoring.Component("render").Debugf(format, args...)
}
