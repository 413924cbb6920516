package store

import "github.com/banshee-data/faceoverlay/internal/monitoring"

func opsf(format string, args ...interface{}) {
	monitoring.Component("store").Infof(format, args...)
}

func diagf(format string, args ...interface{}) {
	monitoring.Component("store").Debugf(format, args...)
}
