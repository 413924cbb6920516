package landmarks

import "github.com/banshee-data/faceoverlay/internal/monitoring"

func opsf(format string, args ...interface{}) {
	monitoring.Component("landmarks").Warnf(format, args...)
}

func tracef(format string, args ...interface{}) {
	monitoring.Component("landmarks").Tracef(format, args...)
}
