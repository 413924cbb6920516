package session

import "github.com/banshee-data/faceoverlay/internal/monitoring"

func opsf(format string, args ...interface{}) {
	monitoring.Component("session").Infof(format, args...)
}

func diagf(format string, args ...interface{}) {
	monitoring.Component("session").Debugf(format, args...)
}

func tracef(format string, args ...interface{}) {
	monitoring.Component("session").Tracef(format, args...)
}
