package monitoring

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogger(t *testing.T) {
	original := Logger()
	defer SetLogger(original)

	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	SetLogger(l)
	Component("session").Info("frame skipped")

	assert.Contains(t, buf.String(), "frame skipped")
	assert.Contains(t, buf.String(), "component=session")
}

func TestSetLogger_NilDiscards(t *testing.T) {
	original := Logger()
	defer SetLogger(original)

	SetLogger(nil)
	require.NotNil(t, Logger())

	// Should not panic even at error level.
	Component("render").Error("dropped")
	assert.Equal(t, logrus.PanicLevel, Logger().GetLevel())
}

func TestConfigure(t *testing.T) {
	original := Logger()
	defer SetLogger(original)

	t.Run("default level is info", func(t *testing.T) {
		l, err := Configure(Options{})
		require.NoError(t, err)
		assert.Equal(t, logrus.InfoLevel, l.GetLevel())
		assert.Same(t, l, Logger())
	})

	t.Run("parses level", func(t *testing.T) {
		l, err := Configure(Options{Level: "trace"})
		require.NoError(t, err)
		assert.Equal(t, logrus.TraceLevel, l.GetLevel())
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := Configure(Options{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("test env never writes files", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Configure(Options{Dir: dir + "/logs", Env: "test"})
		require.NoError(t, err)
		assert.NoDirExists(t, dir+"/logs")
	})
}
