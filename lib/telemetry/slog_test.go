package telemetry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	buffer := bytes.NewBuffer(nil)
	logger := NewLogger(buffer, false)
	logger.Debug("hidden")
	logger.Info("shown", "key", "value")
	require.NotContains(t, buffer.String(), "hidden")
	require.Contains(t, buffer.String(), "msg=shown key=value")

	buffer.Reset()
	logger = NewLogger(buffer, true)
	logger.Debug("visible")
	require.Contains(t, buffer.String(), "msg=visible")
}
