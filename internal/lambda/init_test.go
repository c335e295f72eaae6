package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_MissingKeepAlive(t *testing.T) {
	t.Setenv("KEEP_ALIVE", "")

	_, err := Init(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEEP_ALIVE")
}

func TestInit_InvalidKeepAlive(t *testing.T) {
	t.Setenv("KEEP_ALIVE", "two hours")

	_, err := Init(t.Context())
	assert.Error(t, err)
}

func TestInit_Success(t *testing.T) {
	t.Setenv("KEEP_ALIVE", "45")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("ALERT_TOPIC_ARN", "arn:aws:sns:us-east-1:123456789012:cleanup-alerts")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	d, err := Init(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 45, d.Config.KeepAlive)
	assert.Equal(t, 45, d.Cleaner.KeepAlive())
	assert.NotNil(t, d.AlertFn)
	assert.NotNil(t, d.Logger)
	assert.NotNil(t, d.Telemetry)
}
