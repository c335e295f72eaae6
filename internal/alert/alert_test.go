package alert

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

func testAlert() types.Alert {
	return types.Alert{
		Level:           types.AlertLevelError,
		DeploymentID:    "d-1",
		DeploymentGroup: "g1",
		Message:         "something went wrong",
		Timestamp:       time.Now(),
	}
}

type recordingSink struct {
	name string
	err  error
	got  []types.Alert
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, a types.Alert) error {
	s.got = append(s.got, a)
	return s.err
}

func TestConsoleSink_Send(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSinkTo(&buf)
	assert.Equal(t, "console", sink.Name())

	for _, level := range []types.AlertLevel{types.AlertLevelError, types.AlertLevelWarning, types.AlertLevelInfo} {
		a := testAlert()
		a.Level = level
		require.NoError(t, sink.Send(context.Background(), a))
	}
	assert.Contains(t, buf.String(), "[g1/d-1] something went wrong")
}

func TestConsoleSink_NoDeployment(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSinkTo(&buf)
	require.NoError(t, sink.Send(context.Background(), types.Alert{Level: types.AlertLevelInfo, Message: "hello"}))
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "/")
}

func TestDispatcher_FansOut(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	d := NewDispatcher(slog.Default(), a)
	d.AddSink(b)

	d.AlertFunc()(context.Background(), testAlert())

	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestDispatcher_SinkErrorDoesNotStopOthers(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	failing := &recordingSink{name: "failing", err: assert.AnError}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(logger, failing, ok)

	d.Dispatch(context.Background(), testAlert())

	assert.Len(t, ok.got, 1)
	assert.Contains(t, logs.String(), "alert delivery failed")
	assert.Contains(t, logs.String(), "sink=failing")
}

func TestDispatcher_NilLogger(t *testing.T) {
	d := NewDispatcher(nil)
	d.Dispatch(context.Background(), testAlert())
}
