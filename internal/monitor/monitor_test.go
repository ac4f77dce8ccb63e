package monitor

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/shardtrain/internal/train"
)

func report(epoch int, loss float64, acc *float64) train.EpochReport {
	r := train.EpochReport{
		Epoch:    epoch,
		Mode:     train.ModeParallel,
		Workers:  4,
		Loss:     loss,
		Batches:  10,
		Steps:    1,
		LR:       0.01,
		Duration: 1500 * time.Millisecond,
	}
	if acc != nil {
		r.Metrics = &train.Metrics{Loss: loss, Accuracy: *acc, Samples: 100}
	}
	return r
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	acc := 0.75

	require.NoError(t, NewLog(logger, slog.LevelInfo).OnEpoch(context.Background(), report(3, 0.5, &acc)))
	out := buf.String()
	assert.Contains(t, out, "epoch=3")
	assert.Contains(t, out, "mode=parallel")
	assert.Contains(t, out, "eval_accuracy=0.75")
	assert.Contains(t, out, "component=monitor")

	buf.Reset()
	require.NoError(t, NewLog(logger, slog.LevelDebug).OnEpoch(context.Background(), report(1, 0.5, nil)))
	assert.Empty(t, buf.String(), "debug records are filtered by the handler")
}

type stubMonitor struct {
	calls int
	err   error
}

func (s *stubMonitor) OnEpoch(context.Context, train.EpochReport) error {
	s.calls++
	return s.err
}

func TestMulti(t *testing.T) {
	first := &stubMonitor{err: errors.New("first")}
	second := &stubMonitor{err: errors.New("second")}
	third := &stubMonitor{}

	err := Multi{first, nil, second, third}.OnEpoch(context.Background(), report(1, 1, nil))
	assert.EqualError(t, err, "first")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)

	assert.NoError(t, Multi{third}.OnEpoch(context.Background(), report(1, 1, nil)))
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.sqlite3")

	h, err := OpenHistory(ctx, path, "baseline")
	require.NoError(t, err)
	acc := 0.9
	require.NoError(t, h.OnEpoch(ctx, report(1, 1.2, nil)))
	require.NoError(t, h.OnEpoch(ctx, report(2, 0.8, &acc)))
	require.NoError(t, h.Close())

	// A second run in the same file.
	h, err = OpenHistory(ctx, path, "tuned")
	require.NoError(t, err)
	defer h.Close()
	require.NoError(t, h.OnEpoch(ctx, report(1, 0.6, nil)))

	own, err := h.Records(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "tuned", own[0].Run)
	assert.Equal(t, "tuned", h.Name())

	all, err := h.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	first := all[0]
	assert.Equal(t, "baseline", first.Run)
	assert.Equal(t, 1, first.Epoch)
	assert.Equal(t, train.ModeParallel, first.Mode)
	assert.Equal(t, 4, first.Workers)
	assert.InDelta(t, 1.2, first.Loss, 1e-12)
	assert.Equal(t, 10, first.Batches)
	assert.Equal(t, 1500*time.Millisecond, first.Duration)
	assert.Nil(t, first.EvalAccuracy)

	second := all[1]
	require.NotNil(t, second.EvalAccuracy)
	assert.InDelta(t, 0.9, *second.EvalAccuracy, 1e-12)
	require.NotNil(t, second.EvalLoss)
}

func TestHistory_InMemory(t *testing.T) {
	ctx := context.Background()
	h, err := OpenHistory(ctx, ":memory:", "scratch")
	require.NoError(t, err)
	defer h.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, h.OnEpoch(ctx, report(i, 1/float64(i), nil)))
	}
	recs, err := h.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, r := range recs {
		assert.Equal(t, i+1, r.Epoch)
	}
}

func TestDashboard_CollectsWithoutTerminal(t *testing.T) {
	d := NewDashboard(4)
	defer d.Close()

	assert.Equal(t, []float64{0, 0}, d.lossPlot.Data[0])

	acc := 0.5
	require.NoError(t, d.OnEpoch(context.Background(), report(1, 2, &acc)))
	assert.Equal(t, []float64{2, 2}, d.lossPlot.Data[0])
	assert.Equal(t, []float64{50, 50}, d.accPlot.Data[0])
	assert.Equal(t, 25, d.gauge.Percent)

	require.NoError(t, d.OnEpoch(context.Background(), report(2, 1, nil)))
	assert.Equal(t, []float64{2, 1}, d.lossPlot.Data[0])
	assert.Equal(t, 50, d.gauge.Percent)
	assert.Contains(t, d.status.Rows[0], "Epoch: 2 / 4")
	assert.Contains(t, d.status.Rows[1], "parallel (4 workers)")
}
