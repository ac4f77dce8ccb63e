package monitor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/train"
)

// Dashboard is a terminal UI showing the loss and accuracy curves of a run.
//
// Widgets are updated on every epoch; they are only drawn after Start, so a
// Dashboard can be fed without a terminal.
type Dashboard struct {
	mu      sync.Mutex
	started bool
	start   time.Time
	epochs  int

	grid      *ui.Grid
	lossPlot  *widgets.Plot
	accPlot   *widgets.Plot
	gauge     *widgets.Gauge
	status    *widgets.List
	system    *widgets.List
	losses    []float64
	accuracy  []float64
	lastEpoch train.EpochReport
}

// NewDashboard builds the widgets for a run of the given number of epochs.
func NewDashboard(epochs int) *Dashboard {
	d := &Dashboard{epochs: epochs, start: time.Now()}

	d.lossPlot = widgets.NewPlot()
	d.lossPlot.Title = "Training loss"
	d.lossPlot.LineColors[0] = ui.ColorRed

	d.accPlot = widgets.NewPlot()
	d.accPlot.Title = "Evaluation accuracy (%)"
	d.accPlot.LineColors[0] = ui.ColorGreen

	d.gauge = widgets.NewGauge()
	d.gauge.Title = "Progress"
	d.gauge.BarColor = ui.ColorBlue

	d.status = widgets.NewList()
	d.status.Title = "Run"
	d.system = widgets.NewList()
	d.system.Title = "System"

	d.grid = ui.NewGrid()
	d.grid.Set(
		ui.NewRow(0.6, ui.NewCol(0.5, d.lossPlot), ui.NewCol(0.5, d.accPlot)),
		ui.NewRow(0.3, ui.NewCol(0.5, d.status), ui.NewCol(0.5, d.system)),
		ui.NewRow(0.1, ui.NewCol(1.0, d.gauge)),
	)
	d.refresh()
	return d
}

// Start takes over the terminal. Close must be called to restore it.
func (d *Dashboard) Start() error {
	if err := ui.Init(); err != nil {
		return errors.Wrap(err, "init terminal ui")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
	w, h := ui.TerminalDimensions()
	d.grid.SetRect(0, 0, w, h)
	ui.Render(d.grid)
	return nil
}

// OnEpoch implements train.Monitor.
func (d *Dashboard) OnEpoch(_ context.Context, r train.EpochReport) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.losses = append(d.losses, r.Loss)
	if r.Metrics != nil {
		d.accuracy = append(d.accuracy, r.Metrics.Accuracy*100)
	}
	d.lastEpoch = r
	d.refresh()
	if d.started {
		ui.Render(d.grid)
	}
	return nil
}

// refresh copies the collected series into the widgets. Callers hold mu.
func (d *Dashboard) refresh() {
	d.lossPlot.Data = [][]float64{plottable(d.losses)}
	d.accPlot.Data = [][]float64{plottable(d.accuracy)}

	r := d.lastEpoch
	if d.epochs > 0 {
		d.gauge.Percent = min(100, len(d.losses)*100/d.epochs)
	}
	d.status.Rows = []string{
		fmt.Sprintf("Epoch: %d / %d", len(d.losses), d.epochs),
		fmt.Sprintf("Mode: %s (%d workers)", r.Mode, r.Workers),
		fmt.Sprintf("Loss: %.4f", r.Loss),
		fmt.Sprintf("Steps: %d  Failed batches: %d", r.Steps, r.FailedBatches),
		fmt.Sprintf("LR: %g", r.LR),
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	d.system.Rows = []string{
		fmt.Sprintf("Elapsed: %v", time.Since(d.start).Round(time.Second)),
		fmt.Sprintf("Last epoch: %v", r.Duration.Round(time.Millisecond)),
		fmt.Sprintf("Heap: %d MiB", mem.Alloc/1024/1024),
		fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()),
	}
}

// Wait blocks until the user presses q or Ctrl-C, or ctx is done.
func (d *Dashboard) Wait(ctx context.Context) {
	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			if e.ID == "q" || e.ID == "<C-c>" {
				return
			}
		}
	}
}

// Close restores the terminal if Start was called.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		ui.Close()
		d.started = false
	}
}

// plottable returns a series the plot widget can draw, which needs at least
// two points.
func plottable(series []float64) []float64 {
	switch len(series) {
	case 0:
		return []float64{0, 0}
	case 1:
		return []float64{series[0], series[0]}
	default:
		return append([]float64(nil), series...)
	}
}
