package monitor

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/born-ml/shardtrain/internal/train"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	started REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS epochs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	epoch INTEGER NOT NULL,
	mode TEXT NOT NULL,
	workers INTEGER NOT NULL,
	loss REAL NOT NULL,
	batches INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	steps INTEGER NOT NULL,
	lr REAL NOT NULL,
	duration_ms REAL NOT NULL,
	eval_loss REAL,
	eval_accuracy REAL
);`

// Record is one stored epoch.
type Record struct {
	Run          string
	Epoch        int
	Mode         train.Mode
	Workers      int
	Loss         float64
	Batches      int
	Failed       int
	Steps        int
	LR           float64
	Duration     time.Duration
	EvalLoss     *float64
	EvalAccuracy *float64
}

// History persists epoch reports in a SQLite database. Each History is one
// run; several runs can share a database file.
type History struct {
	db    *sql.DB
	runID int64
	name  string
}

// OpenHistory opens (or creates) the database at path and starts a new run
// called name. Use ":memory:" for a throwaway database.
func OpenHistory(ctx context.Context, path, name string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history %q", path)
	}
	// A single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create history schema")
	}
	res, err := db.ExecContext(ctx, "INSERT INTO runs(name, started) VALUES(?, ?)",
		name, float64(time.Now().UnixMilli())/1000.0)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "run id")
	}
	return &History{db: db, runID: id, name: name}, nil
}

// OnEpoch implements train.Monitor.
func (h *History) OnEpoch(ctx context.Context, r train.EpochReport) error {
	var evalLoss, evalAcc sql.NullFloat64
	if r.Metrics != nil {
		evalLoss = sql.NullFloat64{Float64: r.Metrics.Loss, Valid: true}
		evalAcc = sql.NullFloat64{Float64: r.Metrics.Accuracy, Valid: true}
	}
	_, err := h.db.ExecContext(ctx, `INSERT INTO epochs(
		run_id, epoch, mode, workers, loss, batches, failed, steps, lr, duration_ms, eval_loss, eval_accuracy)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.runID, r.Epoch, string(r.Mode), r.Workers, r.Loss, r.Batches, r.FailedBatches,
		r.Steps, r.LR, float64(r.Duration)/float64(time.Millisecond), evalLoss, evalAcc)
	return errors.Wrapf(err, "record epoch %d", r.Epoch)
}

// Records returns this run's epochs in order.
func (h *History) Records(ctx context.Context) ([]Record, error) {
	return h.query(ctx, "WHERE e.run_id = ?", h.runID)
}

// All returns every stored epoch of every run, oldest run first.
func (h *History) All(ctx context.Context) ([]Record, error) {
	return h.query(ctx, "")
}

func (h *History) query(ctx context.Context, where string, args ...any) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT r.name, e.epoch, e.mode, e.workers, e.loss,
		e.batches, e.failed, e.steps, e.lr, e.duration_ms, e.eval_loss, e.eval_accuracy
		FROM epochs e JOIN runs r ON r.id = e.run_id `+where+` ORDER BY e.run_id, e.id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec               Record
			mode              string
			durMS             float64
			evalLoss, evalAcc sql.NullFloat64
		)
		if err := rows.Scan(&rec.Run, &rec.Epoch, &mode, &rec.Workers, &rec.Loss,
			&rec.Batches, &rec.Failed, &rec.Steps, &rec.LR, &durMS, &evalLoss, &evalAcc); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}
		rec.Mode = train.Mode(mode)
		rec.Duration = time.Duration(durMS * float64(time.Millisecond))
		if evalLoss.Valid {
			rec.EvalLoss = &evalLoss.Float64
		}
		if evalAcc.Valid {
			rec.EvalAccuracy = &evalAcc.Float64
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "read history")
}

// Name returns the run name.
func (h *History) Name() string {
	return h.name
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}
