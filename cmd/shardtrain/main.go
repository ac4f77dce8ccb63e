// Package main provides the shardtrain CLI: it trains a small classifier on
// a synthetic, CSV or text dataset with the data-parallel trainer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/data"
	"github.com/born-ml/shardtrain/internal/monitor"
	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/optim"
	"github.com/born-ml/shardtrain/internal/parallel"
	"github.com/born-ml/shardtrain/internal/tokenizer"
	"github.com/born-ml/shardtrain/internal/train"
)

const version = "v0.1.0"

// options are the parsed command line flags.
type options struct {
	threads    int
	parallel   bool
	simplified bool
	epochs     int
	batch      int
	sync       int
	lr         float64
	optimizer  string
	seed       int64
	model      string
	hidden     int
	tokenizer  string
	buckets    int
	csv        string
	samples    int
	split      float64
	history    string
	dashboard  bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("shardtrain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&o.threads, "threads", parallel.LogicalCores(), "Worker pool size")
	fs.BoolVar(&o.parallel, "parallel", true, "Spread batches across workers")
	fs.BoolVar(&o.simplified, "simplified", false, "Use simplified parallel training (shared accumulation under a global lock)")
	fs.IntVar(&o.epochs, "epochs", 10, "Number of training epochs")
	fs.IntVar(&o.batch, "batch", 32, "Batch size")
	fs.IntVar(&o.sync, "sync", 1, "Batches per worker between optimizer steps (0 = one step per epoch)")
	fs.Float64Var(&o.lr, "lr", 0.01, "Learning rate")
	fs.StringVar(&o.optimizer, "optimizer", "adam", "Optimizer: adam or sgd")
	fs.Int64Var(&o.seed, "seed", 1, "Random seed for data and initialization")
	fs.StringVar(&o.model, "model", "mlp", "Model: mlp (spiral or CSV features) or embed (text)")
	fs.IntVar(&o.hidden, "hidden", 32, "Hidden layer width")
	fs.StringVar(&o.tokenizer, "tokenizer", "byte", "Tokenizer for -model embed: byte or tiktoken")
	fs.IntVar(&o.buckets, "buckets", 256, "Embedding rows for -model embed")
	fs.StringVar(&o.csv, "csv", "", "Load 'label,f0,f1,...' samples from this CSV file instead of the spiral")
	fs.IntVar(&o.samples, "samples", 0, "Max samples to load (0 = all; spiral: per class)")
	fs.Float64Var(&o.split, "split", 0.8, "Fraction of samples used for training; the rest is evaluated")
	fs.StringVar(&o.history, "history", "", "Record epochs in this SQLite database")
	fs.BoolVar(&o.dashboard, "dashboard", false, "Show a terminal dashboard")
	fs.BoolVar(&o.verbose, "v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch {
	case o.epochs <= 0:
		return o, errors.Errorf("-epochs must be positive, got %d", o.epochs)
	case o.batch <= 0:
		return o, errors.Errorf("-batch must be positive, got %d", o.batch)
	case o.sync < 0:
		return o, errors.Errorf("-sync must not be negative, got %d", o.sync)
	case o.split <= 0 || o.split >= 1:
		return o, errors.Errorf("-split must be in (0, 1), got %v", o.split)
	case o.model != "mlp" && o.model != "embed":
		return o, errors.Errorf("unknown -model %q", o.model)
	case o.optimizer != "adam" && o.optimizer != "sgd":
		return o, errors.Errorf("unknown -optimizer %q", o.optimizer)
	}
	return o, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("shardtrain %s\n", version)
		return
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "shardtrain: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logOut := stderr
	if opts.dashboard {
		logOut = io.Discard // the dashboard owns the terminal
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	trainSet, evalSet, model, err := build(opts)
	if err != nil {
		return err
	}

	monitors := monitor.Multi{monitor.NewLog(logger, slog.LevelDebug)}
	if opts.history != "" {
		h, err := monitor.OpenHistory(ctx, opts.history, runName(opts))
		if err != nil {
			return err
		}
		defer h.Close()
		monitors = append(monitors, h)
	}
	var dash *monitor.Dashboard
	if opts.dashboard {
		dash = monitor.NewDashboard(opts.epochs)
		if err := dash.Start(); err != nil {
			return err
		}
		defer dash.Close()
		monitors = append(monitors, dash)
	}

	cfg := train.Config{
		MaxEpoch:        opts.epochs,
		ParallelEnabled: opts.parallel,
		ThreadCount:     opts.threads,
		SyncBatches:     opts.sync,
		Logger:          logger,
	}
	evaluator := train.NewAccuracyEvaluator(evalSet, parallel.Config{Enabled: opts.parallel, NumWorkers: opts.threads})
	trainer := train.New(cfg, monitors, evaluator)
	defer trainer.Shutdown()

	if err := trainer.Init(trainSet, model, nn.NewCrossEntropyLoss(), newOptimizer(opts)); err != nil {
		return err
	}

	start := time.Now()
	if opts.simplified {
		err = trainer.SimplifiedParallelTrain(ctx, opts.parallel)
	} else {
		err = trainer.Train(ctx)
	}
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	if dash != nil {
		dash.Wait(ctx)
		dash.Close()
	}

	stats := trainer.Stats()
	fmt.Fprintf(stdout, "trained %d epochs (%d steps) in %v\n", stats.Epochs, stats.Steps, elapsed.Round(time.Millisecond))
	if n := len(stats.EpochLosses); n > 0 {
		fmt.Fprintf(stdout, "loss %.4f -> %.4f\n", stats.EpochLosses[0], stats.EpochLosses[n-1])
	}
	m, err := evaluator.Evaluate(ctx, model, nn.NewCrossEntropyLoss())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "eval loss %.4f, accuracy %.2f%% over %d samples\n", m.Loss, m.Accuracy*100, m.Samples)
	return nil
}

// build loads the dataset selected by opts, splits it and creates a model
// that fits it.
func build(opts options) (trainSet, evalSet *data.InMemory, model nn.Layer, err error) {
	rng := rand.New(rand.NewSource(opts.seed)) //nolint:gosec // reproducible runs

	var (
		all     *data.InMemory
		classes int
	)
	switch {
	case opts.model == "embed":
		tok, err := tokenizer.New(opts.tokenizer)
		if err != nil {
			return nil, nil, nil, err
		}
		n := opts.samples
		if n == 0 {
			n = 600
		}
		all, err = data.NewText(data.ColorCorpus(n, opts.seed), tok, opts.buckets, opts.batch)
		if err != nil {
			return nil, nil, nil, err
		}
		classes = data.ColorClasses()
		emb, err := nn.NewEmbedding(opts.buckets, opts.hidden, rng)
		if err != nil {
			return nil, nil, nil, err
		}
		model = nn.NewSequential(emb, nn.NewTanh(), nn.MustLinear(opts.hidden, classes, rng))

	default:
		if opts.csv != "" {
			all, err = data.LoadCSV(opts.csv, opts.samples, opts.batch)
			if err != nil {
				return nil, nil, nil, err
			}
			all.Shuffle(rng)
		} else {
			cfg := data.DefaultSpiralConfig()
			cfg.BatchSize = opts.batch
			cfg.Seed = opts.seed
			if opts.samples > 0 {
				cfg.PerClass = opts.samples
			}
			if all, err = data.Spiral(cfg); err != nil {
				return nil, nil, nil, err
			}
		}
		classes = all.NumClasses()
		lin1, err := nn.NewLinear(all.Features(), opts.hidden, rng)
		if err != nil {
			return nil, nil, nil, err
		}
		lin2, err := nn.NewLinear(opts.hidden, classes, rng)
		if err != nil {
			return nil, nil, nil, err
		}
		model = nn.NewSequential(lin1, nn.NewReLU(), lin2)
	}

	trainSet, evalSet, err = all.Split(opts.split)
	if err != nil {
		return nil, nil, nil, err
	}
	return trainSet, evalSet, model, nil
}

func newOptimizer(opts options) optim.Optimizer {
	if opts.optimizer == "sgd" {
		return optim.NewSGD(optim.SGDConfig{LR: opts.lr, Momentum: 0.9})
	}
	return optim.NewAdam(optim.AdamConfig{LR: opts.lr})
}

func runName(opts options) string {
	mode := "parallel"
	if opts.simplified {
		mode = "simplified"
	}
	return fmt.Sprintf("%s-%s-%s-t%d-s%d", opts.model, opts.optimizer, mode, opts.threads, opts.sync)
}
