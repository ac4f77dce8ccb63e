// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package monitor provides train.Monitor implementations.
//
// Example:
//
//	history, err := monitor.OpenHistory(ctx, "runs.sqlite3", "baseline")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer history.Close()
//
//	mon := monitor.Multi{monitor.NewLog(logger, slog.LevelInfo), history}
//	trainer := train.New(cfg, mon, nil)
package monitor

import (
	"context"
	"log/slog"

	"github.com/born-ml/shardtrain/internal/monitor"
)

// Multi fans a report out to several monitors.
type Multi = monitor.Multi

// Log writes one structured record per epoch.
type Log = monitor.Log

// NewLog creates a log monitor.
func NewLog(logger *slog.Logger, level slog.Level) *Log {
	return monitor.NewLog(logger, level)
}

// History persists epoch reports in SQLite.
type History = monitor.History

// Record is one stored epoch.
type Record = monitor.Record

// OpenHistory opens (or creates) a history database and starts a run.
func OpenHistory(ctx context.Context, path, name string) (*History, error) {
	return monitor.OpenHistory(ctx, path, name)
}

// Dashboard is a terminal UI for a training run.
type Dashboard = monitor.Dashboard

// NewDashboard builds a dashboard for a run of epochs epochs.
func NewDashboard(epochs int) *Dashboard {
	return monitor.NewDashboard(epochs)
}
