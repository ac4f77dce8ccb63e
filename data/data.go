// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides the datasets a trainer iterates over.
//
// Datasets are indexable by batch, so an epoch can be split across workers
// and batch i is always the same samples.
//
// Example:
//
//	ds, err := data.Spiral(data.DefaultSpiralConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	train, test, err := ds.Split(0.8)
package data

import (
	"github.com/born-ml/shardtrain/internal/data"
	"github.com/born-ml/shardtrain/internal/tokenizer"
)

// Dataset is a fixed, indexable sequence of minibatches.
type Dataset = data.Dataset

// Batch is one minibatch.
type Batch = data.Batch

// InMemory holds all samples in memory.
type InMemory = data.InMemory

// ErrEmptyDataset is returned when a dataset would have no samples.
var ErrEmptyDataset = data.ErrEmptyDataset

// NewInMemory builds a dataset from per-sample feature rows and labels.
func NewInMemory(features [][]float64, labels []float64, batchSize int) (*InMemory, error) {
	return data.NewInMemory(features, labels, batchSize)
}

// LoadCSV loads a "label,f0,f1,..." CSV file with a header row.
func LoadCSV(filename string, maxSamples, batchSize int) (*InMemory, error) {
	return data.LoadCSV(filename, maxSamples, batchSize)
}

// SpiralConfig describes a synthetic spirals classification set.
type SpiralConfig = data.SpiralConfig

// DefaultSpiralConfig returns the classic 3-arm layout.
func DefaultSpiralConfig() SpiralConfig {
	return data.DefaultSpiralConfig()
}

// Spiral generates interleaved spiral arms, one class per arm.
func Spiral(cfg SpiralConfig) (*InMemory, error) {
	return data.Spiral(cfg)
}

// TextSample is one labelled piece of text.
type TextSample = data.TextSample

// NewText tokenizes samples and hashes each into one of buckets rows.
func NewText(samples []TextSample, tok tokenizer.Tokenizer, buckets, batchSize int) (*InMemory, error) {
	return data.NewText(samples, tok, buckets, batchSize)
}
