package data

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadCSV loads a labelled dataset from a CSV file with a header row.
//
// CSV Format:
//
//	label,f0,f1,...,fn
//	2,0.13,-0.5,...,1.0
//	0,0.02,0.71,...,0.3
//
// Labels must be non-negative integers. maxSamples limits the number of
// rows read (0 = load all).
func LoadCSV(filename string, maxSamples, batchSize int) (*InMemory, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, errors.Wrapf(ErrEmptyDataset, "%s: missing header or rows", filename)
	}

	// Skip header row
	records = records[1:]
	if maxSamples > 0 && len(records) > maxSamples {
		records = records[:maxSamples]
	}

	features := make([][]float64, len(records))
	labels := make([]float64, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, errors.Errorf("row %d: want label and at least one feature, got %d columns", i+1, len(record))
		}
		label, err := strconv.Atoi(record[0])
		if err != nil || label < 0 {
			return nil, errors.Errorf("row %d: invalid label %q", i+1, record[0])
		}
		labels[i] = float64(label)

		features[i] = make([]float64, len(record)-1)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d, column %d", i+1, j+1)
			}
			features[i][j] = v
		}
	}
	return NewInMemory(features, labels, batchSize)
}
