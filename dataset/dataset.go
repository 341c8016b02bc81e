// Package dataset provides indexable datasets and a batching loader that
// collates batches on a worker pool.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abhissng/synapse/blame"
	"github.com/abhissng/synapse/tensor"
	"github.com/abhissng/synapse/train"
)

// Feed keys produced by the bundled datasets.
const (
	KeyFeatures = "features"
	KeyLabel    = "label"
)

// TrainFile is the file CSVDataset reads from a data directory.
const TrainFile = "train.csv"

// Dataset is a finite, indexable collection of examples.
type Dataset interface {
	Len() int
	Get(i int) (train.FeedDict, error)
}

// Shaped is implemented by datasets with a fixed feature width and class count.
type Shaped interface {
	NumFeatures() int
	NumClasses() int
}

// CSVDataset holds rows of "f1,...,fk,label" loaded into memory.
type CSVDataset struct {
	features   [][]float64
	labels     []int
	numClasses int
}

// LoadCSVDataset reads TrainFile from dir.
func LoadCSVDataset(dir string) (*CSVDataset, error) {
	path := filepath.Join(dir, TrainFile)
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, blame.DatasetLoadError(path, err)
	}
	defer func() { _ = f.Close() }()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, blame.DatasetLoadError(path, err)
	}
	return ds, nil
}

// ReadCSV parses rows of k features followed by an integer label. A first row
// that does not parse is treated as a header.
func ReadCSV(r io.Reader) (*CSVDataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	ds := &CSVDataset{}
	width := -1
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		feats, label, err := parseRow(record)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if width >= 0 && len(feats) != width {
			return nil, fmt.Errorf("line %d: %d features, expected %d", line, len(feats), width)
		}
		width = len(feats)
		ds.features = append(ds.features, feats)
		ds.labels = append(ds.labels, label)
		ds.numClasses = max(ds.numClasses, label+1)
	}
	if len(ds.labels) == 0 {
		return nil, errors.New("no rows")
	}
	return ds, nil
}

func parseRow(record []string) ([]float64, int, error) {
	if len(record) < 2 {
		return nil, 0, fmt.Errorf("need at least one feature and a label, got %d fields", len(record))
	}
	feats := make([]float64, len(record)-1)
	for i, field := range record[:len(record)-1] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("feature %d: %w", i, err)
		}
		feats[i] = v
	}
	label, err := strconv.Atoi(strings.TrimSpace(record[len(record)-1]))
	if err != nil {
		return nil, 0, fmt.Errorf("label: %w", err)
	}
	if label < 0 {
		return nil, 0, fmt.Errorf("label %d is negative", label)
	}
	return feats, label, nil
}

// Len returns the number of rows.
func (d *CSVDataset) Len() int { return len(d.labels) }

// NumFeatures returns the feature width.
func (d *CSVDataset) NumFeatures() int { return len(d.features[0]) }

// NumClasses returns one more than the largest label.
func (d *CSVDataset) NumClasses() int { return d.numClasses }

// Get returns row i as {features: [k] tensor, label: int}.
func (d *CSVDataset) Get(i int) (train.FeedDict, error) {
	if i < 0 || i >= len(d.labels) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(d.labels))
	}
	feats := append([]float64(nil), d.features[i]...)
	return train.FeedDict{
		KeyFeatures: tensor.FromSlice(feats, len(feats)),
		KeyLabel:    d.labels[i],
	}, nil
}
