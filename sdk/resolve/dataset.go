package resolve

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// DatasetWriter appends training samples to the three flat files of spec
// §6's training-data file format: `<prefix>.inputs` (N x 2K+1),
// `<prefix>.targets` (N x 2K), `<prefix>.mask` (N x K). Grounded on
// sdk/solver/checkpoint.go's append-friendly file handling, generalised
// from one atomic JSON snapshot to three growing row-major tensors opened
// with O_APPEND so concurrent writers from disjoint processes never
// interleave a partial row (spec §6 "append-on-existing: if files exist,
// concatenate along the sample axis").
//
// Rows are encoded as little-endian float64, which keeps the files a
// plain fixed-width binary format readable by any downstream tensor
// library without this package depending on one itself.
type DatasetWriter struct {
	numBuckets int
	inputs     *os.File
	targets    *os.File
	mask       *os.File
}

// NewDatasetWriter opens (creating if absent) the three files for prefix,
// sized for a value-oracle with numBuckets buckets per player.
func NewDatasetWriter(prefix string, numBuckets int) (*DatasetWriter, error) {
	open := func(suffix string) (*os.File, error) {
		f, err := os.OpenFile(prefix+suffix, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open dataset file %s%s: %w", prefix, suffix, err)
		}
		return f, nil
	}

	inputs, err := open(".inputs")
	if err != nil {
		return nil, err
	}
	targets, err := open(".targets")
	if err != nil {
		inputs.Close()
		return nil, err
	}
	mask, err := open(".mask")
	if err != nil {
		inputs.Close()
		targets.Close()
		return nil, err
	}
	return &DatasetWriter{numBuckets: numBuckets, inputs: inputs, targets: targets, mask: mask}, nil
}

// WriteSample appends one row to each file. input must have length 2K+1,
// target length 2K, mask length K.
func (dw *DatasetWriter) WriteSample(input, target, mask []float64) error {
	k := dw.numBuckets
	if len(input) != 2*k+1 {
		return fmt.Errorf("%w: dataset input row length %d, want %d", ErrShapeMismatch, len(input), 2*k+1)
	}
	if len(target) != 2*k {
		return fmt.Errorf("%w: dataset target row length %d, want %d", ErrShapeMismatch, len(target), 2*k)
	}
	if len(mask) != k {
		return fmt.Errorf("%w: dataset mask row length %d, want %d", ErrShapeMismatch, len(mask), k)
	}
	if err := writeRow(dw.inputs, input); err != nil {
		return err
	}
	if err := writeRow(dw.targets, target); err != nil {
		return err
	}
	return writeRow(dw.mask, mask)
}

// Close closes all three underlying files.
func (dw *DatasetWriter) Close() error {
	err1 := dw.inputs.Close()
	err2 := dw.targets.Close()
	err3 := dw.mask.Close()
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}

func writeRow(f *os.File, row []float64) error {
	buf := make([]byte, 8*len(row))
	for i, v := range row {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	_, err := f.Write(buf)
	return err
}
