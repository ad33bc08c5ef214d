package hdf5

import (
	"fmt"

	"github.com/PrincetonUniversity/opticflow"
	"gonum.org/v1/hdf5"
)

// LoadTrials reads the net velocities of trials from a 2D dataset.
// The dataset is either N×6 (one row per trial) or 6×N (one column per trial).
// Any numeric type is converted to float64 by the HDF5 library.
func LoadTrials(path, dataset string) (trials []opticflow.Velocity, err error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, file)

	dset, err := file.OpenDataset(dataset)
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, dset)

	fspace := dset.Space()
	defer checkClose(&err, fspace)

	dims, _, err := fspace.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("hdf5: dataset %q: expected 2 dimensions, got %d", dataset, len(dims))
	}

	data := make([]float64, dims[0]*dims[1])
	if len(data) == 0 {
		return nil, fmt.Errorf("hdf5: dataset %q is empty", dataset)
	}
	if err := dset.Read(&data); err != nil {
		return nil, err
	}

	trials, err = unflatten(data, int(dims[0]), int(dims[1]))
	if err != nil {
		return nil, fmt.Errorf("hdf5: dataset %q: %w", dataset, err)
	}
	return trials, nil
}

// unflatten converts a row-major rows×cols matrix into trials.
// Rows are trials when there are 6 columns, otherwise columns are.
func unflatten(data []float64, rows, cols int) ([]opticflow.Velocity, error) {
	var at func(i, j int) float64 // component j of trial i
	var n int
	switch {
	case cols == NumColumns:
		n = rows
		at = func(i, j int) float64 { return data[i*cols+j] }
	case rows == NumColumns:
		n = cols
		at = func(i, j int) float64 { return data[j*cols+i] }
	default:
		return nil, fmt.Errorf("expected %d columns or rows, got %d×%d", NumColumns, rows, cols)
	}

	trials := make([]opticflow.Velocity, n)
	for i := range trials {
		trials[i] = opticflow.Velocity{
			U: at(i, 0), V: at(i, 1), W: at(i, 2),
			A: at(i, 3), B: at(i, 4), C: at(i, 5),
		}
	}
	return trials, nil
}
