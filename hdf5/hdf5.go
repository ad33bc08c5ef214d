// Package hdf5 reads and writes the net velocities of trials in HDF5 files.
//
// Trials are stored as a 2D float64 dataset with one row per trial and
// one column per motion component, in the order U, V, W, A, B, C.
// A 6×N matrix saved by MATLAB with -v7.3 has exactly this layout once
// seen through HDF5, since MATLAB stores matrices column-major.
package hdf5

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PrincetonUniversity/opticflow"
	"gonum.org/v1/hdf5"
)

// DefaultDataset is the default name of the trials dataset.
const DefaultDataset = "trials"

// NumColumns is the number of motion components per trial.
const NumColumns = 6

// Columns lists the motion components in column order.
var Columns = [NumColumns]string{"U", "V", "W", "A", "B", "C"}

// SaveTrials writes trials to a new HDF5 file, truncating any existing one.
func SaveTrials(path, dataset string, trials []opticflow.Velocity) (err error) {
	if len(trials) == 0 {
		return errors.New("hdf5: no trials to save")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer checkClose(&err, file)

	if err := saveConfig(file); err != nil {
		return err
	}

	dspace, err := hdf5.CreateSimpleDataspace([]uint{uint(len(trials)), NumColumns}, nil)
	if err != nil {
		return err
	}
	defer checkClose(&err, dspace)

	dset, err := file.CreateDataset(dataset, hdf5.T_NATIVE_DOUBLE, dspace)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	data := flatten(trials)
	return dset.Write(&data)
}

// saveConfig creates a "config" dataset with a null dataspace whose attributes
// describe the layout of the file plus some other appropriate metadata.
func saveConfig(file *hdf5.File) (err error) {
	dset, err := createNull(file, "config")
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	if err := writeAttr(dset, "Time", time.Now().String()); err != nil {
		return err
	}
	return writeAttr(dset, "Columns", fmt.Sprint(Columns))
}

// createNull creates a dataset with a null dataspace, meant to carry attributes.
func createNull(file *hdf5.File, name string) (_ *hdf5.Dataset, err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, null)

	anytype, err := hdf5.NewDatatypeFromValue(0)
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, anytype)

	return file.CreateDataset(name, anytype, null)
}

// writeAttr attaches a scalar attribute to a dataset.
func writeAttr[T any](dset *hdf5.Dataset, name string, value T) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(value)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer checkClose(&err, scalar)

	attr, err := dset.CreateAttribute(name, dtype, scalar)
	if err != nil {
		return err
	}
	defer checkClose(&err, attr)

	return attr.Write(&value, dtype)
}

// flatten lays out trials row-major, one row per trial.
func flatten(trials []opticflow.Velocity) []float64 {
	data := make([]float64, 0, NumColumns*len(trials))
	for _, t := range trials {
		data = append(data, t.U, t.V, t.W, t.A, t.B, t.C)
	}
	return data
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
