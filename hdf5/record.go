package hdf5

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/PrincetonUniversity/opticflow"
	"gonum.org/v1/hdf5"
)

// Number of values stored per star: X, Y, Size.
const starValues = 3

// A Recorder saves the frames of successive trials to an HDF5 file.
//
// The file holds a "stars" dataset of shape trials×frames×dots×3
// (X, Y, Size of every projected dot), a "recycled" dataset of shape
// trials×frames and a "config" dataset whose attributes are the
// simulation parameters.
type Recorder struct {
	file      *hdf5.File
	stars     *Dataset
	recycled  *Dataset
	numTrials int
	numFrames int
	numDots   int
	buf       []float64
}

// NewRecorder creates the file at path, truncating any existing one,
// with room for numTrials trials simulated with conf.
func NewRecorder(path string, conf opticflow.Config, numTrials int) (_ *Recorder, err error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if numTrials <= 0 {
		return nil, fmt.Errorf("hdf5: number of trials must be positive, got %d", numTrials)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, err
	}
	r := &Recorder{
		file:      file,
		numTrials: numTrials,
		numFrames: conf.NumFrames,
		numDots:   conf.NumDots,
		buf:       make([]float64, starValues*conf.NumDots),
	}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	if err := saveSimConfig(file, conf); err != nil {
		return nil, err
	}
	r.stars, err = NewDataset(file, "stars", 0.0, []int{numTrials, conf.NumFrames, conf.NumDots, starValues}, 2)
	if err != nil {
		return nil, err
	}
	r.recycled, err = NewDataset(file, "recycled", int64(0), []int{numTrials, conf.NumFrames}, 2)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// WriteFrame stores frame k of a trial.
func (r *Recorder) WriteFrame(trial, k int, f opticflow.Frame) error {
	if trial < 0 || trial >= r.numTrials || k < 0 || k >= r.numFrames {
		return fmt.Errorf("hdf5: frame %d of trial %d out of range (%d×%d)", k, trial, r.numTrials, r.numFrames)
	}
	if len(f.Stars) != r.numDots {
		return fmt.Errorf("hdf5: expected %d stars, got %d", r.numDots, len(f.Stars))
	}

	for i, s := range f.Stars {
		r.buf[starValues*i] = s.X
		r.buf[starValues*i+1] = s.Y
		r.buf[starValues*i+2] = s.Size
	}
	if err := r.stars.WriteAt(&r.buf, uint(trial), uint(k)); err != nil {
		return err
	}
	n := int64(f.Recycled)
	return r.recycled.WriteAt(&n, uint(trial), uint(k))
}

// Close flushes and closes the file.
func (r *Recorder) Close() (err error) {
	for _, d := range []*Dataset{r.stars, r.recycled} {
		if d != nil {
			if cerr := d.Close(); err == nil {
				err = cerr
			}
		}
	}
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// saveSimConfig creates a "config" dataset with a null dataspace whose
// attributes reflect the simulation parameters plus the creation time.
// Durations are stored in seconds and points as two X and Y attributes.
func saveSimConfig(file *hdf5.File, conf opticflow.Config) (err error) {
	dset, err := createNull(file, "config")
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	if err := writeAttr(dset, "Time", time.Now().String()); err != nil {
		return err
	}

	v := reflect.ValueOf(conf)
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Name
		switch f := v.Field(i).Interface().(type) {
		case int:
			err = writeAttr(dset, name, int64(f))
		case float64:
			err = writeAttr(dset, name, f)
		case time.Duration:
			err = writeAttr(dset, name, f.Seconds())
		case opticflow.Point:
			if err = writeAttr(dset, name+"X", f.X); err == nil {
				err = writeAttr(dset, name+"Y", f.Y)
			}
		default:
			err = fmt.Errorf("hdf5: unsupported config field %s of type %T", name, f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// A Dataset is a wrapper for an HDF5 Dataset and its associated Dataspaces.
// The file dataspace selects a single element of the leading dimensions,
// the memory dataspace spans the remaining ones.
type Dataset struct {
	Dataset   *hdf5.Dataset
	DataSpace *hdf5.Dataspace
	MemSpace  *hdf5.Dataspace

	ndims int
}

// NewDataset creates a Dataset whose first lead dimensions are written
// one element at a time.
func NewDataset(file *hdf5.File, name string, valOfType interface{}, dims []int, lead int) (_ *Dataset, err error) {
	if lead < 1 || lead > len(dims) {
		return nil, fmt.Errorf("hdf5: bad number of leading dimensions %d for %d dimensions", lead, len(dims))
	}

	d := &Dataset{ndims: len(dims)}
	dtype, err := hdf5.NewDatatypeFromValue(valOfType)
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, dtype)

	udims := make([]uint, len(dims))
	for i, n := range dims {
		udims[i] = uint(n)
	}

	d.DataSpace, err = hdf5.CreateSimpleDataspace(udims, nil)
	if err != nil {
		return nil, err
	}

	start := make([]uint, len(dims))
	count := make([]uint, len(dims))
	copy(count, udims)
	for i := 0; i < lead; i++ {
		count[i] = 1
	}

	if err := d.DataSpace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, d.DataSpace)
		return nil, err
	}

	if lead == len(dims) {
		d.MemSpace, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		d.MemSpace, err = hdf5.CreateSimpleDataspace(count[lead:], nil)
	}
	if err != nil {
		checkClose(&err, d.DataSpace)
		return nil, err
	}

	d.Dataset, err = file.CreateDataset(name, dtype, d.DataSpace)
	if err != nil {
		checkClose(&err, d.DataSpace)
		checkClose(&err, d.MemSpace)
		return nil, err
	}
	return d, nil
}

// WriteAt writes data at the given position of the leading dimensions.
func (d *Dataset) WriteAt(data interface{}, pos ...uint) error {
	offset := make([]uint, d.ndims)
	copy(offset, pos)
	if err := d.DataSpace.SetOffset(offset); err != nil {
		return err
	}
	return d.Dataset.WriteSubset(data, d.MemSpace, d.DataSpace)
}

// Close closes the HDF5 Dataset and Dataspaces.
func (d *Dataset) Close() error {
	if err := d.Dataset.Close(); err != nil {
		return err
	}
	if err := d.MemSpace.Close(); err != nil {
		return err
	}
	return d.DataSpace.Close()
}
