package hdf5

import (
	"path/filepath"
	"testing"

	"github.com/PrincetonUniversity/opticflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

var testTrials = []opticflow.Velocity{
	{U: 1, V: 2, W: 3, A: 4, B: 5, C: 6},
	{U: -0.5, W: 0.25, C: 0.125},
	{},
}

func TestSaveLoadTrials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "trials.h5")
	require.NoError(t, SaveTrials(path, DefaultDataset, testTrials))

	got, err := LoadTrials(path, DefaultDataset)
	require.NoError(t, err)
	assert.Equal(t, testTrials, got)
}

func TestSaveTrialsEmpty(t *testing.T) {
	err := SaveTrials(filepath.Join(t.TempDir(), "trials.h5"), DefaultDataset, nil)
	assert.Error(t, err)
}

// writeMatrix stores a row-major float64 matrix in a new file.
func writeMatrix(t *testing.T, path string, dims []uint, data []float64) {
	t.Helper()
	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer file.Close()

	dspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	require.NoError(t, err)
	defer dspace.Close()

	dset, err := file.CreateDataset("m", hdf5.T_NATIVE_DOUBLE, dspace)
	require.NoError(t, err)
	defer dset.Close()

	require.NoError(t, dset.Write(&data))
}

func TestLoadTrialsColumnMajor(t *testing.T) {
	// 6×2 matrix: one trial per column
	path := filepath.Join(t.TempDir(), "matlab.h5")
	writeMatrix(t, path, []uint{6, 2}, []float64{
		1, -1,
		2, -2,
		3, -3,
		4, -4,
		5, -5,
		6, -6,
	})

	got, err := LoadTrials(path, "m")
	require.NoError(t, err)
	assert.Equal(t, []opticflow.Velocity{
		{U: 1, V: 2, W: 3, A: 4, B: 5, C: 6},
		{U: -1, V: -2, W: -3, A: -4, B: -5, C: -6},
	}, got)
}

func TestLoadTrialsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTrials(filepath.Join(dir, "missing.h5"), DefaultDataset)
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.h5")
	writeMatrix(t, path, []uint{4, 5}, make([]float64, 20))
	_, err = LoadTrials(path, "m")
	assert.ErrorContains(t, err, "expected 6 columns or rows")

	_, err = LoadTrials(path, "nope")
	assert.Error(t, err)

	flat := filepath.Join(dir, "flat.h5")
	writeMatrix(t, flat, []uint{6}, make([]float64, 6))
	_, err = LoadTrials(flat, "m")
	assert.ErrorContains(t, err, "expected 2 dimensions")
}

func TestUnflatten(t *testing.T) {
	rows, err := unflatten([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, 2, 6)
	require.NoError(t, err)
	assert.Equal(t, []opticflow.Velocity{
		{U: 1, V: 2, W: 3, A: 4, B: 5, C: 6},
		{U: 7, V: 8, W: 9, A: 10, B: 11, C: 12},
	}, rows)

	// a 6×6 matrix is read one trial per row
	square := make([]float64, 36)
	square[6] = 42
	got, err := unflatten(square, 6, 6)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got[1].U)

	_, err = unflatten(make([]float64, 10), 2, 5)
	assert.Error(t, err)

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, -0.5, 0, 0.25, 0, 0, 0.125, 0, 0, 0, 0, 0, 0}, flatten(testTrials))
}
