package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mhs/calculator"
)

func TestWriteCSV(t *testing.T) {
	content := `
[sources.beam_0]
depth = 0.001
diameter = 0.002
max_power = 100
abscissa = 0

[grid]
x_min = -0.001
x_max = 0.001
y_min = 0
y_max = 0
nx = 3
ny = 1
nz = 2
thickness = 0.001
`
	filename := filepath.Join(t.TempDir(), "heat_source.ini")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	c, err := calculator.NewCalculatorFromFile(filename)
	require.NoError(t, err)
	defer c.Close()
	c.Advance(1)

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, c))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"x", "y", "z", "q"}, rows[0])

	// 表面中心点最大，底层 z = -depth 处为 0
	center, err := strconv.ParseFloat(rows[2][3], 64)
	require.NoError(t, err)
	assert.Greater(t, center, 0.0)
	assert.Equal(t, "0", rows[5][3])
	assert.Equal(t, "-0.001", rows[5][2])
}
