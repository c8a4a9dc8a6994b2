package calculator

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
	"mhs/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(ini.Empty())
	require.NoError(t, err)
	assert.Equal(t, 41, cfg.Grid.NX)
	assert.Equal(t, 5, cfg.Grid.NZ)
	assert.Equal(t, -0.01, cfg.Grid.XMin)
	assert.Equal(t, 0.002, cfg.Grid.Thickness)
	assert.Equal(t, model.Stepping{Start: 0, End: 1, Step: 0.01}, cfg.Stepping)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 16, cfg.History)
}

func TestLoadConfig(t *testing.T) {
	file, err := ini.Load([]byte(`
[grid]
x_min = 0
x_max = 0.1
nx = 11
height = 0.02

[time]
start = 1
end = 2
step = 0.5
`))
	require.NoError(t, err)
	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Grid.XMax)
	assert.Equal(t, 11, cfg.Grid.NX)
	assert.Equal(t, 0.02, cfg.Grid.Height)
	assert.Equal(t, model.Stepping{Start: 1, End: 2, Step: 0.5}, cfg.Stepping)
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := map[string]string{
		"zero nx":            "[grid]\nnx = 0\n",
		"inverted x":         "[grid]\nx_min = 1\nx_max = 0\n",
		"inverted y":         "[grid]\ny_min = 1\ny_max = 0\n",
		"negative thickness": "[grid]\nthickness = -1\n",
		"zero step":          "[time]\nstep = 0\n",
		"end before start":   "[time]\nstart = 2\nend = 1\n",
		"no workers":         "[calculator]\nworkers = 0\n",
		"no history":         "[calculator]\nhistory = 0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			file, err := ini.Load([]byte(content))
			require.NoError(t, err)
			_, err = LoadConfig(file)
			assert.ErrorIs(t, err, model.ErrConfiguration)
		})
	}
}
