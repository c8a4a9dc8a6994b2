package calculator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"mhs/heatsource"
	"mhs/model"
	"mhs/scanpath"
)

func testConfig() Config {
	return Config{
		Grid: model.Grid{
			XMin: -0.002, XMax: 0.004,
			YMin: -0.002, YMax: 0.002,
			NX: 13, NY: 9, NZ: 3,
			Thickness: 0.001,
		},
		Stepping: model.Stepping{Start: 0, End: 0.05, Step: 0.01},
		Workers:  4,
		History:  4,
	}
}

func newGaussian(t testing.TB) *heatsource.Gaussian {
	cfg := heatsource.DefaultConfig("beam", heatsource.TypeGaussian)
	cfg.Depth = 0.001
	cfg.Diameter = 0.002
	cfg.MaxPower = 1000
	cfg.AbsorptionEfficiency = 0.3
	path, err := scanpath.NewExpressionPath("0.05 * t", "0")
	require.NoError(t, err)
	g, err := heatsource.NewGaussian(cfg, path)
	require.NoError(t, err)
	return g
}

func newTestCalculator(t testing.TB, cfg Config) (*HeatFieldCalculator, *heatsource.Gaussian) {
	g := newGaussian(t)
	c := NewCalculator(heatsource.NewCollection(g), cfg)
	t.Cleanup(c.Close)
	return c, g
}

func TestGridPoints(t *testing.T) {
	g := model.Grid{XMin: -1, XMax: 1, YMin: 0, YMax: 2, NX: 3, NY: 2, NZ: 2, Height: 0.5, Thickness: 0.5}
	points := GridPoints(g)
	require.Len(t, points, g.Size())
	assert.Equal(t, r3.Vec{X: -1, Y: 0, Z: 0.5}, points[0])
	assert.Equal(t, r3.Vec{X: 0, Y: 0, Z: 0.5}, points[1])
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 0.5}, points[5])
	assert.Equal(t, r3.Vec{X: -1, Y: 0, Z: 0}, points[6])

	single := GridPoints(model.Grid{XMin: 3, XMax: 4, YMin: 5, YMax: 6, NX: 1, NY: 1, NZ: 1, Height: 1, Thickness: 9})
	assert.Equal(t, []r3.Vec{{X: 3, Y: 5, Z: 1}}, single)
}

func TestCalculator_FieldMatchesPointEvaluation(t *testing.T) {
	cfg := testConfig()
	c, g := newTestCalculator(t, cfg)
	c.Advance(0.02)

	frame := c.BuildData()
	assert.Equal(t, 0.02, frame.Time)
	require.Len(t, frame.Field, cfg.Grid.NZ)
	points := GridPoints(cfg.Grid)
	layer := cfg.Grid.NX * cfg.Grid.NY
	var peak float64
	for i, p := range points {
		expected := g.Evaluate(p, cfg.Grid.Height)
		assert.Equal(t, expected, frame.Field[i/layer][i%layer], "point %v", p)
		assert.Equal(t, expected, c.Evaluate(p))
		if expected > peak {
			peak = expected
		}
	}
	assert.Greater(t, peak, 0.0)
	assert.Equal(t, peak, frame.Max)
	require.Len(t, frame.Centers, 1)
	assert.InDelta(t, 0.001, frame.Centers[0].X, 1e-15)
	assert.Equal(t, []float64{300}, frame.Power)
}

func TestCalculator_Step(t *testing.T) {
	c, _ := newTestCalculator(t, testConfig())
	var times []float64
	for c.Step() {
		times = append(times, c.Time())
	}
	require.Len(t, times, 6)
	assert.Equal(t, 0.0, times[0])
	assert.InDelta(t, 0.05, times[5], 1e-12)
	assert.False(t, c.Step())

	// 历史帧只保留最近 4 帧
	history := c.History()
	require.Len(t, history, 4)
	assert.InDelta(t, 0.02, history[0].Time, 1e-12)
	assert.Equal(t, c.BuildData(), history[3])
}

func TestCalculator_CheckpointRollback(t *testing.T) {
	cfg := testConfig()
	cfg.History = 16
	c, _ := newTestCalculator(t, cfg)
	for i := 0; i < 3; i++ {
		require.True(t, c.Step())
	}
	c.Checkpoint()
	saved := c.BuildData()

	require.True(t, c.Step())
	require.True(t, c.Step())
	assert.NotEqual(t, saved.Field, c.BuildData().Field)

	require.NoError(t, c.Rollback())
	assert.Equal(t, saved, c.BuildData())
	assert.Len(t, c.History(), 3)

	// 回退后重新推进，结果与第一次一致
	require.True(t, c.Step())
	retried := c.BuildData()
	reference, _ := newTestCalculator(t, cfg)
	for i := 0; i < 4; i++ {
		require.True(t, reference.Step())
	}
	assert.Equal(t, reference.BuildData(), retried)
}

func TestCalculator_RollbackWithoutCheckpoint(t *testing.T) {
	c, _ := newTestCalculator(t, testConfig())
	c.Step()
	assert.ErrorIs(t, c.Rollback(), model.ErrPrecondition)
}

func TestCalculator_EvaluateBeforeAdvancePanics(t *testing.T) {
	c, _ := newTestCalculator(t, testConfig())
	assert.Panics(t, func() { c.Evaluate(r3.Vec{}) })

	frame := c.BuildData()
	assert.Nil(t, frame.Centers)
	assert.Equal(t, 0.0, frame.Max)
}

func TestCalculator_RunToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Stepping.End = 0.1
	c, _ := newTestCalculator(t, cfg)
	hub := c.GetCalcHub()
	hub.StartSignal()
	go c.Run()

	var times []float64
	stop := hub.Stop()
LOOP:
	for {
		select {
		case frame := <-hub.PeriodCalcResult:
			times = append(times, frame.Time)
		case <-stop:
			break LOOP
		}
	}
	require.Len(t, times, 11)
	for i, at := range times {
		assert.InDelta(t, 0.01*float64(i), at, 1e-12)
	}
	assert.False(t, hub.Running())
}

func TestCalculator_RunStop(t *testing.T) {
	cfg := testConfig()
	cfg.Stepping.End = 1000
	cfg.Stepping.Step = 0.001
	c, _ := newTestCalculator(t, cfg)
	hub := c.GetCalcHub()
	hub.StartSignal()

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()
	for i := 0; i < 5; i++ {
		<-hub.PeriodCalcResult
	}
	hub.StopSignal()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after StopSignal")
	}
	assert.Less(t, c.Time(), 1.0)
}

func TestNewCalculatorFromFile(t *testing.T) {
	content := `
[sources]
n_beams = 1

[sources.beam_0]
type = gaussian
depth = 0.001
diameter = 0.002
max_power = 1000
abscissa = 0.01 * t

[grid]
nx = 5
ny = 5
nz = 2

[time]
end = 0.5
step = 0.1

[calculator]
workers = 2
`
	filename := filepath.Join(t.TempDir(), "heat_source.ini")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))

	c, err := NewCalculatorFromFile(filename)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	assert.Len(t, c.points, 50)
	require.True(t, c.Step())
	assert.Greater(t, c.BuildData().Max, 0.0)

	_, err = NewCalculatorFromFile(filepath.Join(t.TempDir(), "missing.ini"))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func BenchmarkCalculator_Step(b *testing.B) {
	cfg := testConfig()
	cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ = 101, 101, 10
	cfg.Stepping.End = 1e9
	c, _ := newTestCalculator(b, cfg)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Step()
	}
}
