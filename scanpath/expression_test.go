package scanpath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mhs/model"
)

func TestExpressionPath(t *testing.T) {
	path, err := NewExpressionPath("0.001 * t", "0.002 * sin(pi * t)")
	require.NoError(t, err)

	p, m := path.PositionAndModifier(0.5)
	assert.InDelta(t, 0.0005, p.X, 1e-15)
	assert.InDelta(t, 0.002, p.Y, 1e-15)
	assert.Equal(t, 1.0, m)

	// 位置只依赖时间，Save / Rewind 之后可以重新查询更早的时刻
	path.Save()
	path.PositionAndModifier(2)
	path.Rewind()
	p, _ = path.PositionAndModifier(0.25)
	assert.InDelta(t, 0.00025, p.X, 1e-15)
	assert.InDelta(t, 0.002*math.Sin(math.Pi/4), p.Y, 1e-15)
}

func TestExpressionPath_DefaultOrdinate(t *testing.T) {
	path, err := NewExpressionPath("(t - 1) * (t - 2)", "")
	require.NoError(t, err)
	p, _ := path.PositionAndModifier(3)
	assert.Equal(t, 2.0, p.X)
	assert.Equal(t, 0.0, p.Y)
}

func TestExpressionPath_Errors(t *testing.T) {
	_, err := NewExpressionPath("", "")
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = NewExpressionPath("t +", "")
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = NewExpressionPath("t", "unknown_variable * 2")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
