package scanpath

import (
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
	"mhs/model"
)

// 表达式中可以使用的变量和函数
type pathEnv struct {
	T    float64                        `expr:"t"`
	Pi   float64                        `expr:"pi"`
	Sin  func(float64) float64          `expr:"sin"`
	Cos  func(float64) float64          `expr:"cos"`
	Sqrt func(float64) float64          `expr:"sqrt"`
	Exp  func(float64) float64          `expr:"exp"`
	Pow  func(float64, float64) float64 `expr:"pow"`
}

func newPathEnv(t float64) pathEnv {
	return pathEnv{
		T:    t,
		Pi:   math.Pi,
		Sin:  math.Sin,
		Cos:  math.Cos,
		Sqrt: math.Sqrt,
		Exp:  math.Exp,
		Pow:  math.Pow,
	}
}

// ExpressionPath 热源中心由时间 t 的解析表达式给出，功率系数恒为 1
// 位置只依赖 t，没有游标，Save / Rewind 不需要做任何事
type ExpressionPath struct {
	abscissa *vm.Program
	ordinate *vm.Program
}

// NewExpressionPath 编译横坐标和纵坐标表达式，纵坐标为空时取 0
func NewExpressionPath(abscissa, ordinate string) (*ExpressionPath, error) {
	if abscissa == "" {
		return nil, errors.Wrap(model.ErrConfiguration, "missing key \"abscissa\"")
	}
	if ordinate == "" {
		ordinate = "0"
	}
	x, err := compile(abscissa)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "abscissa %q: %v", abscissa, err)
	}
	y, err := compile(ordinate)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "ordinate %q: %v", ordinate, err)
	}
	p := &ExpressionPath{abscissa: x, ordinate: y}
	// 先试算一次，表达式的运行错误在加载时暴露
	if _, err := p.eval(p.abscissa, 0); err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "abscissa %q: %v", abscissa, err)
	}
	if _, err := p.eval(p.ordinate, 0); err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "ordinate %q: %v", ordinate, err)
	}
	return p, nil
}

func compile(input string) (*vm.Program, error) {
	return expr.Compile(input, expr.Env(pathEnv{}), expr.AsFloat64())
}

func (p *ExpressionPath) eval(program *vm.Program, t float64) (float64, error) {
	out, err := expr.Run(program, newPathEnv(t))
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

func (p *ExpressionPath) PositionAndModifier(time float64) (r2.Vec, float64) {
	x, err := p.eval(p.abscissa, time)
	if err != nil {
		panic(errors.Wrapf(model.ErrPrecondition, "abscissa at t=%g: %v", time, err))
	}
	y, err := p.eval(p.ordinate, time)
	if err != nil {
		panic(errors.Wrapf(model.ErrPrecondition, "ordinate at t=%g: %v", time, err))
	}
	return r2.Vec{X: x, Y: y}, 1
}

func (p *ExpressionPath) Save() {}

func (p *ExpressionPath) Rewind() {}
