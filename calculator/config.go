package calculator

import (
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"mhs/model"
)

type Config struct {
	Grid     model.Grid
	Stepping model.Stepping
	// 并行计算的 worker 数量
	Workers int
	// 保留的历史帧数
	History int
}

// LoadConfig 读取 [grid] [time] [calculator] 三个配置节，缺省值对应一个 2cm x 2cm 的区域
func LoadConfig(file *ini.File) (Config, error) {
	grid := file.Section("grid")
	stepping := file.Section("time")
	calc := file.Section("calculator")
	cfg := Config{
		Grid: model.Grid{
			XMin:      grid.Key("x_min").MustFloat64(-0.01),
			XMax:      grid.Key("x_max").MustFloat64(0.01),
			YMin:      grid.Key("y_min").MustFloat64(-0.01),
			YMax:      grid.Key("y_max").MustFloat64(0.01),
			NX:        grid.Key("nx").MustInt(41),
			NY:        grid.Key("ny").MustInt(41),
			NZ:        grid.Key("nz").MustInt(5),
			Height:    grid.Key("height").MustFloat64(0),
			Thickness: grid.Key("thickness").MustFloat64(0.002),
		},
		Stepping: model.Stepping{
			Start: stepping.Key("start").MustFloat64(0),
			End:   stepping.Key("end").MustFloat64(1),
			Step:  stepping.Key("step").MustFloat64(0.01),
		},
		Workers: calc.Key("workers").MustInt(runtime.NumCPU()),
		History: calc.Key("history").MustInt(16),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	g := c.Grid
	switch {
	case g.NX < 1 || g.NY < 1 || g.NZ < 1:
		return errors.Wrapf(model.ErrConfiguration, "grid: nx, ny and nz must be positive, got %d %d %d", g.NX, g.NY, g.NZ)
	case g.XMax < g.XMin:
		return errors.Wrapf(model.ErrConfiguration, "grid: x_max %g is smaller than x_min %g", g.XMax, g.XMin)
	case g.YMax < g.YMin:
		return errors.Wrapf(model.ErrConfiguration, "grid: y_max %g is smaller than y_min %g", g.YMax, g.YMin)
	case g.Thickness < 0:
		return errors.Wrapf(model.ErrConfiguration, "grid: thickness must be non-negative, got %g", g.Thickness)
	case c.Stepping.Step <= 0:
		return errors.Wrapf(model.ErrConfiguration, "time: step must be positive, got %g", c.Stepping.Step)
	case c.Stepping.End < c.Stepping.Start:
		return errors.Wrapf(model.ErrConfiguration, "time: end %g is before start %g", c.Stepping.End, c.Stepping.Start)
	case c.Workers < 1:
		return errors.Wrapf(model.ErrConfiguration, "calculator: workers must be positive, got %d", c.Workers)
	case c.History < 1:
		return errors.Wrapf(model.ErrConfiguration, "calculator: history must be positive, got %d", c.History)
	}
	return nil
}
