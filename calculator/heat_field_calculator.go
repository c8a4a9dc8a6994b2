package calculator

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/ini.v1"
	"mhs/deque"
	"mhs/heatsource"
	"mhs/model"
)

type checkpoint struct {
	time     float64
	advanced bool
	field    []float64
}

// HeatFieldCalculator 按固定时间步推进热源并在网格上并行采样生热率
// Advance / Step / Checkpoint / Rollback 只能由一个协程调用
type HeatFieldCalculator struct {
	mu       sync.Mutex
	source   Source
	grid     model.Grid
	stepping model.Stepping

	// [z][y][x] 展开后的网格点与生热率
	points []r3.Vec
	field  []float64

	time     float64
	advanced bool
	saved    *checkpoint

	history deque.Deque
	e       executor
	calcHub *CalcHub
}

func NewCalculator(source Source, cfg Config) *HeatFieldCalculator {
	c := &HeatFieldCalculator{
		source:   source,
		grid:     cfg.Grid,
		stepping: cfg.Stepping,
		points:   GridPoints(cfg.Grid),
		field:    make([]float64, cfg.Grid.Size()),
		time:     cfg.Stepping.Start,
		history:  deque.NewArrDeque(cfg.History),
		e:        newExecutorBaseOnSlice(cfg.Workers),
		calcHub:  NewCalcHub(),
	}
	c.e.run(c.calculate)
	log.WithFields(log.Fields{
		"points":  len(c.points),
		"workers": cfg.Workers,
		"start":   cfg.Stepping.Start,
		"end":     cfg.Stepping.End,
		"step":    cfg.Stepping.Step,
	}).Info("计算器创建完成")
	return c
}

// NewCalculatorFromIni 根据同一个 ini 创建热源和计算器，dir 为扫描路径相对路径的基准
func NewCalculatorFromIni(file *ini.File, dir string) (*HeatFieldCalculator, error) {
	cfg, err := LoadConfig(file)
	if err != nil {
		return nil, err
	}
	sources, err := heatsource.Load(file, dir)
	if err != nil {
		return nil, err
	}
	var maxPower float64
	for _, p := range sources.Properties() {
		maxPower += p.MaxPower
	}
	log.WithFields(log.Fields{
		"beams":     sources.Len(),
		"max_power": maxPower,
	}).Info("热源加载完成")
	if depth := sources.Depth(); depth > cfg.Grid.Thickness {
		log.WithFields(log.Fields{
			"depth":     depth,
			"thickness": cfg.Grid.Thickness,
		}).Warn("采样厚度小于热源作用深度，深处的热量不会被采样")
	}
	return NewCalculator(sources, cfg), nil
}

func NewCalculatorFromFile(filename string) (*HeatFieldCalculator, error) {
	file, err := ini.Load(filename)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "load %s: %v", filename, err)
	}
	return NewCalculatorFromIni(file, filepath.Dir(filename))
}

func linspace(lo, hi float64, n, i int) float64 {
	if n == 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

// GridPoints 按 [z][y][x] 顺序展开网格点，z 从表面向下
func GridPoints(g model.Grid) []r3.Vec {
	points := make([]r3.Vec, 0, g.Size())
	for k := 0; k < g.NZ; k++ {
		z := g.Height - linspace(0, g.Thickness, g.NZ, k)
		for j := 0; j < g.NY; j++ {
			y := linspace(g.YMin, g.YMax, g.NY, j)
			for i := 0; i < g.NX; i++ {
				points = append(points, r3.Vec{X: linspace(g.XMin, g.XMax, g.NX, i), Y: y, Z: z})
			}
		}
	}
	return points
}

// worker 调用，只读热源状态
func (c *HeatFieldCalculator) calculate(t task) {
	for i := t.start; i < t.end; i++ {
		c.field[i] = c.source.Evaluate(c.points[i], c.grid.Height)
	}
}

func (c *HeatFieldCalculator) Advance(time float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(time)
}

func (c *HeatFieldCalculator) advance(time float64) {
	c.source.Advance(time)
	c.time = time
	c.advanced = true
	duration := c.e.dispatchTask(0, len(c.points))

	stepsTotal.Inc()
	sampleDuration.Observe(duration.Seconds())
	simulationTime.Set(time)
	for i, p := range c.source.Powers() {
		beamPower.WithLabelValues(strconv.Itoa(i)).Set(p)
	}
	c.history.AddLast(c.buildFrame())
}

func (c *HeatFieldCalculator) Step() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.stepping.Start
	if c.advanced {
		next = c.time + c.stepping.Step
	}
	// 累加误差
	if next > c.stepping.End+c.stepping.Step*1e-6 {
		return false
	}
	c.advance(next)
	return true
}

func (c *HeatFieldCalculator) Time() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *HeatFieldCalculator) Checkpoint() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source.Save()
	if c.saved == nil {
		c.saved = &checkpoint{field: make([]float64, len(c.field))}
	}
	c.saved.time = c.time
	c.saved.advanced = c.advanced
	copy(c.saved.field, c.field)
}

func (c *HeatFieldCalculator) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saved == nil {
		return errors.Wrap(model.ErrPrecondition, "rollback without checkpoint")
	}
	c.source.Rewind()
	c.time = c.saved.time
	c.advanced = c.saved.advanced
	copy(c.field, c.saved.field)
	c.history.TruncateAfter(c.time)

	rollbacksTotal.Inc()
	simulationTime.Set(c.time)
	log.WithField("time", c.time).Info("回退到检查点")
	return nil
}

func (c *HeatFieldCalculator) BuildData() *model.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildFrame()
}

func (c *HeatFieldCalculator) buildFrame() *model.Frame {
	layer := c.grid.NX * c.grid.NY
	field := make([][]float64, c.grid.NZ)
	var peak float64
	for k := range field {
		field[k] = append([]float64(nil), c.field[k*layer:(k+1)*layer]...)
		for _, v := range field[k] {
			if v > peak {
				peak = v
			}
		}
	}
	frame := &model.Frame{
		Time:  c.time,
		Max:   peak,
		Grid:  c.grid,
		Field: field,
	}
	if c.advanced {
		frame.Centers = c.source.Centers()
		frame.Power = c.source.Powers()
	}
	return frame
}

// Evaluate 当前时刻单点的生热率
func (c *HeatFieldCalculator) Evaluate(point r3.Vec) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source.Evaluate(point, c.grid.Height)
}

// 最近一次推进生成的帧，帧生成后不再修改
func (c *HeatFieldCalculator) latest() *model.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Last()
}

func (c *HeatFieldCalculator) History() []*model.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := make([]*model.Frame, 0, c.history.Size())
	c.history.Traverse(func(_ int, item *model.Frame) {
		frames = append(frames, item)
	})
	return frames
}

func (c *HeatFieldCalculator) GetCalcHub() *CalcHub {
	return c.calcHub
}

// Run 从当前时刻推进到结束时间，每一步通过 CalcHub 推送一帧，收到停止信号后返回
// 调用前先 StartSignal
func (c *HeatFieldCalculator) Run() {
	stop := c.calcHub.Stop()
	log.WithField("time", c.Time()).Info("开始计算")
	count := 0
LOOP:
	for {
		select {
		case <-stop:
			break LOOP
		default:
		}
		if !c.Step() {
			c.calcHub.StopSignal()
			break
		}
		count++
		if !c.calcHub.PushSignal(c.latest()) {
			break
		}
	}
	log.WithFields(log.Fields{
		"time":  c.Time(),
		"steps": count,
	}).Info("计算结束")
}

func (c *HeatFieldCalculator) Close() {
	c.calcHub.StopSignal()
	c.e.stop()
}
