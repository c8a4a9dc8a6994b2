// Package heatsource 移动热源模型：给定热源中心的运动轨迹，计算任意点、任意时刻的体积生热率。
//
// 使用方式（单写多读）：每个时间步先调用一次 Advance(t)，然后在组装过程中对每个积分点调用 Evaluate。
// Evaluate 只读取 Advance 缓存的状态，不修改任何东西，可以被多个 goroutine 同时调用，
// 前提是 Advance / Save / Rewind 不与之并发。
package heatsource

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"mhs/model"
	"mhs/scanpath"
)

// HeatSource 热源的接口定义
type HeatSource interface {
	// 推进到 time 时刻，更新热源中心和瞬时功率
	Advance(time float64)

	// 计算 point 处的体积生热率，height 为当前表面高度
	Evaluate(point r3.Vec, height float64) float64

	// 保存 / 恢复时间状态，用于自适应时间步被拒绝后重算
	Save()
	Rewind()

	// 物性参数
	Properties() model.HeatSourceProperties

	// 当前热源中心
	Center() r2.Vec

	// 当前输入功率（已乘吸收效率和功率系数），W
	Power() float64
}

// 热源类型名称，对应配置中的 type
const (
	TypeGaussian = "gaussian"
	TypeDonut    = "donut"
)

// 热源工厂，类型名 => 构造函数
var allocators = map[string]func(cfg Config, path scanpath.BeamPath) (HeatSource, error){
	TypeGaussian:    newGaussian,
	"electron_beam": newGaussian,
	TypeDonut:       newDonut,
}

// Types 返回支持的热源类型
func Types() []string {
	names := make([]string, 0, len(allocators))
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewWithPath 根据配置的类型创建热源
func NewWithPath(cfg Config, path scanpath.BeamPath) (HeatSource, error) {
	if path == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "%s: heat source has no scan path", cfg.Name)
	}
	allocator, ok := allocators[cfg.Type]
	if !ok {
		return nil, errors.Wrapf(model.ErrConfiguration, "%s: heat source type %q is not available, expected one of %v",
			cfg.Name, cfg.Type, Types())
	}
	return allocator(cfg, path)
}

// New 创建扫描路径和热源
func New(cfg Config) (HeatSource, error) {
	path, err := cfg.NewPath()
	if err != nil {
		return nil, err
	}
	return NewWithPath(cfg, path)
}

// 深度方向分布: 1 - 2u - 3u², u = z / depth
// 表面处为 1，z = -depth 处为 0，在 [-depth, 0] 上积分为 depth
func depthDistribution(z, depth float64) float64 {
	u := z / depth
	return 1 - 2*u - 3*u*u
}

// 深度方向的截断：低于热源作用深度或高于表面都没有热量
func outsideDepth(z, depth float64) bool {
	return z+depth < 0 || z > 0
}

// 两个热源共用的时间状态检查
type clock struct {
	time     float64
	advanced bool
}

func (c *clock) advance(name string, time float64) {
	if c.advanced && time < c.time {
		panic(errors.Wrapf(model.ErrPrecondition, "%s advanced from %g back to %g without rewind", name, c.time, time))
	}
	c.time = time
	c.advanced = true
}

func (c *clock) mustBeAdvanced(name string) {
	if !c.advanced {
		panic(errors.Wrapf(model.ErrPrecondition, "%s evaluated before the first advance", name))
	}
}
