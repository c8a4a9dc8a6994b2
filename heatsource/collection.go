package heatsource

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"mhs/model"
)

// Collection 多个热源同时工作，生热率叠加
type Collection struct {
	sources []HeatSource
}

func NewCollection(sources ...HeatSource) *Collection {
	return &Collection{sources: sources}
}

func (c *Collection) Len() int {
	return len(c.sources)
}

func (c *Collection) Advance(time float64) {
	for _, s := range c.sources {
		s.Advance(time)
	}
}

func (c *Collection) Evaluate(point r3.Vec, height float64) float64 {
	var value float64
	for _, s := range c.sources {
		value += s.Evaluate(point, height)
	}
	return value
}

func (c *Collection) Save() {
	for _, s := range c.sources {
		s.Save()
	}
}

func (c *Collection) Rewind() {
	for _, s := range c.sources {
		s.Rewind()
	}
}

// 各热源中心
func (c *Collection) Centers() []r2.Vec {
	centers := make([]r2.Vec, len(c.sources))
	for i, s := range c.sources {
		centers[i] = s.Center()
	}
	return centers
}

// 各热源当前功率
func (c *Collection) Powers() []float64 {
	powers := make([]float64, len(c.sources))
	for i, s := range c.sources {
		powers[i] = s.Power()
	}
	return powers
}

// 最大作用深度
func (c *Collection) Depth() float64 {
	var depth float64
	for _, s := range c.sources {
		if d := s.Properties().Depth; d > depth {
			depth = d
		}
	}
	return depth
}

// Properties 返回各热源的物性参数
func (c *Collection) Properties() []model.HeatSourceProperties {
	props := make([]model.HeatSourceProperties, len(c.sources))
	for i, s := range c.sources {
		props[i] = s.Properties()
	}
	return props
}
