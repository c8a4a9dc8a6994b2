package model

import "gonum.org/v1/gonum/spatial/r2"

// 扫描路径段类型
type SegmentMode int

const (
	SegmentLine  SegmentMode = 0 // 直线移动，参数为速度
	SegmentPoint SegmentMode = 1 // 驻留点，参数为持续时间
)

func (m SegmentMode) String() string {
	switch m {
	case SegmentLine:
		return "line"
	case SegmentPoint:
		return "point"
	default:
		return "unknown"
	}
}

// 扫描路径段
// 直线段的起点为上一段的终点（第一段从原点、0 时刻开始）
// 驻留段的起点就是它的终点，与上一段终点不同时热源在段首跳到该点
type PathSegment struct {
	Mode          SegmentMode `json:"mode"`
	EndTime       float64     `json:"end_time"`       // 单位: s
	PowerModifier float64     `json:"power_modifier"` // 无量纲
	EndPoint      r2.Vec      `json:"end_point"`      // 单位: m
}

// 热源物性参数，所有热源共用
type HeatSourceProperties struct {
	Depth                float64 `json:"depth"`                 // 穿透深度 / 搅拌头深度, m
	AbsorptionEfficiency float64 `json:"absorption_efficiency"` // 吸收效率 [0, 1]
	Diameter             float64 `json:"diameter"`              // 直径, m
	MaxPower             float64 `json:"max_power"`             // 最大功率, W
}

// 半径的平方
func (p HeatSourceProperties) RadiusSquared() float64 {
	r := p.Diameter / 2
	return r * r
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// 采样网格，单位 m
type Grid struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
	NX   int     `json:"nx"`
	NY   int     `json:"ny"`
	NZ   int     `json:"nz"`
	// 表面高度
	Height float64 `json:"height"`
	// z 方向采样深度，从表面向下
	Thickness float64 `json:"thickness"`
}

// 网格点总数
func (g Grid) Size() int {
	return g.NX * g.NY * g.NZ
}

// 时间推进参数，单位 s
type Stepping struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Step  float64 `json:"step"`
}

// 某一时刻的热源分布，推送到前端
type Frame struct {
	Time    float64     `json:"time"`
	Centers []r2.Vec    `json:"centers"`
	Power   []float64   `json:"power"`
	Max     float64     `json:"max"`
	Grid    Grid        `json:"grid"`
	Field   [][]float64 `json:"field"` // [z][y*nx+x]
}
