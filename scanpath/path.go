// Package scanpath 将扫描路径 / 搅拌头路径转换为随时间连续变化的热源中心位置和功率系数
package scanpath

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// BeamPath 热源中心轨迹
// PositionAndModifier 只能由热源的 Advance 调用，查询时间单调不减，除非调用了 Rewind
type BeamPath interface {
	// 返回 time 时刻热源中心的位置和功率系数
	PositionAndModifier(time float64) (r2.Vec, float64)

	// 保存当前游标
	Save()

	// 恢复到上一次保存的游标
	Rewind()
}
