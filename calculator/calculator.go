package calculator

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"mhs/model"
)

// calculator 的接口定义

type Calculator interface {
	// 构建当前时刻的推送数据
	BuildData() *model.Frame

	// 获取CalcHub
	GetCalcHub() *CalcHub

	// 推进到指定时刻并重新采样
	Advance(time float64)

	// 推进一个时间步，超过结束时间时返回 false
	Step() bool

	// 保存检查点 / 回退到检查点
	Checkpoint()
	Rollback() error

	// 最近的若干帧，按时间排序
	History() []*model.Frame

	// 运行
	Run()

	// 释放计算协程
	Close()
}

// Source 被采样的热源，通常为 *heatsource.Collection
type Source interface {
	Advance(time float64)
	Evaluate(point r3.Vec, height float64) float64
	Save()
	Rewind()
	Centers() []r2.Vec
	Powers() []float64
}
