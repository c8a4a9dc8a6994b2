package model

import (
	"github.com/pkg/errors"
	"math"
)

// 错误类型
var (
	// ErrConfiguration 参数缺失、取值非法或扫描路径文件格式错误，构造/加载时返回
	ErrConfiguration = errors.New("heat source: configuration error")

	// ErrPrecondition 调用顺序错误，例如未加载路径就查询、时间倒退且未 rewind
	ErrPrecondition = errors.New("heat source: precondition violation")
)

// 全局变量

// ln(0.1)，高斯分布在半径处衰减到 10%
var Log01 = math.Log(0.1)

const TwoPi = 2 * math.Pi
