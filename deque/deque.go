/**
 *
 * 利用环形数组实现双端队列，保存最近若干时刻的热源分布
 * 队列满时从头部淘汰最旧的一帧，回退时从尾部删除检查点之后的帧
 *
 */

package deque

import "mhs/model"

type Deque interface {
	// 队列的长度
	Size() int

	// 获取队列中对应下标的帧，0 为最旧的一帧
	Get(i int) *model.Frame

	// 最新的一帧
	Last() *model.Frame

	// 正向遍历
	Traverse(f func(i int, item *model.Frame))

	// 在队列结尾增加一个元素，队列满时淘汰头部元素
	AddLast(item *model.Frame)

	// 在队列结尾删除一个元素
	RemoveLast()

	// 在队列头部删除一个元素
	RemoveFirst()

	// 删除尾部所有时间晚于 time 的帧
	TruncateAfter(time float64)

	IsFull() bool

	IsEmpty() bool
}
