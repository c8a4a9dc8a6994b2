package deque

import (
	"mhs/model"
)

type ArrDeque struct {
	arr []*model.Frame
	// 头部元素下标
	start int
	// 元素个数
	size int
}

// 工厂方法
func NewArrDeque(capacity int) *ArrDeque {
	if capacity < 1 {
		capacity = 1
	}
	return &ArrDeque{
		arr: make([]*model.Frame, capacity),
	}
}

func (ad *ArrDeque) index(i int) int {
	return (ad.start + i) % len(ad.arr)
}

func (ad *ArrDeque) Size() int {
	return ad.size
}

func (ad *ArrDeque) Get(i int) *model.Frame {
	if i < 0 || i >= ad.size {
		panic("index out of length")
	}
	return ad.arr[ad.index(i)]
}

func (ad *ArrDeque) Last() *model.Frame {
	if ad.size == 0 {
		return nil
	}
	return ad.arr[ad.index(ad.size-1)]
}

func (ad *ArrDeque) Traverse(f func(i int, item *model.Frame)) {
	for i := 0; i < ad.size; i++ {
		f(i, ad.arr[ad.index(i)])
	}
}

func (ad *ArrDeque) AddLast(item *model.Frame) {
	if ad.IsFull() {
		ad.RemoveFirst()
	}
	ad.arr[ad.index(ad.size)] = item
	ad.size++
}

func (ad *ArrDeque) RemoveLast() {
	if ad.size == 0 {
		return
	}
	ad.arr[ad.index(ad.size-1)] = nil
	ad.size--
}

func (ad *ArrDeque) RemoveFirst() {
	if ad.size == 0 {
		return
	}
	ad.arr[ad.start] = nil
	ad.start = (ad.start + 1) % len(ad.arr)
	ad.size--
}

func (ad *ArrDeque) TruncateAfter(time float64) {
	for ad.size > 0 && ad.Last().Time > time {
		ad.RemoveLast()
	}
}

func (ad *ArrDeque) IsFull() bool {
	return ad.size == len(ad.arr)
}

func (ad *ArrDeque) IsEmpty() bool {
	return ad.size == 0
}
