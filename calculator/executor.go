package calculator

import (
	"sync"
	"time"
)

type executor interface {
	run(f func(t task))
	dispatchTask(first, last int) time.Duration
	stop()
}

// 基于网格点区间的任务分配，每个 worker 每轮最多领取两个任务
type executorBaseOnSlice struct {
	dispatchChan chan task
	workers      int

	doneSoFar chan struct{}
	once      sync.Once
}

type task struct {
	start int
	end   int
}

func newExecutorBaseOnSlice(workers int) *executorBaseOnSlice {
	if workers < 1 {
		workers = 1
	}
	return &executorBaseOnSlice{
		dispatchChan: make(chan task, workers*2),
		workers:      workers,
		doneSoFar:    make(chan struct{}, workers*2),
	}
}

func (e *executorBaseOnSlice) dispatchTask(first, last int) time.Duration {
	start := time.Now()
	total := last - first
	if total <= 0 {
		return time.Since(start)
	}
	taskLen := (total + e.workers*2 - 1) / (e.workers * 2)
	totalTasks := 0
	for s := first; s < last; s += taskLen {
		e.dispatchChan <- task{start: s, end: min(s+taskLen, last)}
		totalTasks++
	}
	for i := 0; i < totalTasks; i++ {
		<-e.doneSoFar
	}
	return time.Since(start)
}

func (e *executorBaseOnSlice) run(f func(t task)) {
	for i := 0; i < e.workers; i++ {
		go func() {
			for t := range e.dispatchChan {
				f(t)
				e.doneSoFar <- struct{}{}
			}
		}()
	}
}

func (e *executorBaseOnSlice) stop() {
	e.once.Do(func() {
		close(e.dispatchChan)
	})
}
