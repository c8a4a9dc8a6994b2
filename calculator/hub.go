package calculator

import (
	"sync"

	"mhs/model"
)

type CalcHub struct {
	mu   sync.Mutex
	stop chan struct{}
	// 每完成一个时间步发送一帧
	PeriodCalcResult chan *model.Frame
}

func NewCalcHub() *CalcHub {
	stop := make(chan struct{})
	close(stop)
	return &CalcHub{
		stop:             stop,
		PeriodCalcResult: make(chan *model.Frame),
	}
}

// 热源分布计算结果推送，已停止时返回 false
func (ch *CalcHub) PushSignal(frame *model.Frame) bool {
	stop := ch.Stop()
	select {
	case ch.PeriodCalcResult <- frame:
		return true
	case <-stop:
		return false
	}
}

func (ch *CalcHub) Stop() <-chan struct{} {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.stop
}

func (ch *CalcHub) StopSignal() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	select {
	case <-ch.stop:
	default:
		close(ch.stop)
	}
}

func (ch *CalcHub) StartSignal() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	select {
	case <-ch.stop:
		ch.stop = make(chan struct{})
	default:
	}
}

func (ch *CalcHub) Running() bool {
	select {
	case <-ch.Stop():
		return false
	default:
		return true
	}
}
