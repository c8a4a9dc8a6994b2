package scanpath

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
	"mhs/model"
)

// 游标：当前所在路径段的下标和最近一次查询的时间
type cursor struct {
	segment int
	time    float64
}

// Tracker 按分段路径插值热源中心位置
// 游标只向前移动，查询时间倒退必须先 Rewind
type Tracker struct {
	segments []model.PathSegment

	current cursor
	saved   cursor
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.reset()
	return t
}

// NewTrackerWithSegments 创建并加载路径段
func NewTrackerWithSegments(segments []model.PathSegment) (*Tracker, error) {
	t := NewTracker()
	if err := t.Load(segments); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) reset() {
	t.current = cursor{segment: 0, time: math.Inf(-1)}
	t.saved = t.current
}

// Load 替换路径段，end_time 必须严格递增
func (t *Tracker) Load(segments []model.PathSegment) error {
	if len(segments) == 0 {
		return errors.Wrap(model.ErrConfiguration, "scan path has no segment")
	}
	if segments[0].EndTime < 0 {
		return errors.Wrapf(model.ErrConfiguration, "segment 0 ends before the start time: %g", segments[0].EndTime)
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].EndTime <= segments[i-1].EndTime {
			return errors.Wrapf(model.ErrConfiguration,
				"segment %d end time %g is not after segment %d end time %g",
				i, segments[i].EndTime, i-1, segments[i-1].EndTime)
		}
	}
	t.segments = make([]model.PathSegment, len(segments))
	copy(t.segments, segments)
	t.reset()
	return nil
}

// 第 i 段的起点和起始时间，驻留段从自身的位置开始
func (t *Tracker) segmentStart(i int) (r2.Vec, float64) {
	start, startTime := r2.Vec{}, 0.0
	if i > 0 {
		start, startTime = t.segments[i-1].EndPoint, t.segments[i-1].EndTime
	}
	if t.segments[i].Mode == model.SegmentPoint {
		start = t.segments[i].EndPoint
	}
	return start, startTime
}

// PositionAndModifier 返回 time 时刻的热源中心位置和功率系数
// 早于第一段起始时间时停在第一段的起点，晚于最后一段时停在最后一段的终点，不外推
// 功率系数不插值，取当前段的值
func (t *Tracker) PositionAndModifier(time float64) (r2.Vec, float64) {
	if len(t.segments) == 0 {
		panic(errors.Wrap(model.ErrPrecondition, "scan path queried before any segment was loaded"))
	}
	if time < t.current.time {
		panic(errors.Wrapf(model.ErrPrecondition,
			"scan path queried at %g after %g without rewind", time, t.current.time))
	}
	t.current.time = time

	last := len(t.segments) - 1
	for t.current.segment < last && t.segments[t.current.segment].EndTime < time {
		t.current.segment++
	}

	seg := t.segments[t.current.segment]
	if time >= seg.EndTime {
		return seg.EndPoint, seg.PowerModifier
	}
	start, startTime := t.segmentStart(t.current.segment)
	if time <= startTime {
		return start, seg.PowerModifier
	}
	duration := seg.EndTime - startTime
	if duration <= 0 {
		return seg.EndPoint, seg.PowerModifier
	}
	ratio := (time - startTime) / duration
	return r2.Add(start, r2.Scale(ratio, r2.Sub(seg.EndPoint, start))), seg.PowerModifier
}

// Save 保存游标，用于时间步被拒绝后重算
func (t *Tracker) Save() {
	t.saved = t.current
}

// Rewind 恢复到上一次 Save 的游标
func (t *Tracker) Rewind() {
	t.current = t.saved
}
