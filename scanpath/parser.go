package scanpath

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"
	"mhs/model"
)

// 扫描路径文件格式
//
//	Number of path segments
//	3
//	Mode x(m) y(m) z(m) pmod param
//	1 0.0 0.0 0.0 0.0 1e-6
//	0 0.002 0.0 0.0 1.0 0.8
//	1 0.002 0.0 0.0 0.5 0.5
//
// mode 0 为直线，param 为速度；mode 1 为驻留点，param 为持续时间。z 列不使用。
// 驻留点的位置与上一段终点不同时，热源跳到该点后停留 param 时间。

const (
	UnitsMeter      = "m"
	UnitsMillimeter = "mm"

	headerLines = 3
	columns     = 6
)

// 长度单位换算到 m 的系数
func unitScale(units string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "", UnitsMeter:
		return 1, nil
	case UnitsMillimeter:
		return 1e-3, nil
	default:
		return 0, errors.Wrapf(model.ErrConfiguration, "unknown scan path units %q", units)
	}
}

// ParseFile 读取扫描路径文件
func ParseFile(filename, units string) ([]model.PathSegment, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "open scan path %s: %v", filename, err)
	}
	defer f.Close()

	segments, err := Parse(f, units)
	if err != nil {
		return nil, errors.WithMessage(err, filename)
	}
	log.WithFields(log.Fields{
		"file":     filename,
		"units":    units,
		"segments": len(segments),
		"end_time": segments[len(segments)-1].EndTime,
	}).Info("扫描路径加载完成")
	return segments, nil
}

// Parse 解析扫描路径，所有格式错误都在这里返回，不会延迟到计算过程中
func Parse(r io.Reader, units string) ([]model.PathSegment, error) {
	scale, err := unitScale(units)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	expected := -1
	var segments []model.PathSegment
	var prevPoint r2.Vec
	prevTime := 0.0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo <= headerLines {
			if lineNo == 2 {
				n, err := strconv.Atoi(line)
				if err != nil || n <= 0 {
					return nil, errors.Wrapf(model.ErrConfiguration, "line %d: invalid number of segments %q", lineNo, line)
				}
				expected = n
			}
			continue
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < columns {
			return nil, errors.Wrapf(model.ErrConfiguration, "line %d: expected %d columns, got %d", lineNo, columns, len(fields))
		}
		mode, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(model.ErrConfiguration, "line %d: invalid mode %q", lineNo, fields[0])
		}
		var values [columns - 1]float64
		for i := range values {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(model.ErrConfiguration, "line %d: invalid number %q", lineNo, fields[i+1])
			}
			values[i] = v
		}

		point := r2.Vec{X: values[0] * scale, Y: values[1] * scale}
		modifier, param := values[3], values[4]
		if modifier < 0 {
			return nil, errors.Wrapf(model.ErrConfiguration, "line %d: negative power modifier %g", lineNo, modifier)
		}

		var endTime float64
		segmentMode := model.SegmentMode(mode)
		switch segmentMode {
		case model.SegmentLine:
			velocity := param * scale
			if velocity <= 0 {
				return nil, errors.Wrapf(model.ErrConfiguration, "line %d: line segment needs a positive velocity, got %g", lineNo, param)
			}
			endTime = prevTime + r2.Norm(r2.Sub(point, prevPoint))/velocity
		case model.SegmentPoint:
			if param < 0 {
				return nil, errors.Wrapf(model.ErrConfiguration, "line %d: negative point duration %g", lineNo, param)
			}
			endTime = prevTime + param
		default:
			return nil, errors.Wrapf(model.ErrConfiguration, "line %d: unknown segment mode %d", lineNo, mode)
		}
		if endTime <= prevTime && len(segments) > 0 {
			return nil, errors.Wrapf(model.ErrConfiguration, "line %d: %s segment does not advance time (end time %g)", lineNo, segmentMode, endTime)
		}

		segments = append(segments, model.PathSegment{
			Mode:          segmentMode,
			EndTime:       endTime,
			PowerModifier: modifier,
			EndPoint:      point,
		})
		prevPoint, prevTime = point, endTime
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "read scan path: %v", err)
	}
	if expected < 0 {
		return nil, errors.Wrap(model.ErrConfiguration, "scan path header is incomplete")
	}
	if len(segments) != expected {
		return nil, errors.Wrapf(model.ErrConfiguration, "header announces %d segments, found %d", expected, len(segments))
	}
	return segments, nil
}
