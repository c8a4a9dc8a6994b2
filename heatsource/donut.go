package heatsource

import (
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"mhs/model"
	"mhs/scanpath"
)

// PinCoreHeat 搅拌针下方（内半径以内）的生热率：不产热
const PinCoreHeat = 0.0

// 转速单位
const (
	RotationRadPerSecond = "rad/s"
	RotationRPM          = "rpm"
)

// 默认参数
const (
	DefaultAbsorptionEfficiency = 0.8
	DefaultForce                = 4900.0 // N
	DefaultHeatModifier         = 1.0
)

// 旋转环形热源的时间相关状态
type donutState struct {
	clock
	center r2.Vec
	angle  float64 // 搅拌头当前转角 [0, 2pi)
	alpha  float64 // 峰值强度, W/m³
	power  float64
}

// Donut 旋转环形热源，用于搅拌摩擦焊 / 搅拌摩擦增材
//
// 机械功率 P = F * (D / 2) * omega，输入热量按对数衰减归一化：
//
//	alpha = -ln(0.1) * eta * P * pmod / (pi * sigma² * depth)
//	q = alpha * k * exp(ln(0.1) * r² / sigma²) * (1 - 2u - 3u²)
//
// k 为前进侧 / 后退侧系数。相对转角在 [-pi/2, pi/2] 内为前进侧，
// 转角以热源中心为原点、从 +x 轴起算；转速为 0 时前进侧固定为 +x 半平面。
type Donut struct {
	name               string
	properties         model.HeatSourceProperties
	innerRadiusSquared float64
	sigmaSquared       float64
	angularVelocity    float64 // rad/s
	advancingModifier  float64
	retreatingModifier float64
	force              float64
	path               scanpath.BeamPath

	state donutState
	saved donutState
}

func newDonut(cfg Config, path scanpath.BeamPath) (HeatSource, error) {
	return NewDonut(cfg, path)
}

// NewDonut 创建旋转环形热源
func NewDonut(cfg Config, path scanpath.BeamPath) (*Donut, error) {
	properties, err := cfg.properties()
	if err != nil {
		return nil, err
	}
	omega, err := angularVelocity(cfg.RotationSpeed, cfg.RotationUnits)
	if err != nil {
		return nil, errors.WithMessage(err, cfg.Name)
	}
	checks := []struct {
		key   string
		value float64
	}{
		{"inner_radius", cfg.InnerRadius},
		{"force", cfg.Force},
		{"sigma", cfg.Sigma},
		{"advancing_heat_modifier", cfg.AdvancingHeatModifier},
		{"retreating_heat_modifier", cfg.RetreatingHeatModifier},
	}
	for _, c := range checks {
		if c.value < 0 || math.IsNaN(c.value) {
			return nil, errors.Wrapf(model.ErrConfiguration, "%s: %s must be non-negative, got %g", cfg.Name, c.key, c.value)
		}
	}
	if cfg.InnerRadius > properties.Diameter/2 {
		return nil, errors.Wrapf(model.ErrConfiguration, "%s: inner_radius %g is larger than the tool radius %g",
			cfg.Name, cfg.InnerRadius, properties.Diameter/2)
	}

	sigma := cfg.Sigma
	if sigma == 0 {
		sigma = properties.Diameter / 2
	}
	d := &Donut{
		name:               cfg.Name,
		properties:         properties,
		innerRadiusSquared: cfg.InnerRadius * cfg.InnerRadius,
		sigmaSquared:       sigma * sigma,
		angularVelocity:    omega,
		advancingModifier:  cfg.AdvancingHeatModifier,
		retreatingModifier: cfg.RetreatingHeatModifier,
		force:              cfg.Force,
		path:               path,
	}
	d.properties.MaxPower = d.mechanicalPower()
	if cfg.PrintDiagnostics {
		log.WithFields(log.Fields{
			"source":                   cfg.Name,
			"depth":                    properties.Depth,
			"diameter":                 properties.Diameter,
			"inner_radius":             cfg.InnerRadius,
			"sigma":                    sigma,
			"angular_velocity":         omega,
			"force":                    cfg.Force,
			"mechanical_power":         d.properties.MaxPower,
			"advancing_heat_modifier":  cfg.AdvancingHeatModifier,
			"retreating_heat_modifier": cfg.RetreatingHeatModifier,
			"peak":                     d.peak(1),
		}).Info("旋转环形热源参数")
	}
	return d, nil
}

// 转速换算为 rad/s
func angularVelocity(speed float64, units string) (float64, error) {
	switch units {
	case "", RotationRadPerSecond:
		return speed, nil
	case RotationRPM:
		return speed * model.TwoPi / 60, nil
	default:
		return 0, errors.Wrapf(model.ErrConfiguration, "unknown rotation_units %q", units)
	}
}

// 机械功率 = 扭矩 * 角速度，扭矩 = 压力 * 半径
func (d *Donut) mechanicalPower() float64 {
	torque := d.force * d.properties.Diameter / 2
	return torque * math.Abs(d.angularVelocity)
}

// 峰值强度由机械功率推出，保证空间分布的积分与输入功率一致
func (d *Donut) peak(modifier float64) float64 {
	if d.sigmaSquared <= 0 || d.properties.Depth <= 0 {
		return 0
	}
	return -model.Log01 * d.properties.AbsorptionEfficiency * d.properties.MaxPower * modifier /
		(math.Pi * d.sigmaSquared * d.properties.Depth)
}

// 转角取 [0, 2pi)
func wrapAngle(angle float64) float64 {
	angle = math.Mod(angle, model.TwoPi)
	if angle < 0 {
		angle += model.TwoPi
	}
	// 极小的负数加上 2pi 后舍入为 2pi
	if angle >= model.TwoPi {
		angle = 0
	}
	return angle
}

// 相对转角取 (-pi, pi]
func relativeAngle(angle float64) float64 {
	angle = math.Remainder(angle, model.TwoPi)
	if angle <= -math.Pi {
		angle += model.TwoPi
	}
	return angle
}

func (d *Donut) Advance(time float64) {
	d.state.advance(d.name, time)
	center, modifier := d.path.PositionAndModifier(time)
	d.state.center = center
	d.state.angle = wrapAngle(d.angularVelocity * time)
	d.state.alpha = d.peak(modifier)
	d.state.power = d.properties.AbsorptionEfficiency * d.properties.MaxPower * modifier
}

func (d *Donut) Evaluate(point r3.Vec, height float64) float64 {
	d.state.mustBeAdvanced(d.name)
	z := point.Z - height
	if outsideDepth(z, d.properties.Depth) {
		return 0
	}
	dx := point.X - d.state.center.X
	dy := point.Y - d.state.center.Y
	distance := dx*dx + dy*dy
	if distance < d.innerRadiusSquared {
		return PinCoreHeat
	}
	if d.state.alpha == 0 {
		return 0
	}
	return d.state.alpha * d.sideModifier(dx, dy) *
		math.Exp(model.Log01*distance/d.sigmaSquared) * depthDistribution(z, d.properties.Depth)
}

// 以热源中心为原点，(dx, dy) 是否在前进侧
func (d *Donut) advancingSide(dx, dy float64) bool {
	rel := relativeAngle(math.Atan2(dy, dx) - d.state.angle)
	return rel >= -math.Pi/2 && rel <= math.Pi/2
}

func (d *Donut) sideModifier(dx, dy float64) float64 {
	if d.advancingSide(dx, dy) {
		return d.advancingModifier
	}
	return d.retreatingModifier
}

// Advancing 判断 point 当前是否在前进侧
func (d *Donut) Advancing(point r3.Vec) bool {
	d.state.mustBeAdvanced(d.name)
	return d.advancingSide(point.X-d.state.center.X, point.Y-d.state.center.Y)
}

// 当前转角
func (d *Donut) Angle() float64 {
	return d.state.angle
}

func (d *Donut) Save() {
	d.path.Save()
	d.saved = d.state
}

func (d *Donut) Rewind() {
	d.path.Rewind()
	d.state = d.saved
}

func (d *Donut) Properties() model.HeatSourceProperties {
	return d.properties
}

func (d *Donut) Center() r2.Vec {
	return d.state.center
}

func (d *Donut) Power() float64 {
	return d.state.power
}
