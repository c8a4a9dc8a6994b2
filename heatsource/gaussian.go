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

// 高斯热源（电子束 / 激光）的时间相关状态
type gaussianState struct {
	clock
	center r2.Vec
	alpha  float64 // 峰值强度, W/m³
	power  float64
}

// Gaussian 径向对称、深度方向二次衰减的高斯热源
//
//	q = alpha * exp(ln(0.1) * r² / R²) * (1 - 2u - 3u²),  u = z / depth
//	alpha = -ln(0.1) * eta * P * pmod / (pi * R² * depth)
//
// alpha 的取法使 q 在整个作用区域上的积分等于 eta * P * pmod
type Gaussian struct {
	name          string
	properties    model.HeatSourceProperties
	radiusSquared float64
	path          scanpath.BeamPath

	state gaussianState
	saved gaussianState
}

func newGaussian(cfg Config, path scanpath.BeamPath) (HeatSource, error) {
	return NewGaussian(cfg, path)
}

// NewGaussian 创建高斯热源
func NewGaussian(cfg Config, path scanpath.BeamPath) (*Gaussian, error) {
	properties, err := cfg.properties()
	if err != nil {
		return nil, err
	}
	if properties.MaxPower < 0 {
		return nil, errors.Wrapf(model.ErrConfiguration, "%s: max_power must be non-negative, got %g", cfg.Name, properties.MaxPower)
	}
	g := &Gaussian{
		name:          cfg.Name,
		properties:    properties,
		radiusSquared: properties.RadiusSquared(),
		path:          path,
	}
	if cfg.PrintDiagnostics {
		log.WithFields(log.Fields{
			"source":                cfg.Name,
			"depth":                 properties.Depth,
			"diameter":              properties.Diameter,
			"absorption_efficiency": properties.AbsorptionEfficiency,
			"max_power":             properties.MaxPower,
			"peak":                  g.peak(1),
		}).Info("高斯热源参数")
	}
	return g, nil
}

// 功率系数为 pmod 时的峰值强度，直径或深度为 0 时热源退化为 0
func (g *Gaussian) peak(modifier float64) float64 {
	if g.radiusSquared <= 0 || g.properties.Depth <= 0 {
		return 0
	}
	return -model.Log01 * g.properties.AbsorptionEfficiency * g.properties.MaxPower * modifier /
		(math.Pi * g.radiusSquared * g.properties.Depth)
}

func (g *Gaussian) Advance(time float64) {
	g.state.advance(g.name, time)
	center, modifier := g.path.PositionAndModifier(time)
	g.state.center = center
	g.state.alpha = g.peak(modifier)
	g.state.power = g.properties.AbsorptionEfficiency * g.properties.MaxPower * modifier
}

func (g *Gaussian) Evaluate(point r3.Vec, height float64) float64 {
	g.state.mustBeAdvanced(g.name)
	z := point.Z - height
	if outsideDepth(z, g.properties.Depth) || g.state.alpha == 0 {
		return 0
	}
	dx := point.X - g.state.center.X
	dy := point.Y - g.state.center.Y
	distance := dx*dx + dy*dy
	return g.state.alpha * math.Exp(model.Log01*distance/g.radiusSquared) * depthDistribution(z, g.properties.Depth)
}

func (g *Gaussian) Save() {
	g.path.Save()
	g.saved = g.state
}

func (g *Gaussian) Rewind() {
	g.path.Rewind()
	g.state = g.saved
}

func (g *Gaussian) Properties() model.HeatSourceProperties {
	return g.properties
}

func (g *Gaussian) Center() r2.Vec {
	return g.state.center
}

func (g *Gaussian) Power() float64 {
	return g.state.power
}
