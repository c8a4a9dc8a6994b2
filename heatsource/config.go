package heatsource

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"mhs/model"
	"mhs/scanpath"
)

// Config 单个热源的配置
type Config struct {
	Name string // 配置节名称，用于错误信息
	Type string

	Depth                float64
	AbsorptionEfficiency float64
	Diameter             float64
	MaxPower             float64 // 高斯热源：给定 max_power，或 current * voltage

	// 旋转环形热源
	InnerRadius            float64
	RotationSpeed          float64
	RotationUnits          string
	AdvancingHeatModifier  float64
	RetreatingHeatModifier float64
	Force                  float64
	Sigma                  float64 // 0 表示取 diameter / 2

	// 扫描路径：文件，或 abscissa / ordinate 表达式
	ScanPathFile  string
	ScanPathUnits string
	Abscissa      string
	Ordinate      string

	PrintDiagnostics bool
}

// DefaultConfig 可选参数取默认值的配置
func DefaultConfig(name, typ string) Config {
	return Config{
		Name:                   name,
		Type:                   typ,
		AbsorptionEfficiency:   DefaultAbsorptionEfficiency,
		RotationUnits:          RotationRadPerSecond,
		AdvancingHeatModifier:  DefaultHeatModifier,
		RetreatingHeatModifier: DefaultHeatModifier,
		Force:                  DefaultForce,
		ScanPathUnits:          scanpath.UnitsMeter,
	}
}

// 公共物性参数及其取值范围检查
func (c Config) properties() (model.HeatSourceProperties, error) {
	p := model.HeatSourceProperties{
		Depth:                c.Depth,
		AbsorptionEfficiency: c.AbsorptionEfficiency,
		Diameter:             c.Diameter,
		MaxPower:             c.MaxPower,
	}
	if p.Depth < 0 || math.IsNaN(p.Depth) {
		return p, errors.Wrapf(model.ErrConfiguration, "%s: depth must be non-negative, got %g", c.Name, p.Depth)
	}
	if p.Diameter < 0 || math.IsNaN(p.Diameter) {
		return p, errors.Wrapf(model.ErrConfiguration, "%s: diameter must be non-negative, got %g", c.Name, p.Diameter)
	}
	if p.AbsorptionEfficiency < 0 || p.AbsorptionEfficiency > 1 || math.IsNaN(p.AbsorptionEfficiency) {
		return p, errors.Wrapf(model.ErrConfiguration, "%s: absorption_efficiency must be in [0, 1], got %g",
			c.Name, p.AbsorptionEfficiency)
	}
	return p, nil
}

// NewPath 根据配置创建热源轨迹
func (c Config) NewPath() (scanpath.BeamPath, error) {
	if c.ScanPathFile != "" {
		segments, err := scanpath.ParseFile(c.ScanPathFile, c.ScanPathUnits)
		if err != nil {
			return nil, errors.WithMessage(err, c.Name)
		}
		tracker, err := scanpath.NewTrackerWithSegments(segments)
		if err != nil {
			return nil, errors.WithMessage(err, c.Name)
		}
		return tracker, nil
	}
	if c.Abscissa == "" {
		return nil, errors.Wrapf(model.ErrConfiguration, "%s: missing key %q (or %q)", c.Name, "scan_path_file", "abscissa")
	}
	path, err := scanpath.NewExpressionPath(c.Abscissa, c.Ordinate)
	if err != nil {
		return nil, errors.WithMessage(err, c.Name)
	}
	return path, nil
}

// 读取 ini 配置
type reader struct {
	section *ini.Section
	err     error
}

func (r *reader) missing(key string) {
	if r.err == nil {
		r.err = errors.Wrapf(model.ErrConfiguration, "missing key %q", r.section.Name()+"."+key)
	}
}

func (r *reader) required(key string) float64 {
	if !r.section.HasKey(key) {
		r.missing(key)
		return 0
	}
	return r.float(key, 0)
}

func (r *reader) float(key string, def float64) float64 {
	if !r.section.HasKey(key) {
		return def
	}
	v, err := r.section.Key(key).Float64()
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(model.ErrConfiguration, "key %q: %v", r.section.Name()+"."+key, err)
	}
	return v
}

// ConfigFromSection 从配置节读取热源参数，缺少必需参数时返回的错误中包含参数名
// 相对路径的扫描路径文件以 dir 为基准
func ConfigFromSection(section *ini.Section, dir string) (Config, error) {
	r := &reader{section: section}
	cfg := DefaultConfig(section.Name(), section.Key("type").MustString(TypeGaussian))

	cfg.Depth = r.required("depth")
	cfg.Diameter = r.required("diameter")
	cfg.AbsorptionEfficiency = r.float("absorption_efficiency", DefaultAbsorptionEfficiency)

	switch cfg.Type {
	case TypeDonut:
		cfg.InnerRadius = r.required("inner_radius")
		cfg.RotationSpeed = r.float("rotation_speed", 0)
		cfg.RotationUnits = section.Key("rotation_units").MustString(RotationRadPerSecond)
		cfg.AdvancingHeatModifier = r.float("advancing_heat_modifier", DefaultHeatModifier)
		cfg.RetreatingHeatModifier = r.float("retreating_heat_modifier", DefaultHeatModifier)
		cfg.Force = r.float("force", DefaultForce)
		cfg.Sigma = r.float("sigma", 0)
	default:
		if section.HasKey("max_power") {
			cfg.MaxPower = r.float("max_power", 0)
		} else if section.HasKey("current") || section.HasKey("voltage") {
			cfg.MaxPower = r.required("current") * r.required("voltage")
		} else {
			r.missing("max_power")
		}
	}

	cfg.ScanPathFile = section.Key("scan_path_file").String()
	if cfg.ScanPathFile != "" && !filepath.IsAbs(cfg.ScanPathFile) {
		cfg.ScanPathFile = filepath.Join(dir, cfg.ScanPathFile)
	}
	cfg.ScanPathUnits = section.Key("scan_path_units").MustString(scanpath.UnitsMeter)
	cfg.Abscissa = section.Key("abscissa").String()
	cfg.Ordinate = section.Key("ordinate").String()
	if cfg.ScanPathFile == "" && cfg.Abscissa == "" {
		r.missing("scan_path_file")
	}
	cfg.PrintDiagnostics = section.Key("print_diagnostics").MustBool(false)

	return cfg, r.err
}

// 第 i 个热源的配置节名称
func BeamSection(i int) string {
	return fmt.Sprintf("sources.beam_%d", i)
}

// LoadConfigs 从 ini 文件读取所有热源配置
func LoadConfigs(file *ini.File, dir string) ([]Config, error) {
	n := file.Section("sources").Key("n_beams").MustInt(1)
	if n <= 0 {
		return nil, errors.Wrapf(model.ErrConfiguration, "sources.n_beams must be positive, got %d", n)
	}
	configs := make([]Config, 0, n)
	for i := 0; i < n; i++ {
		name := BeamSection(i)
		section, err := file.GetSection(name)
		if err != nil {
			return nil, errors.Wrapf(model.ErrConfiguration, "missing section %q", name)
		}
		cfg, err := ConfigFromSection(section, dir)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// LoadFile 读取配置文件并创建全部热源
func LoadFile(filename string) (*Collection, error) {
	file, err := ini.Load(filename)
	if err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "load %s: %v", filename, err)
	}
	return Load(file, filepath.Dir(filename))
}

// Load 根据已读取的 ini 创建全部热源
func Load(file *ini.File, dir string) (*Collection, error) {
	configs, err := LoadConfigs(file, dir)
	if err != nil {
		return nil, err
	}
	sources := make([]HeatSource, 0, len(configs))
	for _, cfg := range configs {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"source":   cfg.Name,
			"type":     cfg.Type,
			"depth":    cfg.Depth,
			"diameter": cfg.Diameter,
		}).Info("热源创建完成")
		sources = append(sources, s)
	}
	return NewCollection(sources...), nil
}
