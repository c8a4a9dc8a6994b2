package calculator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mhs_calculator_steps_total",
		Help: "Total time steps advanced by the calculator",
	})

	rollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mhs_calculator_rollbacks_total",
		Help: "Total rollbacks to a checkpoint",
	})

	sampleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mhs_calculator_sample_duration_seconds",
		Help:    "Duration of one concurrent grid evaluation in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	})

	simulationTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mhs_calculator_simulation_time_seconds",
		Help: "Current simulated time",
	})

	beamPower = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mhs_beam_power_watts",
		Help: "Instantaneous absorbed power per beam",
	}, []string{"beam"})
)
