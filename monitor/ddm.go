// Package monitor watches how often calibrated intervals miss the true RUL
// and signals when the miss rate drifts away from its best observed level,
// meaning the margin should be recalibrated.
package monitor

import (
	"math"
	"sync"

	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// CoverageMonitor applies the Drift Detection Method of
// J. Gama, P. Medas, G. Castillo, P. Rodrigues (2004)
// "Learning with Drift Detection" to the stream of interval misses.
type CoverageMonitor struct {
	// Hyperparameters
	minObservations int     // 検出を始めるまでの最小観測数
	warningLevel    float64 // 警告レベル (σ の倍数)
	driftLevel      float64 // ドリフトレベル (σ の倍数)

	// Statistics
	observations int
	misses       int
	missRate     float64
	stdDev       float64

	// 基準値（観測開始以降の最小値）
	minMissRate float64
	minStdDev   float64

	warning bool
	drifts  int
	lastAt  int // 直近のドリフトを検出した通し番号 (なければ -1)
	seen    int // リセットに影響されない通し番号

	mu sync.RWMutex
}

// Status is the monitor state after an observation.
type Status struct {
	Observations int     `json:"observations"`
	Misses       int     `json:"misses"`
	MissRate     float64 `json:"miss_rate"`
	StdDev       float64 `json:"std_dev"`
	Warning      bool    `json:"warning"`
	// Drift is set on the observation that triggered a drift.
	Drift bool `json:"drift"`
	// Drifts counts every drift since creation or Reset.
	Drifts int `json:"drifts"`
	// LastDriftAt is the zero-based index of the observation that last
	// triggered a drift, or -1.
	LastDriftAt int `json:"last_drift_at"`
}

// Option configures a CoverageMonitor.
type Option func(*CoverageMonitor)

// WithMinObservations sets how many observations are needed before detection starts.
func WithMinObservations(n int) Option {
	return func(m *CoverageMonitor) {
		m.minObservations = n
	}
}

// WithWarningLevel sets the warning threshold in standard deviations. Default 2.
func WithWarningLevel(level float64) Option {
	return func(m *CoverageMonitor) {
		m.warningLevel = level
	}
}

// WithDriftLevel sets the drift threshold in standard deviations. Default 3.
func WithDriftLevel(level float64) Option {
	return func(m *CoverageMonitor) {
		m.driftLevel = level
	}
}

// New creates a monitor. Defaults: 30 observations, warning at 2σ, drift at 3σ.
func New(opts ...Option) *CoverageMonitor {
	m := &CoverageMonitor{
		minObservations: 30,
		warningLevel:    2.0,
		driftLevel:      3.0,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.restart()
	m.lastAt = -1
	return m
}

// Observe records whether one interval covered the true RUL.
func (m *CoverageMonitor) Observe(covered bool) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observe(covered)
}

// ObserveInterval feeds every step of iv against truth in order and
// returns the status after the last step. Drift stays visible in Drifts
// and LastDriftAt.
func (m *CoverageMonitor) ObserveInterval(iv conformal.Interval, truth []float64) (Status, error) {
	if len(iv.Lower) != len(truth) || len(iv.Upper) != len(truth) {
		return Status{}, errors.NewShapeMismatchError("ObserveInterval", len(truth), iv.Len())
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.status()
	for i, y := range truth {
		st = m.observe(iv.Lower[i] <= y && y <= iv.Upper[i])
	}
	return st, nil
}

func (m *CoverageMonitor) observe(covered bool) Status {
	index := m.seen
	m.seen++
	m.observations++
	if !covered {
		m.misses++
	}

	if m.observations < m.minObservations {
		m.warning = false
		return m.status()
	}

	n := float64(m.observations)
	m.missRate = float64(m.misses) / n
	m.stdDev = math.Sqrt(m.missRate * (1 - m.missRate) / n)

	level := m.missRate + m.stdDev
	// 分散ゼロ (ミスなし) の状態は基準にしない
	if m.stdDev > 0 && level < m.minMissRate+m.minStdDev {
		m.minMissRate = m.missRate
		m.minStdDev = m.stdDev
	}
	if math.IsInf(m.minStdDev, 1) {
		m.warning = false
		return m.status()
	}

	m.warning = level > m.minMissRate+m.warningLevel*m.minStdDev

	if level > m.minMissRate+m.driftLevel*m.minStdDev {
		m.drifts++
		m.lastAt = index
		st := m.status()
		st.Drift = true
		// ドリフト検出後は新しい基準で観測をやり直す
		m.restart()
		return st
	}
	return m.status()
}

// Stats returns the current state without observing.
func (m *CoverageMonitor) Stats() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status()
}

// Reset clears every statistic and the drift history.
func (m *CoverageMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restart()
	m.drifts = 0
	m.lastAt = -1
	m.seen = 0
}

func (m *CoverageMonitor) restart() {
	m.observations = 0
	m.misses = 0
	m.missRate = 0
	m.stdDev = 0
	m.minMissRate = math.Inf(1)
	m.minStdDev = math.Inf(1)
	m.warning = false
}

func (m *CoverageMonitor) status() Status {
	return Status{
		Observations: m.observations,
		Misses:       m.misses,
		MissRate:     m.missRate,
		StdDev:       m.stdDev,
		Warning:      m.warning,
		Drifts:       m.drifts,
		LastDriftAt:  m.lastAt,
	}
}
