package pose

import "github.com/skelterjohn/go.matrix"

// ZeroRateConfig parameterizes the zero-yaw-rate observation.
type ZeroRateConfig struct {
	StdDev float64 // rad/s
}

func DefaultZeroRateConfig() ZeroRateConfig { return ZeroRateConfig{StdDev: 90 * Deg} }

// ZeroRateModel damps yaw drift by observing the raw z gyro against the
// estimated bias while no yaw reference is available. At standstill the raw
// reading equals the negative bias.
type ZeroRateModel struct {
	cfg ZeroRateConfig
}

func NewZeroRateModel(cfg ZeroRateConfig) *ZeroRateModel { return &ZeroRateModel{cfg: cfg} }

func (m *ZeroRateModel) Dimension() int { return 1 }

func (m *ZeroRateModel) StatusFlags() Status { return StatusRateZ }

func (m *ZeroRateModel) ActiveFor(status Status) bool { return !status.Has(StatusYaw) }

func (m *ZeroRateModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	return len(u.Vector()) >= 1
}

func (m *ZeroRateModel) MeasurementVector(u Update, s *State) []float64 {
	return u.Vector()[:1]
}

func (m *ZeroRateModel) ExpectedValue(s *State) []float64 {
	_, _, bz := s.GyroBias()
	return []float64{-bz}
}

func (m *ZeroRateModel) Jacobian(s *State) *matrix.DenseMatrix {
	c := matrix.Zeros(1, StateDim)
	if s.Active(BlockGyroBias) {
		c.Set(0, stateGyroBiasZ, -1)
	}
	return c
}

func (m *ZeroRateModel) NoiseCovariance() *matrix.DenseMatrix {
	return matrix.Diagonal([]float64{m.cfg.StdDev * m.cfg.StdDev})
}

func (m *ZeroRateModel) Reset() {}
