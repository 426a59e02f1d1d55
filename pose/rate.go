package pose

import "github.com/skelterjohn/go.matrix"

// RateConfig parameterizes the gyro rate observation.
type RateConfig struct {
	StdDev float64 // rad/s
}

func DefaultRateConfig() RateConfig { return RateConfig{StdDev: 1 * Deg} }

// RateModel treats the raw gyro reading as a direct observation of the body
// rate state and the gyro bias. The true rate is raw plus bias, so the
// expected reading is rate minus bias.
type RateModel struct {
	cfg RateConfig
}

func NewRateModel(cfg RateConfig) *RateModel { return &RateModel{cfg: cfg} }

func (m *RateModel) Dimension() int { return 3 }

func (m *RateModel) StatusFlags() Status { return StatusRateXY | StatusRateZ }

func (m *RateModel) ActiveFor(Status) bool { return true }

func (m *RateModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	return len(u.Vector()) >= 3
}

func (m *RateModel) MeasurementVector(u Update, s *State) []float64 {
	return u.Vector()[:3]
}

func (m *RateModel) ExpectedValue(s *State) []float64 {
	wx, wy, wz := s.Rate()
	bx, by, bz := s.GyroBias()
	return []float64{wx - bx, wy - by, wz - bz}
}

func (m *RateModel) Jacobian(s *State) *matrix.DenseMatrix {
	c := matrix.Zeros(3, StateDim)
	if s.Active(BlockRate) {
		c.Set(0, stateRateX, 1)
		c.Set(1, stateRateY, 1)
		c.Set(2, stateRateZ, 1)
	}
	if s.Active(BlockGyroBias) {
		c.Set(0, stateGyroBiasX, -1)
		c.Set(1, stateGyroBiasY, -1)
		c.Set(2, stateGyroBiasZ, -1)
	}
	return c
}

func (m *RateModel) NoiseCovariance() *matrix.DenseMatrix {
	v := m.cfg.StdDev * m.cfg.StdDev
	return matrix.Diagonal([]float64{v, v, v})
}

func (m *RateModel) Reset() {}
