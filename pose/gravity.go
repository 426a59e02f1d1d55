package pose

import "github.com/skelterjohn/go.matrix"

// GravityConfig parameterizes the gravity direction observation.
type GravityConfig struct {
	StdDev float64 // m/s²
}

func DefaultGravityConfig() GravityConfig { return GravityConfig{StdDev: 10} }

// GravityModel observes roll and pitch from the direction of the measured
// specific force. It masks itself off while another sensor chain already
// provides roll/pitch observability.
type GravityModel struct {
	cfg     GravityConfig
	gravity float64
}

func NewGravityModel(cfg GravityConfig, gravity float64) *GravityModel {
	return &GravityModel{cfg: cfg, gravity: gravity}
}

func (m *GravityModel) Dimension() int { return 3 }

func (m *GravityModel) StatusFlags() Status { return StatusRollPitch }

func (m *GravityModel) ActiveFor(status Status) bool { return !status.Has(StatusRollPitch) }

func (m *GravityModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	return len(u.Vector()) >= 3
}

func (m *GravityModel) MeasurementVector(u Update, s *State) []float64 {
	return u.Vector()[:3]
}

// ExpectedValue is the world gravity vector rotated into the body frame.
func (m *GravityModel) ExpectedValue(s *State) []float64 {
	w, x, y, z := s.Orientation()
	k := -m.gravity
	return []float64{
		k * 2 * (x*z - w*y),
		k * 2 * (y*z + w*x),
		k * (w*w - x*x - y*y + z*z),
	}
}

func (m *GravityModel) Jacobian(s *State) *matrix.DenseMatrix {
	w, x, y, z := s.Orientation()
	k := -m.gravity
	c := matrix.Zeros(3, StateDim)
	c.Set(0, stateQW, k*2*-y)
	c.Set(0, stateQX, k*2*+z)
	c.Set(0, stateQY, k*2*-w)
	c.Set(0, stateQZ, k*2*+x)
	c.Set(1, stateQW, k*2*+x)
	c.Set(1, stateQX, k*2*+w)
	c.Set(1, stateQY, k*2*+z)
	c.Set(1, stateQZ, k*2*+y)
	c.Set(2, stateQW, k*2*+w)
	c.Set(2, stateQX, k*2*-x)
	c.Set(2, stateQY, k*2*-y)
	c.Set(2, stateQZ, k*2*+z)
	return c
}

func (m *GravityModel) NoiseCovariance() *matrix.DenseMatrix {
	v := m.cfg.StdDev * m.cfg.StdDev
	return matrix.Diagonal([]float64{v, v, v})
}

func (m *GravityModel) Reset() {}
