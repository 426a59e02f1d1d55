package pose

import (
	"math"

	"github.com/skelterjohn/go.matrix"
)

// HeadingConfig parameterizes the external heading observation.
type HeadingConfig struct {
	StdDev float64 // rad
}

func DefaultHeadingConfig() HeadingConfig { return HeadingConfig{StdDev: 10 * Deg} }

// HeadingModel corrects yaw from an external heading source, e.g. wheel
// odometry or a compass subsystem. It masks itself off while another sensor
// already provides yaw. Updates carry [yaw] in radians.
type HeadingModel struct {
	cfg HeadingConfig
}

func NewHeadingModel(cfg HeadingConfig) *HeadingModel { return &HeadingModel{cfg: cfg} }

func (m *HeadingModel) Dimension() int { return 1 }

func (m *HeadingModel) StatusFlags() Status { return StatusYaw }

func (m *HeadingModel) ActiveFor(status Status) bool { return !status.Has(StatusYaw) }

func (m *HeadingModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	return len(u.Vector()) >= 1
}

// MeasurementVector unwraps the measured heading into the branch nearest the
// prediction so the innovation never exceeds ±π.
func (m *HeadingModel) MeasurementVector(u Update, s *State) []float64 {
	expected := m.ExpectedValue(s)[0]
	d := math.Mod(u.Vector()[0]-expected, 2*Pi)
	if d > Pi {
		d -= 2 * Pi
	}
	if d < -Pi {
		d += 2 * Pi
	}
	return []float64{expected + d}
}

func (m *HeadingModel) ExpectedValue(s *State) []float64 {
	w, x, y, z := s.Orientation()
	return []float64{math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)}
}

func (m *HeadingModel) Jacobian(s *State) *matrix.DenseMatrix {
	w, x, y, z := s.Orientation()
	t1 := w*w + x*x - y*y - z*z
	t2 := 2 * (x*y + w*z)
	t3 := 1 / (t1*t1 + t2*t2)
	c := matrix.Zeros(1, StateDim)
	c.Set(0, stateQW, 2*t3*(z*t1-w*t2))
	c.Set(0, stateQX, 2*t3*(y*t1-x*t2))
	c.Set(0, stateQY, 2*t3*(x*t1+y*t2))
	c.Set(0, stateQZ, 2*t3*(w*t1+z*t2))
	return c
}

func (m *HeadingModel) NoiseCovariance() *matrix.DenseMatrix {
	return matrix.Diagonal([]float64{m.cfg.StdDev * m.cfg.StdDev})
}

func (m *HeadingModel) Reset() {}
