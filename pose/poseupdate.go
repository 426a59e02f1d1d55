package pose

import (
	"math"

	"github.com/skelterjohn/go.matrix"
)

// PoseUpdateConfig parameterizes the external pose observation. The fixed
// standard deviations apply when a sample carries no covariance of its own.
// MaxError bounds the normalized squared innovation; samples beyond the bound
// are dropped as outliers. Zero disables the gate.
type PoseUpdateConfig struct {
	PositionXYStdDev float64 // m
	PositionZStdDev  float64 // m
	YawStdDev        float64 // rad
	MaxError         float64
}

func DefaultPoseUpdateConfig() PoseUpdateConfig {
	return PoseUpdateConfig{
		PositionXYStdDev: 1.0,
		PositionZStdDev:  1.0,
		YawStdDev:        5 * Deg,
	}
}

// PoseUpdateModel fuses a pose from an external estimator, e.g. a SLAM
// backend or a motion capture system, already expressed in the local frame.
// Updates carry [x y z yaw]; roll and pitch of the external pose are
// discarded because the IMU observes them directly. Per-sample covariances
// via Update.WithCovariance override the configured standard deviations.
type PoseUpdateModel struct {
	cfg PoseUpdateConfig
}

func NewPoseUpdateModel(cfg PoseUpdateConfig) *PoseUpdateModel {
	return &PoseUpdateModel{cfg: cfg}
}

func (m *PoseUpdateModel) Dimension() int { return 4 }

func (m *PoseUpdateModel) StatusFlags() Status {
	return StatusPositionXY | StatusPositionZ | StatusYaw
}

// ActiveFor always accepts; an external pose is fused alongside whatever
// other sensors currently observe.
func (m *PoseUpdateModel) ActiveFor(status Status) bool { return true }

func (m *PoseUpdateModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	return len(u.Vector()) >= 4
}

// MeasurementVector unwraps the measured yaw into the branch nearest the
// prediction so the innovation never exceeds ±π.
func (m *PoseUpdateModel) MeasurementVector(u Update, s *State) []float64 {
	v := u.Vector()
	expected := m.ExpectedValue(s)[3]
	d := math.Mod(v[3]-expected, 2*Pi)
	if d > Pi {
		d -= 2 * Pi
	}
	if d < -Pi {
		d += 2 * Pi
	}
	return []float64{v[0], v[1], v[2], expected + d}
}

func (m *PoseUpdateModel) ExpectedValue(s *State) []float64 {
	px, py, pz := s.Position()
	w, x, y, z := s.Orientation()
	return []float64{px, py, pz, math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)}
}

func (m *PoseUpdateModel) Jacobian(s *State) *matrix.DenseMatrix {
	w, x, y, z := s.Orientation()
	t1 := w*w + x*x - y*y - z*z
	t2 := 2 * (x*y + w*z)
	t3 := 1 / (t1*t1 + t2*t2)
	c := matrix.Zeros(4, StateDim)
	c.Set(0, statePosX, 1)
	c.Set(1, statePosY, 1)
	c.Set(2, statePosZ, 1)
	c.Set(3, stateQW, 2*t3*(z*t1-w*t2))
	c.Set(3, stateQX, 2*t3*(y*t1-x*t2))
	c.Set(3, stateQY, 2*t3*(x*t1+y*t2))
	c.Set(3, stateQZ, 2*t3*(w*t1+z*t2))
	return c
}

func (m *PoseUpdateModel) NoiseCovariance() *matrix.DenseMatrix {
	return matrix.Diagonal([]float64{
		m.cfg.PositionXYStdDev * m.cfg.PositionXYStdDev,
		m.cfg.PositionXYStdDev * m.cfg.PositionXYStdDev,
		m.cfg.PositionZStdDev * m.cfg.PositionZStdDev,
		m.cfg.YawStdDev * m.cfg.YawStdDev,
	})
}

func (m *PoseUpdateModel) MaxError() float64 { return m.cfg.MaxError }

func (m *PoseUpdateModel) Reset() {}
