package pose

import (
	"log"
	"math"

	"github.com/skelterjohn/go.matrix"
)

// MagneticConfig parameterizes the magnetometer measurement model. Angles
// are radians, the field magnitude is in the magnetometer's native unit.
// A magnitude of zero disables the model entirely.
type MagneticConfig struct {
	StdDev      float64
	Declination float64
	Inclination float64
	Magnitude   float64
	AutoHeading bool // anchor the reference heading on the first sample
}

func DefaultMagneticConfig() MagneticConfig {
	return MagneticConfig{
		StdDev:      1,
		Declination: 0,
		Inclination: 60 * Deg,
		Magnitude:   20,
		AutoHeading: true,
	}
}

// MagneticModel corrects yaw from a 3-axis magnetometer. The expected value
// is the reference field, derived from declination/inclination/magnitude and
// rotated by the reference heading, expressed in the body frame. The
// Jacobian is projected onto the yaw subspace of the quaternion so the
// magnetometer never tilts the roll/pitch estimate.
type MagneticModel struct {
	cfg        MagneticConfig
	fieldNorth [3]float64 // reference field in true-north coordinates
	fieldRef   [3]float64 // reference field rotated by the reference heading
	anchored   bool
}

func NewMagneticModel(cfg MagneticConfig) *MagneticModel {
	m := &MagneticModel{cfg: cfg}
	m.updateField()
	return m
}

func (m *MagneticModel) Dimension() int { return 3 }

func (m *MagneticModel) StatusFlags() Status { return StatusYaw }

func (m *MagneticModel) ActiveFor(Status) bool { return m.cfg.Magnitude != 0 }

// MagneticHeading derives the heading angle from a measured field vector.
func (m *MagneticModel) MagneticHeading(y []float64) float64 {
	return math.Atan2(y[1], y[0])
}

// TrueHeading corrects the magnetic heading for the local declination.
func (m *MagneticModel) TrueHeading(y []float64) float64 {
	return m.MagneticHeading(y) - m.cfg.Declination
}

func (m *MagneticModel) updateField() {
	magnitude := m.cfg.Magnitude
	if magnitude == 0 {
		magnitude = 1
	}
	sinInc, cosInc := math.Sincos(m.cfg.Inclination)
	sinDec, cosDec := math.Sincos(m.cfg.Declination)
	m.fieldNorth[0] = magnitude * cosInc * cosDec
	m.fieldNorth[1] = magnitude * -sinDec
	m.fieldNorth[2] = magnitude * -sinInc * cosDec
}

// setReference rotates the north-aligned field by the reference heading into
// the local world frame.
func (m *MagneticModel) setReference(ref *GlobalReference) {
	sin, cos := math.Sin(ref.Heading()), math.Cos(ref.Heading())
	m.fieldRef[0] = cos*m.fieldNorth[0] - sin*m.fieldNorth[1]
	m.fieldRef[1] = sin*m.fieldNorth[0] + cos*m.fieldNorth[1]
	m.fieldRef[2] = m.fieldNorth[2]
}

// BeforeUpdate anchors the reference heading on the first sample and after a
// staleness gap, then refreshes the rotated reference field.
func (m *MagneticModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	if m.cfg.Magnitude == 0 || len(u.Vector()) < 3 {
		return false
	}
	if stale {
		m.anchored = false
	}
	ref := e.Reference()
	if !m.anchored {
		if m.cfg.AutoHeading {
			_, _, yaw := e.RollPitchYaw()
			ref.SetHeading(m.TrueHeading(u.Vector()) + yaw)
			log.Printf("pose: magnetic anchored reference heading at %.1f°", ref.Heading()/Deg)
		}
		m.anchored = true
	}
	m.setReference(ref)
	return true
}

func (m *MagneticModel) MeasurementVector(u Update, s *State) []float64 {
	return u.Vector()[:3]
}

// ExpectedValue rotates the reference field into the body frame.
func (m *MagneticModel) ExpectedValue(s *State) []float64 {
	w, x, y, z := s.Orientation()
	mx, my, mz := m.fieldRef[0], m.fieldRef[1], m.fieldRef[2]
	return []float64{
		(w*w+x*x-y*y-z*z)*mx + 2*(x*y+w*z)*my + 2*(x*z-w*y)*mz,
		2*(x*y-w*z)*mx + (w*w-x*x+y*y-z*z)*my + 2*(y*z+w*x)*mz,
		2*(x*z+w*y)*mx + 2*(y*z-w*x)*my + (w*w-x*x-y*y+z*z)*mz,
	}
}

func (m *MagneticModel) Jacobian(s *State) *matrix.DenseMatrix {
	w, x, y, z := s.Orientation()
	mx, my, mz := m.fieldRef[0], m.fieldRef[1], m.fieldRef[2]

	var full [3][4]float64
	full[0][0] = +2*w*mx + 2*z*my - 2*y*mz
	full[0][1] = +2*x*mx + 2*y*my + 2*z*mz
	full[0][2] = -2*y*mx + 2*x*my - 2*w*mz
	full[0][3] = -2*z*mx + 2*w*my + 2*x*mz
	full[1][0] = -2*z*mx + 2*w*my + 2*x*mz
	full[1][1] = +2*y*mx - 2*x*my + 2*w*mz
	full[1][2] = +2*x*mx + 2*y*my + 2*z*mz
	full[1][3] = -2*w*mx - 2*z*my + 2*y*mz
	full[2][0] = +2*y*mx - 2*x*my + 2*w*mz
	full[2][1] = +2*z*mx - 2*w*my - 2*x*mz
	full[2][2] = +2*w*mx + 2*z*my - 2*y*mz
	full[2][3] = +2*x*mx + 2*y*my + 2*z*mz

	// Project onto the yaw subspace: dq/dyaw ⊗ dyaw/dq with
	// dq/dyaw = ½·[-qz -qy qx qw].
	c := matrix.Zeros(3, StateDim)
	for i := 0; i < 3; i++ {
		dyaw := full[i][0]*-z + full[i][1]*-y + full[i][2]*x + full[i][3]*w
		c.Set(i, stateQW, dyaw*-z)
		c.Set(i, stateQX, dyaw*-y)
		c.Set(i, stateQY, dyaw*x)
		c.Set(i, stateQZ, dyaw*w)
	}
	return c
}

func (m *MagneticModel) NoiseCovariance() *matrix.DenseMatrix {
	v := m.cfg.StdDev * m.cfg.StdDev
	return matrix.Diagonal([]float64{v, v, v})
}

func (m *MagneticModel) Reset() {
	m.anchored = false
	m.updateField()
}
