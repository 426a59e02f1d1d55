package pose

import (
	"log"
	"math"

	"github.com/skelterjohn/go.matrix"
)

// GPSConfig parameterizes the GPS measurement model.
type GPSConfig struct {
	PositionStdDev float64 // m
	VelocityStdDev float64 // m/s
}

func DefaultGPSConfig() GPSConfig {
	return GPSConfig{PositionStdDev: 10, VelocityStdDev: 1}
}

// GPSModel corrects horizontal position and velocity from geodetic fixes.
// Updates carry [latitude, longitude, velocityNorth, velocityEast] with
// angles in radians.
type GPSModel struct {
	cfg      GPSConfig
	ref      *GlobalReference
	anchored bool
}

func NewGPSModel(cfg GPSConfig) *GPSModel { return &GPSModel{cfg: cfg} }

func (m *GPSModel) Dimension() int { return 4 }

func (m *GPSModel) StatusFlags() Status { return StatusPositionXY | StatusVelocityXY }

func (m *GPSModel) ActiveFor(Status) bool { return true }

// BeforeUpdate anchors the global reference on the first fix and again after
// an outage. The anchor is back-projected through the current state position
// so existing local coordinates keep their geodetic meaning instead of being
// reset to zero.
func (m *GPSModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	if len(u.Vector()) < 4 {
		return false
	}
	if stale {
		m.anchored = false
	}
	m.ref = e.Reference()
	if m.anchored {
		return true
	}
	lat, lon := u.Vector()[0], u.Vector()[1]
	m.ref.SetPosition(lat, lon)
	x, y, _ := e.State().Position()
	if lat0, lon0, err := m.ref.ToWGS84(-x, -y); err == nil {
		m.ref.SetPosition(lat0, lon0)
	}
	m.anchored = true
	log.Printf("pose: gps anchored reference at %.7f°, %.7f°", lat/Deg, lon/Deg)
	return true
}

// MeasurementVector projects the fix into the local frame. Without a
// reference it returns NaN placeholders, which the correction rejects.
func (m *GPSModel) MeasurementVector(u Update, s *State) []float64 {
	v := u.Vector()
	if m.ref == nil || !m.ref.HasPosition() || len(v) < 4 {
		nan := math.NaN()
		return []float64{nan, nan, nan, nan}
	}
	x, y, _ := m.ref.FromWGS84(v[0], v[1])
	vx, vy := m.ref.FromNorthEast(v[2], v[3])
	return []float64{x, y, vx, vy}
}

func (m *GPSModel) ExpectedValue(s *State) []float64 {
	px, py, _ := s.Position()
	vx, vy, _ := s.Velocity()
	return []float64{px, py, vx, vy}
}

func (m *GPSModel) Jacobian(s *State) *matrix.DenseMatrix {
	c := matrix.Zeros(4, StateDim)
	c.Set(0, statePosX, 1)
	c.Set(1, statePosY, 1)
	c.Set(2, stateVelX, 1)
	c.Set(3, stateVelY, 1)
	return c
}

func (m *GPSModel) NoiseCovariance() *matrix.DenseMatrix {
	p := m.cfg.PositionStdDev * m.cfg.PositionStdDev
	v := m.cfg.VelocityStdDev * m.cfg.VelocityStdDev
	return matrix.Diagonal([]float64{p, p, v, v})
}

func (m *GPSModel) Reset() {
	m.ref = nil
	m.anchored = false
}
