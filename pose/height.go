package pose

import (
	"log"

	"github.com/skelterjohn/go.matrix"
)

// HeightConfig parameterizes the barometric/height measurement model.
type HeightConfig struct {
	StdDev        float64 // m
	AutoElevation bool    // solve the elevation offset from the first sample
}

func DefaultHeightConfig() HeightConfig {
	return HeightConfig{StdDev: 10, AutoElevation: true}
}

// HeightModel corrects vertical position from an absolute altitude reading.
// Updates carry [altitude]. The measured altitude is the local z plus a
// constant elevation offset held in the global reference.
type HeightModel struct {
	cfg                  HeightConfig
	elevation            float64
	elevationInitialized bool
}

func NewHeightModel(cfg HeightConfig) *HeightModel { return &HeightModel{cfg: cfg} }

func (m *HeightModel) Dimension() int { return 1 }

func (m *HeightModel) StatusFlags() Status { return StatusPositionZ }

func (m *HeightModel) ActiveFor(Status) bool { return true }

// Elevation returns the altitude of the local frame origin.
func (m *HeightModel) Elevation() float64 { return m.elevation }

// BeforeUpdate solves the elevation offset on the first sample so the
// predicted height matches the raw reading exactly.
func (m *HeightModel) BeforeUpdate(e *Estimator, u Update, stale bool) bool {
	if len(u.Vector()) < 1 {
		return false
	}
	ref := e.Reference()
	if m.cfg.AutoElevation && !m.elevationInitialized {
		_, _, z := e.State().Position()
		ref.SetAltitude(u.Vector()[0] - z)
		m.elevationInitialized = true
		log.Printf("pose: height anchored elevation at %.2f m", ref.Altitude())
	}
	if ref.HasAltitude() {
		m.elevation = ref.Altitude()
	}
	return true
}

func (m *HeightModel) MeasurementVector(u Update, s *State) []float64 {
	return u.Vector()[:1]
}

func (m *HeightModel) ExpectedValue(s *State) []float64 {
	_, _, z := s.Position()
	return []float64{z + m.elevation}
}

func (m *HeightModel) Jacobian(s *State) *matrix.DenseMatrix {
	c := matrix.Zeros(1, StateDim)
	c.Set(0, statePosZ, 1)
	return c
}

func (m *HeightModel) NoiseCovariance() *matrix.DenseMatrix {
	return matrix.Diagonal([]float64{m.cfg.StdDev * m.cfg.StdDev})
}

func (m *HeightModel) Reset() {
	m.elevation = 0
	m.elevationInitialized = false
}
