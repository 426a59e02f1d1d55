package pose

import "github.com/skelterjohn/go.matrix"

// DefaultTimeout is the staleness timeout of a measurement, s. A sensor that
// has not delivered for longer loses its status contribution, and models that
// anchor the global reference re-anchor on the next sample.
const DefaultTimeout = 1.0

// Update is the envelope carrying one raw sensor sample into a correction.
// It is immutable after construction.
type Update struct {
	vector     []float64
	covariance *matrix.DenseMatrix
}

func NewUpdate(values ...float64) Update { return Update{vector: values} }

// WithCovariance returns a copy of the update carrying a caller-supplied
// noise covariance that overrides the model default for this sample only.
func (u Update) WithCovariance(r *matrix.DenseMatrix) Update {
	u.covariance = r
	return u
}

func (u Update) Vector() []float64 { return u.vector }

func (u Update) HasCovariance() bool { return u.covariance != nil }

func (u Update) Covariance() *matrix.DenseMatrix { return u.covariance }

// MeasurementModel is the sensor side of the filter. Models are stateless
// with respect to the estimate; they read the shared State but never own it.
type MeasurementModel interface {
	Dimension() int
	// StatusFlags declares what this sensor observes.
	StatusFlags() Status
	// ActiveFor reports whether the model should correct given the current
	// system status. Models whose quantity is already observed elsewhere
	// mask themselves off here.
	ActiveFor(systemStatus Status) bool
	// MeasurementVector converts a raw update into measurement space.
	MeasurementVector(u Update, s *State) []float64
	ExpectedValue(s *State) []float64
	Jacobian(s *State) *matrix.DenseMatrix
	NoiseCovariance() *matrix.DenseMatrix
	// BeforeUpdate may adjust global state (reference anchoring) before the
	// generic correction. Returning false suppresses the correction.
	// stale reports whether the sensor exceeded its timeout since the last
	// accepted sample.
	BeforeUpdate(e *Estimator, u Update, stale bool) bool
	Reset()
}

// innovationGate is implemented by models that bound the normalized squared
// innovation. Samples whose innovation exceeds MaxError are dropped. A zero
// bound disables the gate.
type innovationGate interface {
	MaxError() float64
}

// Measurement tracks the lifecycle of one registered model: enable switch,
// throttling interval, staleness timer and cached status contribution.
type Measurement struct {
	name    string
	model   MeasurementModel
	enabled bool
	pseudo  bool

	minInterval float64
	timeout     float64
	timer       float64
	flags       Status
}

func newMeasurement(name string, model MeasurementModel, pseudo bool) *Measurement {
	m := &Measurement{
		name:    name,
		model:   model,
		enabled: true,
		pseudo:  pseudo,
		timeout: DefaultTimeout,
	}
	m.reset()
	return m
}

func (m *Measurement) Name() string            { return m.name }
func (m *Measurement) Model() MeasurementModel { return m.model }
func (m *Measurement) Enabled() bool           { return m.enabled }
func (m *Measurement) Enable()                 { m.enabled = true }
func (m *Measurement) Disable()                { m.enabled = false }

// SetMinInterval throttles corrections to at most one per dt seconds.
func (m *Measurement) SetMinInterval(dt float64) { m.minInterval = dt }

// SetTimeout changes the staleness timeout; zero disables staleness
// handling.
func (m *Measurement) SetTimeout(t float64) { m.timeout = t }

// StatusFlags returns the cached status contribution of the last accepted
// sample, zero once the sensor went stale.
func (m *Measurement) StatusFlags() Status { return m.flags }

// Stale reports whether the sensor exceeded its timeout since the last
// accepted sample.
func (m *Measurement) Stale() bool { return m.timeout > 0 && m.timer > m.timeout }

// increase advances the staleness timer by one predict step.
func (m *Measurement) increase(dt float64) {
	m.timer += dt
	if m.Stale() {
		m.flags = 0
	}
}

// updated records an accepted sample.
func (m *Measurement) updated() {
	m.timer = 0
	m.flags = m.model.StatusFlags()
}

func (m *Measurement) reset() {
	m.timer = m.timeout + 1
	m.flags = 0
	m.model.Reset()
}
