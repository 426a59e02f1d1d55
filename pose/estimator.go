package pose

import (
	"fmt"
	"math"

	"github.com/skelterjohn/go.matrix"
)

// EstimatorConfig collects the process model parameters and the built-in
// pseudo-measurement parameters.
type EstimatorConfig struct {
	System   SystemConfig
	Rate     RateConfig
	Gravity  GravityConfig
	ZeroRate ZeroRateConfig

	// AlignmentTime is how long the filter stays in ALIGNMENT after a
	// reset, correcting only from the IMU itself. Zero disables the
	// alignment phase.
	AlignmentTime float64
}

func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		System:   DefaultSystemConfig(),
		Rate:     DefaultRateConfig(),
		Gravity:  DefaultGravityConfig(),
		ZeroRate: DefaultZeroRateConfig(),
	}
}

// Estimator owns the filter state, the process model, the global reference
// and the registered measurement models, and runs the predict/correct loop.
// It performs no internal locking; Predict and Correct must be serialized by
// the caller.
type Estimator struct {
	cfg    EstimatorConfig
	state  *State
	system SystemModel
	ref    *GlobalReference

	measurements []*Measurement
	byName       map[string]*Measurement

	rate     *Measurement
	gravity  *Measurement
	zeroRate *Measurement

	alignmentTimer float64
	started        bool
}

// NewEstimator builds an estimator with the quaternion process model and the
// rate, gravity and zero-rate pseudo-measurements registered. Absolute
// sensors (GPS, height, magnetic, heading) are registered by the caller via
// AddMeasurement before the first Predict.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	e := &Estimator{
		cfg:    cfg,
		state:  NewState(),
		system: NewQuaternionSystemModel(cfg.System),
		ref:    NewGlobalReference(),
		byName: make(map[string]*Measurement),
	}
	e.rate = e.add("rate", NewRateModel(cfg.Rate), true)
	e.gravity = e.add("gravity", NewGravityModel(cfg.Gravity, cfg.System.Gravity), true)
	e.zeroRate = e.add("zerorate", NewZeroRateModel(cfg.ZeroRate), true)
	e.Reset()
	return e
}

func (e *Estimator) add(name string, model MeasurementModel, pseudo bool) *Measurement {
	m := newMeasurement(name, model, pseudo)
	e.measurements = append(e.measurements, m)
	e.byName[name] = m
	return m
}

// AddMeasurement registers a model under a unique name. Registration is only
// supported before the first Predict call.
func (e *Estimator) AddMeasurement(name string, model MeasurementModel) (*Measurement, error) {
	if e.started {
		return nil, fmt.Errorf("pose: cannot register %q after the filter started", name)
	}
	if _, dup := e.byName[name]; dup {
		return nil, fmt.Errorf("pose: measurement %q already registered", name)
	}
	return e.add(name, model, false), nil
}

// Measurement returns the registered measurement with the given name, or nil.
func (e *Estimator) Measurement(name string) *Measurement { return e.byName[name] }

func (e *Estimator) State() *State { return e.state }

func (e *Estimator) Reference() *GlobalReference { return e.ref }

func (e *Estimator) SystemModel() SystemModel { return e.system }

func (e *Estimator) SystemStatus() Status { return e.state.SystemStatus() }

func (e *Estimator) MeasurementStatus() Status { return e.state.MeasurementStatus() }

// InSystemStatus reports whether every flag in test is currently set.
func (e *Estimator) InSystemStatus(test Status) bool { return e.state.InSystemStatus(test) }

// Reset reinitializes the state, priors and measurement lifecycles. The
// global reference keeps its anchor; the next GPS fix re-anchors it through
// the fresh state.
func (e *Estimator) Reset() {
	e.state.Reset()
	e.system.Prior(e.state)
	for _, m := range e.measurements {
		m.reset()
	}
	e.alignmentTimer = 0
	if e.cfg.AlignmentTime > 0 {
		e.state.SetSystemStatus(StatusAlignment)
	} else {
		e.state.SetSystemStatus(StatusDegraded)
	}
}

// Predict advances the filter by dt seconds using one inertial sample, runs
// the IMU-driven pseudo-measurements and refreshes the aggregate status.
// A dt below -1 forces a full reset; any other negative dt is ignored.
func (e *Estimator) Predict(imu IMUSample, dt float64) error {
	if dt < -1 {
		e.Reset()
		return nil
	}
	if dt < 0 {
		return nil
	}
	e.started = true

	// The gyro observation runs before the prediction so the rate state
	// tracks the current reading.
	if err := e.correct(e.rate, NewUpdate(imu.Rate[0], imu.Rate[1], imu.Rate[2])); err != nil {
		return err
	}

	e.system.PrepareUpdate(e.state, imu)
	if dt > 0 {
		a := e.system.StateJacobian(e.state)
		q := e.system.SystemNoise(e.state)
		dx := e.system.Derivative(e.state)

		e.state.integrate(dx, dt)
		f := matrix.Sum(matrix.Eye(StateDim), matrix.Scaled(a, dt))
		p := matrix.Sum(matrix.Product(f, matrix.Product(e.state.p, f.Transpose())), matrix.Scaled(q, dt))
		e.state.p = symmetrize(p)
		e.state.Normalize()
	}
	if !e.state.Valid() {
		e.Reset()
		return ErrInvalidMeasurement
	}

	// Propagation status follows what the sensors currently observe.
	e.state.UpdateSystemStatus(e.system.StatusFlags(e.state), StatusEstimation)

	// Remaining IMU-driven pseudo corrections.
	if err := e.correct(e.gravity, NewUpdate(imu.Acceleration[0], imu.Acceleration[1], imu.Acceleration[2])); err != nil {
		return err
	}
	if err := e.correct(e.zeroRate, NewUpdate(imu.Rate[2])); err != nil {
		return err
	}

	// Lifecycle timers and aggregate measurement status. Pseudo
	// measurements derive from the IMU itself and do not count as
	// external observability.
	var flags Status
	for _, m := range e.measurements {
		m.increase(dt)
		if !m.pseudo {
			flags |= m.flags
		}
	}
	e.state.SetMeasurementStatus(flags)

	// Alignment and readiness.
	if e.state.SystemStatus().Has(StatusAlignment) {
		e.alignmentTimer += dt
		if e.alignmentTimer >= e.cfg.AlignmentTime {
			e.state.UpdateSystemStatus(StatusDegraded, StatusAlignment)
		}
	} else if e.state.InSystemStatus(StatusRollPitch | StatusYaw | StatusPositionXY | StatusPositionZ) {
		e.state.UpdateSystemStatus(StatusReady, StatusDegraded)
	} else {
		e.state.UpdateSystemStatus(StatusDegraded, StatusReady)
	}
	return nil
}

// Correct applies one absolute sensor sample to the named measurement.
// During the alignment phase external corrections are dropped silently.
func (e *Estimator) Correct(name string, u Update) error {
	m, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMeasurement, name)
	}
	if e.state.SystemStatus().Has(StatusAlignment) {
		return nil
	}
	return e.correct(m, u)
}

func (e *Estimator) correct(m *Measurement, u Update) error {
	if !m.enabled {
		return nil
	}
	if m.minInterval > 0 && m.timer < m.minInterval {
		return nil
	}
	model := m.model
	if !model.ActiveFor(e.state.SystemStatus()) {
		return nil
	}
	// Reject non-finite samples before BeforeUpdate so anchoring hooks never
	// see them either.
	for _, v := range u.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrInvalidMeasurement, m.name)
		}
	}
	if !model.BeforeUpdate(e, u, m.Stale()) {
		return fmt.Errorf("%w: %s suppressed the update", ErrNoReference, m.name)
	}

	dim := model.Dimension()
	y := model.MeasurementVector(u, e.state)
	yPred := model.ExpectedValue(e.state)
	if len(y) < dim || len(yPred) < dim {
		return fmt.Errorf("%w: %s", ErrInvalidMeasurement, m.name)
	}
	innovation := matrix.Zeros(dim, 1)
	for i := 0; i < dim; i++ {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) || math.IsNaN(yPred[i]) {
			return fmt.Errorf("%w: %s", ErrInvalidMeasurement, m.name)
		}
		innovation.Set(i, 0, y[i]-yPred[i])
	}

	c := model.Jacobian(e.state)
	r := model.NoiseCovariance()
	if u.HasCovariance() {
		r = u.Covariance()
	}

	pct := matrix.Product(e.state.p, c.Transpose())
	s := matrix.Sum(matrix.Product(c, pct), r)
	sInv, err := s.Inverse()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSingularInnovation, m.name)
	}
	if gate, ok := model.(innovationGate); ok && gate.MaxError() > 0 {
		x2 := matrix.Product(innovation.Transpose(), matrix.Product(sInv, innovation))
		if x2.Get(0, 0) > gate.MaxError() {
			return nil
		}
	}
	k := matrix.Product(pct, sInv)

	e.state.applyCorrection(matrix.Product(k, innovation))
	p := matrix.Product(matrix.Difference(matrix.Eye(StateDim), matrix.Product(k, c)), e.state.p)
	e.state.p = symmetrize(p)

	m.updated()
	return nil
}

// symmetrize guards against round-off skew accumulating in the covariance.
func symmetrize(p *matrix.DenseMatrix) *matrix.DenseMatrix {
	return matrix.Scaled(matrix.Sum(p, p.Transpose()), 0.5)
}

// Orientation returns the current attitude quaternion.
func (e *Estimator) Orientation() (w, x, y, z float64) { return e.state.Orientation() }

// RollPitchYaw returns the current attitude as Euler angles.
func (e *Estimator) RollPitchYaw() (roll, pitch, yaw float64) {
	return FromQuaternion(e.state.Orientation())
}

// RollPitchYawUncertainty returns the linearized standard deviation of the
// Euler angles.
func (e *Estimator) RollPitchYawUncertainty() (droll, dpitch, dyaw float64) {
	w, x, y, z := e.state.Orientation()
	p := e.state.p
	return VarFromQuaternion(w, x, y, z,
		math.Sqrt(p.Get(stateQW, stateQW)),
		math.Sqrt(p.Get(stateQX, stateQX)),
		math.Sqrt(p.Get(stateQY, stateQY)),
		math.Sqrt(p.Get(stateQZ, stateQZ)))
}

func (e *Estimator) Position() (x, y, z float64) { return e.state.Position() }

func (e *Estimator) Velocity() (x, y, z float64) { return e.state.Velocity() }

func (e *Estimator) Rate() (x, y, z float64) { return e.state.Rate() }

func (e *Estimator) GyroBias() (x, y, z float64) { return e.state.GyroBias() }

func (e *Estimator) AccelBias() (x, y, z float64) { return e.state.AccelBias() }

// GyroBiasUncertainty returns the standard deviation of the gyro bias
// estimate.
func (e *Estimator) GyroBiasUncertainty() (x, y, z float64) {
	p := e.state.p
	return math.Sqrt(p.Get(stateGyroBiasX, stateGyroBiasX)),
		math.Sqrt(p.Get(stateGyroBiasY, stateGyroBiasY)),
		math.Sqrt(p.Get(stateGyroBiasZ, stateGyroBiasZ))
}

// AccelBiasUncertainty returns the standard deviation of the accelerometer
// bias estimate.
func (e *Estimator) AccelBiasUncertainty() (x, y, z float64) {
	p := e.state.p
	return math.Sqrt(p.Get(stateAccelBiasX, stateAccelBiasX)),
		math.Sqrt(p.Get(stateAccelBiasY, stateAccelBiasY)),
		math.Sqrt(p.Get(stateAccelBiasZ, stateAccelBiasZ))
}

// GlobalPosition maps the current local position to geodetic coordinates.
func (e *Estimator) GlobalPosition() (lat, lon, alt float64, err error) {
	x, y, z := e.state.Position()
	lat, lon, err = e.ref.ToWGS84(x, y)
	if err != nil {
		return 0, 0, 0, err
	}
	return lat, lon, e.ref.Altitude() + z, nil
}

// ObservablePose returns the current pose with every component whose status
// flag is not set zeroed out, so consumers never act on unobserved axes.
func (e *Estimator) ObservablePose() (x, y, z, roll, pitch, yaw float64) {
	x, y, z = e.state.Position()
	roll, pitch, yaw = e.RollPitchYaw()
	status := e.state.SystemStatus()
	if !status.Has(StatusPositionXY) {
		x, y = 0, 0
	}
	if !status.Has(StatusPositionZ) {
		z = 0
	}
	if !status.Has(StatusRollPitch) {
		roll, pitch = 0, 0
	}
	if !status.Has(StatusYaw) {
		yaw = 0
	}
	return
}
