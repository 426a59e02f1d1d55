package pose

import "github.com/skelterjohn/go.matrix"

// SystemModel is the process side of the filter: the state derivative, its
// linearization and the injected process noise, all per unit time.
type SystemModel interface {
	// Prior seeds the covariance blocks owned by the model after a reset.
	Prior(s *State)
	// PrepareUpdate captures the working inertial input for the next step.
	PrepareUpdate(s *State, imu IMUSample)
	Derivative(s *State) [StateDim]float64
	StateJacobian(s *State) *matrix.DenseMatrix
	SystemNoise(s *State) *matrix.DenseMatrix
	// StatusFlags derives the propagation status from the current
	// measurement status.
	StatusFlags(s *State) Status
}

// SystemConfig parameterizes the kinematic process model.
type SystemConfig struct {
	Gravity                   float64 // world-frame z gravity, m/s²
	AngularAccelerationStdDev float64 // rate random walk, rad/s²
	VelocityStdDev            float64 // position random walk, m/s
	Gyro                      GyroConfig
	Accelerometer             AccelerometerConfig
}

func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Gravity:                   DefaultGravity,
		AngularAccelerationStdDev: 360 * Deg,
		VelocityStdDev:            0,
		Gyro:                      DefaultGyroConfig(),
		Accelerometer:             DefaultAccelerometerConfig(),
	}
}

// QuaternionSystemModel propagates quaternion attitude kinematics together
// with position, velocity and the inertial bias sub-models.
//
// Velocity and position derivatives are gated by the system status: an
// unobserved quantity is not propagated, so its estimate holds instead of
// drifting on integrated noise.
type QuaternionSystemModel struct {
	cfg           SystemConfig
	gyro          *GyroModel
	accelerometer *AccelerometerModel

	rate         [3]float64 // working body rate for the current step
	acceleration [3]float64 // working specific force for the current step
}

func NewQuaternionSystemModel(cfg SystemConfig) *QuaternionSystemModel {
	return &QuaternionSystemModel{
		cfg:           cfg,
		gyro:          NewGyroModel(cfg.Gyro),
		accelerometer: NewAccelerometerModel(cfg.Accelerometer),
	}
}

func (m *QuaternionSystemModel) Config() SystemConfig { return m.cfg }

func (m *QuaternionSystemModel) Gyro() *GyroModel { return m.gyro }

func (m *QuaternionSystemModel) Accelerometer() *AccelerometerModel { return m.accelerometer }

func (m *QuaternionSystemModel) Prior(s *State) {
	m.gyro.prior(s)
	m.accelerometer.prior(s)
}

// PrepareUpdate captures the working rate and acceleration, preferring the
// estimated rate state over the raw gyro where that block is active.
func (m *QuaternionSystemModel) PrepareUpdate(s *State, imu IMUSample) {
	if s.Active(BlockRate) {
		m.rate[0], m.rate[1], m.rate[2] = s.Rate()
	} else {
		m.rate[0], m.rate[1], m.rate[2] = m.gyro.Correct(s, imu.Rate)
	}
	m.acceleration[0], m.acceleration[1], m.acceleration[2] = m.accelerometer.Correct(s, imu.Acceleration)
}

func (m *QuaternionSystemModel) Derivative(s *State) (dx [StateDim]float64) {
	w, x, y, z := s.Orientation()
	wx, wy, wz := m.rate[0], m.rate[1], m.rate[2]
	ax, ay, az := m.acceleration[0], m.acceleration[1], m.acceleration[2]

	// q̇ = ½ q ⊗ [0, ω]
	dx[stateQW] = 0.5 * (-x*wx - y*wy - z*wz)
	dx[stateQX] = 0.5 * (w*wx + y*wz - z*wy)
	dx[stateQY] = 0.5 * (w*wy + z*wx - x*wz)
	dx[stateQZ] = 0.5 * (w*wz + x*wy - y*wx)

	// The rate state itself is driven purely by process noise.

	status := s.SystemStatus()
	if s.Active(BlockVelocity) {
		r := s.rotation()
		if status.Has(StatusVelocityXY) {
			dx[stateVelX] = r[0][0]*ax + r[0][1]*ay + r[0][2]*az
			dx[stateVelY] = r[1][0]*ax + r[1][1]*ay + r[1][2]*az
		}
		if status.Has(StatusVelocityZ) {
			dx[stateVelZ] = r[2][0]*ax + r[2][1]*ay + r[2][2]*az + m.cfg.Gravity
		}
	}
	if s.Active(BlockPosition) {
		vx, vy, vz := s.Velocity()
		if status.Has(StatusPositionXY) {
			dx[statePosX] = vx
			dx[statePosY] = vy
		}
		if status.Has(StatusPositionZ) {
			dx[statePosZ] = vz
		}
	}
	return
}

func (m *QuaternionSystemModel) StateJacobian(s *State) *matrix.DenseMatrix {
	a := matrix.Zeros(StateDim, StateDim)
	w, x, y, z := s.Orientation()
	wx, wy, wz := m.rate[0], m.rate[1], m.rate[2]
	ax, ay, az := m.acceleration[0], m.acceleration[1], m.acceleration[2]

	a.Set(stateQW, stateQX, -0.5*wx)
	a.Set(stateQW, stateQY, -0.5*wy)
	a.Set(stateQW, stateQZ, -0.5*wz)
	a.Set(stateQX, stateQW, +0.5*wx)
	a.Set(stateQX, stateQY, +0.5*wz)
	a.Set(stateQX, stateQZ, -0.5*wy)
	a.Set(stateQY, stateQW, +0.5*wy)
	a.Set(stateQY, stateQX, -0.5*wz)
	a.Set(stateQY, stateQZ, +0.5*wx)
	a.Set(stateQZ, stateQW, +0.5*wz)
	a.Set(stateQZ, stateQX, +0.5*wy)
	a.Set(stateQZ, stateQY, -0.5*wx)

	// The quaternion derivative couples into the rate source: the rate
	// state when active, otherwise the gyro bias behind the raw reading.
	rateCol := -1
	if s.Active(BlockRate) {
		rateCol = stateRateX
	} else if s.Active(BlockGyroBias) {
		rateCol = stateGyroBiasX
	}
	if rateCol >= 0 {
		a.Set(stateQW, rateCol+0, -0.5*x)
		a.Set(stateQW, rateCol+1, -0.5*y)
		a.Set(stateQW, rateCol+2, -0.5*z)
		a.Set(stateQX, rateCol+0, +0.5*w)
		a.Set(stateQX, rateCol+1, -0.5*z)
		a.Set(stateQX, rateCol+2, +0.5*y)
		a.Set(stateQY, rateCol+0, +0.5*z)
		a.Set(stateQY, rateCol+1, +0.5*w)
		a.Set(stateQY, rateCol+2, -0.5*x)
		a.Set(stateQZ, rateCol+0, -0.5*y)
		a.Set(stateQZ, rateCol+1, +0.5*x)
		a.Set(stateQZ, rateCol+2, +0.5*w)
	}

	status := s.SystemStatus()
	if s.Active(BlockVelocity) {
		r := s.rotation()
		if status.Has(StatusVelocityXY) {
			a.Set(stateVelX, stateQW, 2*(+w*ax-z*ay+y*az))
			a.Set(stateVelX, stateQX, 2*(+x*ax+y*ay+z*az))
			a.Set(stateVelX, stateQY, 2*(-y*ax+x*ay+w*az))
			a.Set(stateVelX, stateQZ, 2*(-z*ax-w*ay+x*az))
			a.Set(stateVelY, stateQW, 2*(+z*ax+w*ay-x*az))
			a.Set(stateVelY, stateQX, 2*(+y*ax-x*ay-w*az))
			a.Set(stateVelY, stateQY, 2*(+x*ax+y*ay+z*az))
			a.Set(stateVelY, stateQZ, 2*(+w*ax-z*ay+y*az))
			if s.Active(BlockAccelBias) {
				a.Set(stateVelX, stateAccelBiasX, r[0][0])
				a.Set(stateVelX, stateAccelBiasY, r[0][1])
				a.Set(stateVelX, stateAccelBiasZ, r[0][2])
				a.Set(stateVelY, stateAccelBiasX, r[1][0])
				a.Set(stateVelY, stateAccelBiasY, r[1][1])
				a.Set(stateVelY, stateAccelBiasZ, r[1][2])
			}
		}
		if status.Has(StatusVelocityZ) {
			a.Set(stateVelZ, stateQW, 2*(-y*ax+x*ay+w*az))
			a.Set(stateVelZ, stateQX, 2*(+z*ax+w*ay-x*az))
			a.Set(stateVelZ, stateQY, 2*(-w*ax+z*ay-y*az))
			a.Set(stateVelZ, stateQZ, 2*(+x*ax+y*ay+z*az))
			if s.Active(BlockAccelBias) {
				a.Set(stateVelZ, stateAccelBiasX, r[2][0])
				a.Set(stateVelZ, stateAccelBiasY, r[2][1])
				a.Set(stateVelZ, stateAccelBiasZ, r[2][2])
			}
		}
	}
	if s.Active(BlockPosition) {
		if status.Has(StatusPositionXY) {
			a.Set(statePosX, stateVelX, 1)
			a.Set(statePosY, stateVelY, 1)
		}
		if status.Has(StatusPositionZ) {
			a.Set(statePosZ, stateVelZ, 1)
		}
	}
	return a
}

// SystemNoise rebuilds the full diagonal noise matrix every step; the
// quaternion terms depend on the current orientation.
func (m *QuaternionSystemModel) SystemNoise(s *State) *matrix.DenseMatrix {
	q := matrix.Zeros(StateDim, StateDim)
	w, x, y, z := s.Orientation()

	rv := 0.25 * m.cfg.Gyro.StdDev * m.cfg.Gyro.StdDev
	q.Set(stateQW, stateQW, rv*(x*x+y*y+z*z))
	q.Set(stateQX, stateQX, rv*(w*w+y*y+z*z))
	q.Set(stateQY, stateQY, rv*(w*w+x*x+z*z))
	q.Set(stateQZ, stateQZ, rv*(w*w+x*x+y*y))

	if s.Active(BlockRate) {
		aa := m.cfg.AngularAccelerationStdDev * m.cfg.AngularAccelerationStdDev
		q.Set(stateRateX, stateRateX, aa)
		q.Set(stateRateY, stateRateY, aa)
		q.Set(stateRateZ, stateRateZ, aa)
	}

	vv := m.cfg.VelocityStdDev * m.cfg.VelocityStdDev
	q.Set(statePosX, statePosX, vv)
	q.Set(statePosY, statePosY, vv)
	q.Set(statePosZ, statePosZ, vv)

	av := m.cfg.Accelerometer.StdDev * m.cfg.Accelerometer.StdDev
	q.Set(stateVelX, stateVelX, av)
	q.Set(stateVelY, stateVelY, av)
	q.Set(stateVelZ, stateVelZ, av)

	if s.Active(BlockGyroBias) {
		m.gyro.noise(q)
	}
	if s.Active(BlockAccelBias) {
		m.accelerometer.noise(q)
	}
	return q
}

func (m *QuaternionSystemModel) StatusFlags(s *State) Status {
	flags := s.MeasurementStatus()
	if flags.Has(StatusPositionXY) {
		flags |= StatusVelocityXY
	}
	if flags.Has(StatusPositionZ) {
		flags |= StatusVelocityZ
	}
	if flags.Has(StatusVelocityXY) {
		flags |= StatusRollPitch
	}
	if flags.Has(StatusRollPitch) {
		flags |= StatusRateXY
	}
	if !s.Active(BlockRate) {
		// Rate comes straight from the gyro.
		flags |= StatusRateXY | StatusRateZ
	}
	return flags
}
