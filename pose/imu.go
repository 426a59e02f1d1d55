package pose

import "github.com/skelterjohn/go.matrix"

// IMUSample carries one inertial reading: specific force in the body frame,
// m/s², and angular rate in the body frame, rad/s.
type IMUSample struct {
	Acceleration [3]float64
	Rate         [3]float64
}

// GyroConfig parameterizes the gyro bias sub-model.
type GyroConfig struct {
	StdDev float64 // rate noise, rad/s
	Drift  float64 // bias random walk, rad/s per √s
}

func DefaultGyroConfig() GyroConfig {
	return GyroConfig{StdDev: 1 * Deg, Drift: 1e-2 * Deg}
}

// AccelerometerConfig parameterizes the accelerometer bias sub-model.
type AccelerometerConfig struct {
	StdDev float64 // m/s²
	Drift  float64 // bias random walk, m/s² per √s
}

func DefaultAccelerometerConfig() AccelerometerConfig {
	return AccelerometerConfig{StdDev: 1e-2, Drift: 1e-6}
}

// GyroModel estimates a slowly drifting gyro bias. The true body rate is the
// raw reading plus the estimated bias.
type GyroModel struct {
	cfg GyroConfig
}

func NewGyroModel(cfg GyroConfig) *GyroModel { return &GyroModel{cfg: cfg} }

func (g *GyroModel) Config() GyroConfig { return g.cfg }

// Correct applies the estimated bias to a raw rate reading.
func (g *GyroModel) Correct(s *State, raw [3]float64) (x, y, z float64) {
	bx, by, bz := s.GyroBias()
	return raw[0] + bx, raw[1] + by, raw[2] + bz
}

func (g *GyroModel) prior(s *State) {
	v := (5 * Deg) * (5 * Deg)
	s.p.Set(stateGyroBiasX, stateGyroBiasX, v)
	s.p.Set(stateGyroBiasY, stateGyroBiasY, v)
	s.p.Set(stateGyroBiasZ, stateGyroBiasZ, v)
}

func (g *GyroModel) noise(q *matrix.DenseMatrix) {
	d := g.cfg.Drift * g.cfg.Drift
	q.Set(stateGyroBiasX, stateGyroBiasX, d)
	q.Set(stateGyroBiasY, stateGyroBiasY, d)
	q.Set(stateGyroBiasZ, stateGyroBiasZ, d)
}

// AccelerometerModel estimates a slowly drifting accelerometer bias. The
// true specific force is the raw reading plus the estimated bias.
type AccelerometerModel struct {
	cfg AccelerometerConfig
}

func NewAccelerometerModel(cfg AccelerometerConfig) *AccelerometerModel {
	return &AccelerometerModel{cfg: cfg}
}

func (a *AccelerometerModel) Config() AccelerometerConfig { return a.cfg }

// Correct applies the estimated bias to a raw accelerometer reading.
func (a *AccelerometerModel) Correct(s *State, raw [3]float64) (x, y, z float64) {
	bx, by, bz := s.AccelBias()
	return raw[0] + bx, raw[1] + by, raw[2] + bz
}

// The accelerometer bias starts fully trusted; only the random walk opens
// its covariance.
func (a *AccelerometerModel) prior(s *State) {}

func (a *AccelerometerModel) noise(q *matrix.DenseMatrix) {
	d := a.cfg.Drift * a.cfg.Drift
	q.Set(stateAccelBiasX, stateAccelBiasX, d)
	q.Set(stateAccelBiasY, stateAccelBiasY, d)
	q.Set(stateAccelBiasZ, stateAccelBiasZ, d)
}
