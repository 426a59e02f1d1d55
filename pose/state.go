package pose

import (
	"math"

	"github.com/skelterjohn/go.matrix"
)

// State vector layout. The orientation quaternion leads so its rows of the
// process noise are the ones refreshed every step.
const (
	stateQW = iota
	stateQX
	stateQY
	stateQZ
	stateRateX
	stateRateY
	stateRateZ
	statePosX
	statePosY
	statePosZ
	stateVelX
	stateVelY
	stateVelZ
	stateGyroBiasX
	stateGyroBiasY
	stateGyroBiasZ
	stateAccelBiasX
	stateAccelBiasY
	stateAccelBiasZ

	// StateDim is the dimension of the full state vector.
	StateDim
)

// Block names a contiguous sub-block of the state vector. Blocks can be
// deactivated individually; an inactive block holds its last estimate.
type Block int

const (
	BlockOrientation Block = iota
	BlockRate
	BlockPosition
	BlockVelocity
	BlockGyroBias
	BlockAccelBias
	numBlocks
)

var blockIndex = [numBlocks]int{stateQW, stateRateX, statePosX, stateVelX, stateGyroBiasX, stateAccelBiasX}
var blockDim = [numBlocks]int{4, 3, 3, 3, 3, 3}
var blockName = [numBlocks]string{"orientation", "rate", "position", "velocity", "gyro-bias", "accel-bias"}

func (b Block) String() string {
	if b < 0 || b >= numBlocks {
		return "unknown"
	}
	return blockName[b]
}

// State owns the mean vector and covariance of the filter, the per-block
// activity gates and the status bitmasks shared by all models.
type State struct {
	x      [StateDim]float64
	p      *matrix.DenseMatrix
	active [numBlocks]bool

	systemStatus      Status
	measurementStatus Status
	callbacks         []func(Status) bool
}

// NewState returns a reset state with every block active.
func NewState() *State {
	s := &State{}
	for b := range s.active {
		s.active[b] = true
	}
	s.Reset()
	return s
}

// Reset zeroes the estimate, seeds the identity orientation and clears both
// status masks. Activity gates and status callbacks survive a reset.
func (s *State) Reset() {
	for i := range s.x {
		s.x[i] = 0
	}
	s.x[stateQW] = 1
	s.p = matrix.Zeros(StateDim, StateDim)
	s.systemStatus = 0
	s.measurementStatus = 0
}

// Active reports whether a sub-block participates in prediction and
// correction.
func (s *State) Active(b Block) bool { return s.active[b] }

func (s *State) Activate(b Block)   { s.active[b] = true }
func (s *State) Deactivate(b Block) { s.active[b] = false }

func (s *State) Orientation() (w, x, y, z float64) {
	return s.x[stateQW], s.x[stateQX], s.x[stateQY], s.x[stateQZ]
}

// SetOrientation overwrites the orientation quaternion and renormalizes it.
func (s *State) SetOrientation(w, x, y, z float64) {
	s.x[stateQW], s.x[stateQX], s.x[stateQY], s.x[stateQZ] = w, x, y, z
	s.Normalize()
}

func (s *State) Rate() (x, y, z float64) {
	return s.x[stateRateX], s.x[stateRateY], s.x[stateRateZ]
}

func (s *State) Position() (x, y, z float64) {
	return s.x[statePosX], s.x[statePosY], s.x[statePosZ]
}

func (s *State) SetPosition(x, y, z float64) {
	s.x[statePosX], s.x[statePosY], s.x[statePosZ] = x, y, z
}

func (s *State) Velocity() (x, y, z float64) {
	return s.x[stateVelX], s.x[stateVelY], s.x[stateVelZ]
}

func (s *State) GyroBias() (x, y, z float64) {
	return s.x[stateGyroBiasX], s.x[stateGyroBiasY], s.x[stateGyroBiasZ]
}

func (s *State) AccelBias() (x, y, z float64) {
	return s.x[stateAccelBiasX], s.x[stateAccelBiasY], s.x[stateAccelBiasZ]
}

// Vector returns a copy of the mean state vector.
func (s *State) Vector() []float64 {
	x := make([]float64, StateDim)
	copy(x, s.x[:])
	return x
}

// SetVector overwrites the mean state vector and renormalizes the
// orientation.
func (s *State) SetVector(x []float64) {
	copy(s.x[:], x)
	s.Normalize()
}

// Covariance returns a copy of the full covariance matrix.
func (s *State) Covariance() *matrix.DenseMatrix {
	return s.p.Copy()
}

// SetCovariance overwrites the full covariance matrix.
func (s *State) SetCovariance(p *matrix.DenseMatrix) {
	s.p = p.Copy()
}

// CovarianceBlock returns a copy of the diagonal covariance block of b.
func (s *State) CovarianceBlock(b Block) *matrix.DenseMatrix {
	i0, n := blockIndex[b], blockDim[b]
	out := matrix.Zeros(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, s.p.Get(i0+i, i0+j))
		}
	}
	return out
}

// Normalize rescales the orientation quaternion to unit norm.
func (s *State) Normalize() {
	n := math.Sqrt(s.x[stateQW]*s.x[stateQW] + s.x[stateQX]*s.x[stateQX] +
		s.x[stateQY]*s.x[stateQY] + s.x[stateQZ]*s.x[stateQZ])
	if n < Small {
		s.x[stateQW], s.x[stateQX], s.x[stateQY], s.x[stateQZ] = 1, 0, 0, 0
		return
	}
	s.x[stateQW] /= n
	s.x[stateQX] /= n
	s.x[stateQY] /= n
	s.x[stateQZ] /= n
}

// Valid reports whether the mean vector is free of NaN and Inf.
func (s *State) Valid() bool {
	for i := 0; i < StateDim; i++ {
		if math.IsNaN(s.x[i]) || math.IsInf(s.x[i], 0) {
			return false
		}
	}
	return true
}

// rotation returns the body-to-world rotation matrix of the current
// quaternion.
func (s *State) rotation() (r [3][3]float64) {
	w, x, y, z := s.Orientation()
	r[0][0] = w*w + x*x - y*y - z*z
	r[0][1] = 2 * (x*y - w*z)
	r[0][2] = 2 * (x*z + w*y)
	r[1][0] = 2 * (x*y + w*z)
	r[1][1] = w*w - x*x + y*y - z*z
	r[1][2] = 2 * (y*z - w*x)
	r[2][0] = 2 * (x*z - w*y)
	r[2][1] = 2 * (y*z + w*x)
	r[2][2] = w*w - x*x - y*y + z*z
	return
}

// integrate applies one forward-Euler step to the mean of all active blocks.
func (s *State) integrate(dx [StateDim]float64, dt float64) {
	for b := Block(0); b < numBlocks; b++ {
		if !s.active[b] {
			continue
		}
		for i := blockIndex[b]; i < blockIndex[b]+blockDim[b]; i++ {
			s.x[i] += dx[i] * dt
		}
	}
}

// applyCorrection adds a gain-weighted innovation to the mean of all active
// blocks and renormalizes the orientation.
func (s *State) applyCorrection(dx *matrix.DenseMatrix) {
	for b := Block(0); b < numBlocks; b++ {
		if !s.active[b] {
			continue
		}
		for i := blockIndex[b]; i < blockIndex[b]+blockDim[b]; i++ {
			s.x[i] += dx.Get(i, 0)
		}
	}
	s.Normalize()
}

func (s *State) SystemStatus() Status      { return s.systemStatus }
func (s *State) MeasurementStatus() Status { return s.measurementStatus }

// InSystemStatus reports whether every flag in test is set in the system
// status.
func (s *State) InSystemStatus(test Status) bool { return s.systemStatus.HasAll(test) }

// SetSystemStatus replaces the system status. Registered callbacks may veto
// the change; the return value reports whether it was applied.
func (s *State) SetSystemStatus(status Status) bool {
	if status == s.systemStatus {
		return true
	}
	for _, cb := range s.callbacks {
		if !cb(status) {
			return false
		}
	}
	logStatusChange("system status", s.systemStatus, status)
	s.systemStatus = status
	return true
}

func (s *State) SetMeasurementStatus(status Status) bool {
	if status == s.measurementStatus {
		return true
	}
	logStatusChange("measurement status", s.measurementStatus, status)
	s.measurementStatus = status
	return true
}

// UpdateSystemStatus applies a clear mask then a set mask atomically.
func (s *State) UpdateSystemStatus(set, clear Status) bool {
	return s.SetSystemStatus(s.systemStatus&^clear | set)
}

func (s *State) UpdateMeasurementStatus(set, clear Status) bool {
	return s.SetMeasurementStatus(s.measurementStatus&^clear | set)
}

// AddSystemStatusCallback registers a veto callback invoked with the proposed
// status before any system status change is applied.
func (s *State) AddSystemStatusCallback(cb func(Status) bool) {
	s.callbacks = append(s.callbacks, cb)
}
