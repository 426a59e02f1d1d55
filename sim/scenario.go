// Package sim synthesizes sensor data for known trajectories and drives the
// estimator through them, so filter behavior can be checked against ground
// truth without hardware.
package sim

import (
	"errors"
	"sort"

	"github.com/roversense/posekf/pose"
	"github.com/westphae/quaternion"
)

// Truth is the exact vehicle state of a scenario at one instant. Velocity and
// acceleration are in the world frame, the rate in the body frame.
type Truth struct {
	Roll, Pitch, Yaw float64
	Position         [3]float64
	Velocity         [3]float64
	Acceleration     [3]float64
	Rate             [3]float64
}

// Scenario delivers ground truth over a time span.
type Scenario interface {
	BeginTime() float64
	EndTime() float64
	Truth(t float64) (Truth, error)
}

// PiecewiseScenario interpolates position and attitude linearly between
// breakpoints. Velocity is the segment slope; body rates are derived from the
// attitude quaternion.
type PiecewiseScenario struct {
	T                []float64
	X, Y, Z          []float64
	Roll, Pitch, Yaw []float64
}

func (s *PiecewiseScenario) BeginTime() float64 { return s.T[0] }
func (s *PiecewiseScenario) EndTime() float64   { return s.T[len(s.T)-1] }

func (s *PiecewiseScenario) segment(t float64) (ix int, f float64, err error) {
	if t < s.T[0] || t > s.T[len(s.T)-1] {
		return 0, 0, errors.New("sim: time outside scenario")
	}
	ix = 0
	if t > s.T[0] {
		ix = sort.SearchFloat64s(s.T, t) - 1
	}
	if ix > len(s.T)-2 {
		ix = len(s.T) - 2
	}
	f = (t - s.T[ix]) / (s.T[ix+1] - s.T[ix])
	return ix, f, nil
}

func lerp(a []float64, ix int, f float64) float64 {
	return (1-f)*a[ix] + f*a[ix+1]
}

func (s *PiecewiseScenario) attitude(t float64) (w, x, y, z float64) {
	ix, f, err := s.segment(t)
	if err != nil {
		return 1, 0, 0, 0
	}
	return pose.ToQuaternion(lerp(s.Roll, ix, f), lerp(s.Pitch, ix, f), lerp(s.Yaw, ix, f))
}

func (s *PiecewiseScenario) Truth(t float64) (Truth, error) {
	ix, f, err := s.segment(t)
	if err != nil {
		return Truth{}, err
	}
	dt := s.T[ix+1] - s.T[ix]
	tr := Truth{
		Roll:  lerp(s.Roll, ix, f),
		Pitch: lerp(s.Pitch, ix, f),
		Yaw:   lerp(s.Yaw, ix, f),
		Position: [3]float64{
			lerp(s.X, ix, f), lerp(s.Y, ix, f), lerp(s.Z, ix, f),
		},
		Velocity: [3]float64{
			(s.X[ix+1] - s.X[ix]) / dt,
			(s.Y[ix+1] - s.Y[ix]) / dt,
			(s.Z[ix+1] - s.Z[ix]) / dt,
		},
	}

	// ω = 2 q⁻¹ ⊗ q̇, with q̇ from a finite difference across the step.
	const ddt = 1e-3
	t1 := t + ddt
	if t1 > s.EndTime() {
		t1 = s.EndTime()
	}
	t0 := t1 - ddt
	w0, x0, y0, z0 := s.attitude(t0)
	w1, x1, y1, z1 := s.attitude(t1)
	q := quaternion.Quaternion{W: w0, X: x0, Y: y0, Z: z0}
	qdot := quaternion.Quaternion{
		W: (w1 - w0) / ddt, X: (x1 - x0) / ddt,
		Y: (y1 - y0) / ddt, Z: (z1 - z0) / ddt,
	}
	omega := quaternion.Prod(q.Conj(), qdot)
	tr.Rate = [3]float64{2 * omega.X, 2 * omega.Y, 2 * omega.Z}
	return tr, nil
}

// Standstill keeps the robot motionless for the given duration.
func Standstill(duration float64) *PiecewiseScenario {
	return &PiecewiseScenario{
		T:    []float64{0, duration},
		X:    []float64{0, 0},
		Y:    []float64{0, 0},
		Z:    []float64{0, 0},
		Roll: []float64{0, 0}, Pitch: []float64{0, 0}, Yaw: []float64{0, 0},
	}
}

// StraightLine drives at constant velocity along the x axis.
func StraightLine(speed, duration float64) *PiecewiseScenario {
	return &PiecewiseScenario{
		T:    []float64{0, duration},
		X:    []float64{0, speed * duration},
		Y:    []float64{0, 0},
		Z:    []float64{0, 0},
		Roll: []float64{0, 0}, Pitch: []float64{0, 0}, Yaw: []float64{0, 0},
	}
}

// Circuit drives a rectangle with 2 s turns on the spot at each corner.
func Circuit(side, speed float64) *PiecewiseScenario {
	leg := side / speed
	const turn = 2.0
	t := make([]float64, 0, 9)
	now := 0.0
	for i := 0; i < 4; i++ {
		t = append(t, now)
		now += leg
		t = append(t, now)
		now += turn
	}
	t = append(t, now)

	yawStep := 90 * pose.Deg
	s := &PiecewiseScenario{T: t}
	x, y, yaw := 0.0, 0.0, 0.0
	for i := 0; i < 4; i++ {
		s.X = append(s.X, x)
		s.Y = append(s.Y, y)
		s.Yaw = append(s.Yaw, yaw)
		switch i {
		case 0:
			x += side
		case 1:
			y += side
		case 2:
			x -= side
		case 3:
			y -= side
		}
		s.X = append(s.X, x)
		s.Y = append(s.Y, y)
		s.Yaw = append(s.Yaw, yaw)
		yaw += yawStep
	}
	s.X = append(s.X, x)
	s.Y = append(s.Y, y)
	s.Yaw = append(s.Yaw, yaw)
	n := len(s.T)
	s.Z = make([]float64, n)
	s.Roll = make([]float64, n)
	s.Pitch = make([]float64, n)
	return s
}
