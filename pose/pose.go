// Package pose implements an extended Kalman filter estimating a mobile
// robot's orientation, position, velocity and inertial sensor biases from
// IMU readings fused with GPS, barometric height and magnetic measurements.
package pose

import (
	"errors"
	"math"
)

const (
	Pi    = math.Pi
	Deg   = Pi / 180 // radians per degree
	Small = 1e-9
	Big   = 1e9

	// DefaultGravity is the world-frame z component of gravity, m/s².
	DefaultGravity = -9.8065
)

var (
	ErrNoReference        = errors.New("pose: no global reference")
	ErrInvalidMeasurement = errors.New("pose: invalid measurement")
	ErrSingularInnovation = errors.New("pose: cannot invert innovation covariance")
	ErrUnknownMeasurement = errors.New("pose: unknown measurement")
)
