package sim

import (
	"math"
	"math/rand"

	"github.com/roversense/posekf/pose"
	"github.com/westphae/quaternion"
)

// SensorConfig describes the simulated sensor suite: where the local frame is
// anchored, what the magnetic field looks like and how corrupted the readings
// are. Biases are the true sensor offsets the filter is expected to estimate.
type SensorConfig struct {
	OriginLat float64 // rad
	OriginLon float64 // rad
	OriginAlt float64 // m

	Declination float64
	Inclination float64
	Magnitude   float64

	GyroNoise   float64 // rad/s
	GyroBias    [3]float64
	AccelNoise  float64 // m/s²
	AccelBias   [3]float64
	GPSNoise    float64 // m
	GPSVelNoise float64 // m/s
	HeightNoise float64 // m
	MagNoise    float64

	Seed int64
}

func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		OriginLat:   49.0 * pose.Deg,
		OriginLon:   8.4 * pose.Deg,
		OriginAlt:   115,
		Inclination: 60 * pose.Deg,
		Magnitude:   20,
		Seed:        1,
	}
}

// Sensors turns ground truth into raw sensor readings.
type Sensors struct {
	cfg   SensorConfig
	ref   *pose.GlobalReference
	field [3]float64 // world-frame magnetic field
	rng   *rand.Rand
}

func NewSensors(cfg SensorConfig) *Sensors {
	s := &Sensors{
		cfg: cfg,
		ref: pose.NewGlobalReference(),
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	s.ref.SetPosition(cfg.OriginLat, cfg.OriginLon)
	s.ref.SetAltitude(cfg.OriginAlt)
	sinInc, cosInc := math.Sincos(cfg.Inclination)
	sinDec, cosDec := math.Sincos(cfg.Declination)
	s.field = [3]float64{
		cfg.Magnitude * cosInc * cosDec,
		cfg.Magnitude * -sinDec,
		cfg.Magnitude * -sinInc * cosDec,
	}
	return s
}

func (s *Sensors) noise(sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return s.rng.NormFloat64() * sigma
}

// body rotates a world-frame vector into the body frame of the truth
// attitude.
func body(tr Truth, v [3]float64) [3]float64 {
	w, x, y, z := pose.ToQuaternion(tr.Roll, tr.Pitch, tr.Yaw)
	q := quaternion.Quaternion{W: w, X: x, Y: y, Z: z}
	f := quaternion.Quaternion{X: v[0], Y: v[1], Z: v[2]}
	b := quaternion.Prod(q.Conj(), f, q)
	return [3]float64{b.X, b.Y, b.Z}
}

// IMU synthesizes one inertial reading. The accelerometer measures specific
// force, so the world gravity vector is subtracted before rotating into the
// body frame. Raw readings carry the negative of the configured bias; the
// filter's bias estimate should converge to the positive value.
func (s *Sensors) IMU(tr Truth) pose.IMUSample {
	specific := [3]float64{
		tr.Acceleration[0],
		tr.Acceleration[1],
		tr.Acceleration[2] - pose.DefaultGravity,
	}
	accel := body(tr, specific)
	var out pose.IMUSample
	for i := 0; i < 3; i++ {
		out.Acceleration[i] = accel[i] - s.cfg.AccelBias[i] + s.noise(s.cfg.AccelNoise)
		out.Rate[i] = tr.Rate[i] - s.cfg.GyroBias[i] + s.noise(s.cfg.GyroNoise)
	}
	return out
}

// GPS synthesizes one geodetic fix with north/east velocity.
func (s *Sensors) GPS(tr Truth) (pose.Update, error) {
	lat, lon, err := s.ref.ToWGS84(
		tr.Position[0]+s.noise(s.cfg.GPSNoise),
		tr.Position[1]+s.noise(s.cfg.GPSNoise))
	if err != nil {
		return pose.Update{}, err
	}
	vn, ve := s.ref.ToNorthEast(tr.Velocity[0], tr.Velocity[1])
	return pose.NewUpdate(lat, lon,
		vn+s.noise(s.cfg.GPSVelNoise),
		ve+s.noise(s.cfg.GPSVelNoise)), nil
}

// Height synthesizes one absolute altitude reading.
func (s *Sensors) Height(tr Truth) pose.Update {
	return pose.NewUpdate(s.cfg.OriginAlt + tr.Position[2] + s.noise(s.cfg.HeightNoise))
}

// Magnetic synthesizes one 3-axis magnetometer reading.
func (s *Sensors) Magnetic(tr Truth) pose.Update {
	b := body(tr, s.field)
	return pose.NewUpdate(
		b[0]+s.noise(s.cfg.MagNoise),
		b[1]+s.noise(s.cfg.MagNoise),
		b[2]+s.noise(s.cfg.MagNoise))
}
