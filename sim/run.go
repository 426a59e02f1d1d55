package sim

import (
	"math"

	"github.com/roversense/posekf/pose"
)

// Config ties together the estimator under test, the simulated sensor suite
// and the rates at which each sensor delivers. An interval of zero disables
// that sensor.
type Config struct {
	IMUInterval      float64
	GPSInterval      float64
	HeightInterval   float64
	MagneticInterval float64

	Estimator pose.EstimatorConfig
	GPS       pose.GPSConfig
	Height    pose.HeightConfig
	Sensors   SensorConfig
}

// DefaultConfig pairs the sensor suite with an estimator tuning that actually
// tracks it: enough position and velocity process noise that the absolute
// fixes carry weight between samples.
func DefaultConfig() Config {
	est := pose.DefaultEstimatorConfig()
	est.System.VelocityStdDev = 0.5
	est.System.Accelerometer.StdDev = 0.1
	return Config{
		IMUInterval:      0.01,
		GPSInterval:      1.0,
		HeightInterval:   0.1,
		MagneticInterval: 0.1,
		Estimator:        est,
		GPS:              pose.GPSConfig{PositionStdDev: 1, VelocityStdDev: 0.1},
		Height:           pose.HeightConfig{StdDev: 0.5, AutoElevation: true},
		Sensors:          DefaultSensorConfig(),
	}
}

// Result summarizes one run. The error maxima are taken over the steps where
// the filter reported READY.
type Result struct {
	Steps              int
	Ready              bool
	MaxPositionError   float64
	MaxRollPitchError  float64
	MaxYawError        float64
	FinalPositionError float64
}

func angleError(a, b float64) float64 {
	d := math.Mod(a-b, 2*pose.Pi)
	if d > pose.Pi {
		d -= 2 * pose.Pi
	}
	if d < -pose.Pi {
		d += 2 * pose.Pi
	}
	return math.Abs(d)
}

// Run drives a freshly built estimator through the scenario and compares its
// output against ground truth. The logger may be nil.
func Run(sc Scenario, cfg Config, lg *Logger) (Result, error) {
	sensors := NewSensors(cfg.Sensors)
	e := pose.NewEstimator(cfg.Estimator)

	if cfg.GPSInterval > 0 {
		if _, err := e.AddMeasurement("gps", pose.NewGPSModel(cfg.GPS)); err != nil {
			return Result{}, err
		}
	}
	if cfg.HeightInterval > 0 {
		if _, err := e.AddMeasurement("height", pose.NewHeightModel(cfg.Height)); err != nil {
			return Result{}, err
		}
	}
	if cfg.MagneticInterval > 0 {
		magCfg := pose.DefaultMagneticConfig()
		magCfg.Declination = cfg.Sensors.Declination
		magCfg.Inclination = cfg.Sensors.Inclination
		magCfg.Magnitude = cfg.Sensors.Magnitude
		if _, err := e.AddMeasurement("magnetic", pose.NewMagneticModel(magCfg)); err != nil {
			return Result{}, err
		}
	}

	var res Result
	dt := cfg.IMUInterval
	nextGPS, nextHeight, nextMag := sc.BeginTime(), sc.BeginTime(), sc.BeginTime()

	for i := 0; ; i++ {
		t := sc.BeginTime() + float64(i)*dt
		if t > sc.EndTime() {
			break
		}
		truth, err := sc.Truth(t)
		if err != nil {
			return res, err
		}

		if err := e.Predict(sensors.IMU(truth), dt); err != nil {
			return res, err
		}
		if cfg.GPSInterval > 0 && t >= nextGPS {
			u, err := sensors.GPS(truth)
			if err != nil {
				return res, err
			}
			if err := e.Correct("gps", u); err != nil {
				return res, err
			}
			nextGPS += cfg.GPSInterval
		}
		if cfg.HeightInterval > 0 && t >= nextHeight {
			if err := e.Correct("height", sensors.Height(truth)); err != nil {
				return res, err
			}
			nextHeight += cfg.HeightInterval
		}
		if cfg.MagneticInterval > 0 && t >= nextMag {
			if err := e.Correct("magnetic", sensors.Magnetic(truth)); err != nil {
				return res, err
			}
			nextMag += cfg.MagneticInterval
		}

		res.Steps++
		px, py, pz := e.Position()
		roll, pitch, yaw := e.RollPitchYaw()
		posErr := math.Sqrt(
			(px-truth.Position[0])*(px-truth.Position[0]) +
				(py-truth.Position[1])*(py-truth.Position[1]) +
				(pz-truth.Position[2])*(pz-truth.Position[2]))
		res.FinalPositionError = posErr

		if e.SystemStatus().Has(pose.StatusReady) {
			res.Ready = true
			if posErr > res.MaxPositionError {
				res.MaxPositionError = posErr
			}
			if d := angleError(roll, truth.Roll); d > res.MaxRollPitchError {
				res.MaxRollPitchError = d
			}
			if d := angleError(pitch, truth.Pitch); d > res.MaxRollPitchError {
				res.MaxRollPitchError = d
			}
			if d := angleError(yaw, truth.Yaw); d > res.MaxYawError {
				res.MaxYawError = d
			}
		}

		lg.Log(t,
			truth.Position[0], truth.Position[1], truth.Position[2],
			truth.Roll, truth.Pitch, truth.Yaw,
			px, py, pz, roll, pitch, yaw)
	}
	return res, nil
}

// LogColumns is the column order Run writes through its Logger.
var LogColumns = []string{
	"t",
	"x", "y", "z", "roll", "pitch", "yaw",
	"xEst", "yEst", "zEst", "rollEst", "pitchEst", "yawEst",
}
