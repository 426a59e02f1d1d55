package sim

import (
	"log"
	"math"
	"testing"

	"github.com/roversense/posekf/pose"
)

func TestScenarioRatesMatchAttitude(t *testing.T) {
	sc := Circuit(10, 1)

	// Mid-turn the body z rate must match the yaw slope of the segment.
	tr, err := sc.Truth(11.0)
	if err != nil {
		t.Fatal(err)
	}
	want := 45 * pose.Deg
	if math.Abs(tr.Rate[2]-want) > 1e-3 {
		log.Printf("turn rate: %v deg/s, want %v", tr.Rate[2]/pose.Deg, want/pose.Deg)
		t.Fail()
	}

	// Mid-leg the robot rolls straight ahead at constant speed.
	tr, err = sc.Truth(5.0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(tr.Rate[2]) > 1e-6 || math.Abs(tr.Velocity[0]-1) > 1e-9 {
		log.Printf("leg rate %v, velocity %v", tr.Rate[2], tr.Velocity[0])
		t.Fail()
	}
}

func TestScenarioOutsideTimeSpan(t *testing.T) {
	sc := Standstill(10)
	if _, err := sc.Truth(-1); err == nil {
		t.Fatal("negative time accepted")
	}
	if _, err := sc.Truth(11); err == nil {
		t.Fatal("time past the end accepted")
	}
}

func TestRunStandstillNoiseless(t *testing.T) {
	res, err := Run(Standstill(20), DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ready {
		t.Fatal("filter never reached READY")
	}
	if res.MaxPositionError > 0.1 {
		log.Printf("position error at standstill: %v", res.MaxPositionError)
		t.Fail()
	}
	if res.MaxRollPitchError > 1*pose.Deg || res.MaxYawError > 1*pose.Deg {
		log.Printf("attitude error at standstill: %v / %v deg",
			res.MaxRollPitchError/pose.Deg, res.MaxYawError/pose.Deg)
		t.Fail()
	}
}

func TestRunStandstillNoisy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensors.GyroNoise = 0.5 * pose.Deg
	cfg.Sensors.AccelNoise = 0.05
	cfg.Sensors.GPSNoise = 0.5
	cfg.Sensors.GPSVelNoise = 0.05
	cfg.Sensors.HeightNoise = 0.2
	cfg.Sensors.MagNoise = 0.5
	cfg.Sensors.GyroBias = [3]float64{0.5 * pose.Deg, -0.5 * pose.Deg, 0.3 * pose.Deg}

	res, err := Run(Standstill(60), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ready {
		t.Fatal("filter never reached READY")
	}
	if res.MaxPositionError > 5 {
		log.Printf("position error: %v", res.MaxPositionError)
		t.Fail()
	}
	if res.MaxRollPitchError > 10*pose.Deg {
		log.Printf("roll/pitch error: %v deg", res.MaxRollPitchError/pose.Deg)
		t.Fail()
	}
	if res.MaxYawError > 15*pose.Deg {
		log.Printf("yaw error: %v deg", res.MaxYawError/pose.Deg)
		t.Fail()
	}
}

func TestRunStraightLineConverges(t *testing.T) {
	res, err := Run(StraightLine(1, 30), DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ready {
		t.Fatal("filter never reached READY")
	}
	if res.FinalPositionError > 3 {
		log.Printf("final position error: %v", res.FinalPositionError)
		t.Fail()
	}
}

func TestRunCircuitTracksYaw(t *testing.T) {
	res, err := Run(Circuit(10, 1), DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ready {
		t.Fatal("filter never reached READY")
	}
	if res.MaxYawError > 20*pose.Deg {
		log.Printf("yaw error around circuit: %v deg", res.MaxYawError/pose.Deg)
		t.Fail()
	}
	if res.MaxPositionError > 8 {
		log.Printf("position error around circuit: %v", res.MaxPositionError)
		t.Fail()
	}
}
