package pose

import (
	"log"
	"math"
	"testing"
)

// numericalJacobian differentiates a model's expected value with respect to
// the raw state vector by central differences.
func numericalJacobian(model MeasurementModel, s *State) [][]float64 {
	const h = 1e-7
	dim := model.Dimension()
	out := make([][]float64, dim)
	for i := range out {
		out[i] = make([]float64, StateDim)
	}
	x0 := s.Vector()
	for j := 0; j < StateDim; j++ {
		s.x[j] = x0[j] + h
		plus := model.ExpectedValue(s)
		s.x[j] = x0[j] - h
		minus := model.ExpectedValue(s)
		s.x[j] = x0[j]
		for i := 0; i < dim; i++ {
			out[i][j] = (plus[i] - minus[i]) / (2 * h)
		}
	}
	return out
}

func checkJacobian(t *testing.T, model MeasurementModel, s *State, tol float64) {
	t.Helper()
	c := model.Jacobian(s)
	num := numericalJacobian(model, s)
	for i := 0; i < model.Dimension(); i++ {
		for j := 0; j < StateDim; j++ {
			if math.Abs(c.Get(i, j)-num[i][j]) > tol {
				log.Printf("jacobian (%d,%d): analytic %v, numerical %v", i, j, c.Get(i, j), num[i][j])
				t.Fail()
			}
		}
	}
}

func TestGravityExpectedValue(t *testing.T) {
	cfg := DefaultSystemConfig()
	model := NewGravityModel(DefaultGravityConfig(), cfg.Gravity)
	s := NewState()

	// Level: the accelerometer reads the upward gravity reaction.
	y := model.ExpectedValue(s)
	if math.Abs(y[0]) > 1e-12 || math.Abs(y[1]) > 1e-12 || math.Abs(y[2]-9.8065) > 1e-12 {
		log.Printf("level gravity: %v", y)
		t.Fail()
	}

	// Tilted: the expected reading is the world reaction rotated into the
	// body frame.
	s.SetOrientation(ToQuaternion(30*Deg, -15*Deg, 50*Deg))
	r := s.rotation()
	y = model.ExpectedValue(s)
	for i, want := range []float64{r[2][0] * 9.8065, r[2][1] * 9.8065, r[2][2] * 9.8065} {
		if math.Abs(y[i]-want) > 1e-9 {
			log.Printf("tilted gravity %d: %v, want %v", i, y[i], want)
			t.Fail()
		}
	}
}

func TestGravityJacobian(t *testing.T) {
	cfg := DefaultSystemConfig()
	model := NewGravityModel(DefaultGravityConfig(), cfg.Gravity)
	s := NewState()
	s.SetOrientation(ToQuaternion(25*Deg, 40*Deg, -70*Deg))
	checkJacobian(t, model, s, 1e-5)
}

func TestGravityMasksOffWhenObserved(t *testing.T) {
	model := NewGravityModel(DefaultGravityConfig(), DefaultGravity)
	if !model.ActiveFor(StatusDegraded) {
		t.Fatal("gravity inactive without roll/pitch observability")
	}
	if model.ActiveFor(StatusReady | StatusRollPitch) {
		t.Fatal("gravity active although roll/pitch already observed")
	}
}

func TestRateModelExpectedAndJacobian(t *testing.T) {
	model := NewRateModel(DefaultRateConfig())
	s := NewState()
	s.x[stateRateX], s.x[stateRateY], s.x[stateRateZ] = 0.4, -0.2, 0.1
	s.x[stateGyroBiasX], s.x[stateGyroBiasY], s.x[stateGyroBiasZ] = 0.03, -0.01, 0.02

	// The raw reading observes rate minus bias.
	y := model.ExpectedValue(s)
	for i, want := range []float64{0.37, -0.19, 0.08} {
		if math.Abs(y[i]-want) > 1e-12 {
			log.Printf("expected rate %d: %v, want %v", i, y[i], want)
			t.Fail()
		}
	}
	checkJacobian(t, model, s, 1e-9)
}

func TestZeroRateModel(t *testing.T) {
	model := NewZeroRateModel(DefaultZeroRateConfig())
	s := NewState()
	s.x[stateGyroBiasZ] = 0.05

	if got := model.ExpectedValue(s)[0]; math.Abs(got+0.05) > 1e-12 {
		log.Printf("zero rate expected: %v", got)
		t.Fail()
	}
	checkJacobian(t, model, s, 1e-9)

	if !model.ActiveFor(StatusDegraded) || model.ActiveFor(StatusYaw) {
		t.Fail()
	}
}

func TestHeadingModel(t *testing.T) {
	model := NewHeadingModel(DefaultHeadingConfig())
	s := NewState()
	s.SetOrientation(ToQuaternion(5*Deg, -10*Deg, 170*Deg))

	if got := model.ExpectedValue(s)[0]; math.Abs(got-170*Deg) > 1e-9 {
		log.Printf("expected yaw: %v deg", got/Deg)
		t.Fail()
	}
	checkJacobian(t, model, s, 1e-5)

	// A measurement across the ±180 degree seam unwraps to the nearest
	// branch of the prediction.
	y := model.MeasurementVector(NewUpdate(-170*Deg), s)
	if math.Abs(y[0]-190*Deg) > 1e-9 {
		log.Printf("unwrapped heading: %v deg", y[0]/Deg)
		t.Fail()
	}

	if model.ActiveFor(StatusYaw) {
		t.Fatal("heading active although yaw already observed")
	}
}
