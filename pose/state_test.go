package pose

import (
	"log"
	"math"
	"testing"

	"github.com/skelterjohn/go.matrix"
)

func TestStateResetSeedsIdentityOrientation(t *testing.T) {
	s := NewState()
	s.SetOrientation(ToQuaternion(20*Deg, -10*Deg, 130*Deg))
	s.SetPosition(4, -2, 1.5)
	s.SetSystemStatus(StatusReady | StatusRollPitch)

	s.Reset()
	w, x, y, z := s.Orientation()
	if w != 1 || x != 0 || y != 0 || z != 0 {
		log.Printf("orientation after reset: %v/%v/%v/%v", w, x, y, z)
		t.Fail()
	}
	if px, py, pz := s.Position(); px != 0 || py != 0 || pz != 0 {
		log.Printf("position after reset: %v/%v/%v", px, py, pz)
		t.Fail()
	}
	if s.SystemStatus() != 0 || s.MeasurementStatus() != 0 {
		log.Printf("status after reset: %v / %v", s.SystemStatus(), s.MeasurementStatus())
		t.Fail()
	}
}

func TestInactiveBlockHoldsLastEstimate(t *testing.T) {
	s := NewState()
	s.x[stateVelX] = 1.5
	s.Deactivate(BlockVelocity)
	if s.Active(BlockVelocity) {
		t.Fatal("velocity block still active after Deactivate")
	}

	var dx [StateDim]float64
	for i := range dx {
		dx[i] = 1
	}
	s.integrate(dx, 0.1)
	if vx, _, _ := s.Velocity(); vx != 1.5 {
		log.Printf("inactive velocity moved during integrate: %v", vx)
		t.Fail()
	}
	if px, _, _ := s.Position(); math.Abs(px-0.1) > 1e-12 {
		log.Printf("active position did not move: %v", px)
		t.Fail()
	}

	corr := matrix.Zeros(StateDim, 1)
	for i := 0; i < StateDim; i++ {
		corr.Set(i, 0, 0.5)
	}
	s.applyCorrection(corr)
	if vx, _, _ := s.Velocity(); vx != 1.5 {
		log.Printf("inactive velocity moved during correction: %v", vx)
		t.Fail()
	}

	s.Activate(BlockVelocity)
	s.Reset()
	if !s.Active(BlockVelocity) {
		t.Fatal("activity gate did not survive reset")
	}
}

func TestNormalizeRecoversDegenerateQuaternion(t *testing.T) {
	s := NewState()
	s.x[stateQW], s.x[stateQX], s.x[stateQY], s.x[stateQZ] = 3, 0, 4, 0
	s.Normalize()
	w, _, y, _ := s.Orientation()
	if math.Abs(w-0.6) > 1e-12 || math.Abs(y-0.8) > 1e-12 {
		log.Printf("normalize gave %v/%v", w, y)
		t.Fail()
	}

	s.x[stateQW], s.x[stateQX], s.x[stateQY], s.x[stateQZ] = 0, 0, 0, 0
	s.Normalize()
	if w, x, y, z := s.Orientation(); w != 1 || x != 0 || y != 0 || z != 0 {
		log.Printf("zero quaternion not recovered: %v/%v/%v/%v", w, x, y, z)
		t.Fail()
	}
}

func TestSystemStatusCallbackVeto(t *testing.T) {
	s := NewState()
	allow := true
	s.AddSystemStatusCallback(func(Status) bool { return allow })

	if !s.SetSystemStatus(StatusDegraded) {
		t.Fatal("allowed status change rejected")
	}
	allow = false
	if s.SetSystemStatus(StatusReady) {
		t.Fatal("vetoed status change applied")
	}
	if s.SystemStatus() != StatusDegraded {
		log.Printf("status after veto: %v", s.SystemStatus())
		t.Fail()
	}
	// A no-op change never consults the callbacks.
	if !s.SetSystemStatus(StatusDegraded) {
		t.Fatal("no-op status change rejected")
	}
}

func TestUpdateStatusMasks(t *testing.T) {
	s := NewState()
	s.SetSystemStatus(StatusDegraded | StatusRollPitch)
	s.UpdateSystemStatus(StatusReady, StatusDegraded)
	if s.SystemStatus() != StatusReady|StatusRollPitch {
		log.Printf("system status: %v", s.SystemStatus())
		t.Fail()
	}
	if !s.InSystemStatus(StatusReady | StatusRollPitch) {
		t.Fail()
	}
	if s.InSystemStatus(StatusReady | StatusYaw) {
		t.Fail()
	}

	s.SetMeasurementStatus(StatusPositionXY)
	s.UpdateMeasurementStatus(StatusPositionZ, 0)
	if s.MeasurementStatus() != StatusPositionXY|StatusPositionZ {
		log.Printf("measurement status: %v", s.MeasurementStatus())
		t.Fail()
	}
}

func TestStatusString(t *testing.T) {
	if got := Status(0).String(); got != "NONE" {
		t.Errorf("empty status: %q", got)
	}
	if got := (StatusReady | StatusRollPitch | StatusPositionZ).String(); got != "READY,ROLLPITCH,POSITION_Z" {
		t.Errorf("status string: %q", got)
	}
}

func TestCovarianceAccessorsCopy(t *testing.T) {
	s := NewState()
	p := matrix.Eye(StateDim)
	s.SetCovariance(p)
	p.Set(0, 0, 99)
	if s.Covariance().Get(0, 0) != 1 {
		t.Fatal("SetCovariance aliased the caller's matrix")
	}

	c := s.Covariance()
	c.Set(1, 1, 99)
	if s.Covariance().Get(1, 1) != 1 {
		t.Fatal("Covariance returned the internal matrix")
	}

	b := s.CovarianceBlock(BlockPosition)
	if b.Rows() != 3 || b.Cols() != 3 || b.Get(0, 0) != 1 || b.Get(0, 1) != 0 {
		t.Fatal("position covariance block wrong")
	}
}

func TestStateValid(t *testing.T) {
	s := NewState()
	if !s.Valid() {
		t.Fatal("fresh state invalid")
	}
	s.x[stateVelZ] = math.NaN()
	if s.Valid() {
		t.Fatal("NaN state reported valid")
	}
	s.x[stateVelZ] = math.Inf(1)
	if s.Valid() {
		t.Fatal("Inf state reported valid")
	}
}
