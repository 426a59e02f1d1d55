package pose

import (
	"log"
	"math"
	"testing"

	"github.com/westphae/quaternion"
)

const angleEps = 1e-9

func TestRollPitchYawRoundTrip(t *testing.T) {
	rolls := []float64{-120, -45, -0.1, 0, 0.1, 30, 150}
	pitches := []float64{-80, -15, 0, 10, 45, 80}
	yaws := []float64{-170, -90, 0, 0.5, 90, 135}

	for _, roll := range rolls {
		for _, pitch := range pitches {
			for _, yaw := range yaws {
				w, x, y, z := ToQuaternion(roll*Deg, pitch*Deg, yaw*Deg)
				if n := w*w + x*x + y*y + z*z; math.Abs(n-1) > angleEps {
					log.Printf("quaternion for %v/%v/%v not unit: %v", roll, pitch, yaw, n)
					t.Fail()
				}
				r, p, q := FromQuaternion(w, x, y, z)
				if math.Abs(r-roll*Deg) > 1e-6 || math.Abs(p-pitch*Deg) > 1e-6 || math.Abs(q-yaw*Deg) > 1e-6 {
					log.Printf("round trip %v/%v/%v gave %v/%v/%v",
						roll, pitch, yaw, r/Deg, p/Deg, q/Deg)
					t.Fail()
				}
			}
		}
	}
}

// The rotation matrix derived from the state quaternion must agree with the
// quaternion sandwich product.
func TestRotationMatrixMatchesQuaternionProduct(t *testing.T) {
	s := NewState()
	w, x, y, z := ToQuaternion(30*Deg, -20*Deg, 75*Deg)
	s.SetOrientation(w, x, y, z)
	r := s.rotation()

	q := quaternion.Quaternion{W: w, X: x, Y: y, Z: z}
	axes := [3]quaternion.Quaternion{{X: 1}, {Y: 1}, {Z: 1}}
	for j, axis := range axes {
		world := quaternion.Prod(q, axis, q.Conj())
		got := [3]float64{world.X, world.Y, world.Z}
		want := [3]float64{r[0][j], r[1][j], r[2][j]}
		for i := 0; i < 3; i++ {
			if math.Abs(got[i]-want[i]) > 1e-9 {
				log.Printf("rotation column %d row %d: matrix %v, quaternion %v", j, i, want[i], got[i])
				t.Fail()
			}
		}
	}
}

func TestVarFromQuaternionMatchesPerturbation(t *testing.T) {
	w, x, y, z := ToQuaternion(10*Deg, -5*Deg, 40*Deg)
	const h = 1e-6

	droll, dpitch, dyaw := VarFromQuaternion(w, x, y, z, h, 0, 0, 0)
	r0, p0, y0 := FromQuaternion(w, x, y, z)
	r1, p1, y1 := FromQuaternion(w+h, x, y, z)
	if math.Abs((r1-r0)-droll) > 1e-9 || math.Abs((p1-p0)-dpitch) > 1e-9 || math.Abs((y1-y0)-dyaw) > 1e-9 {
		log.Printf("dw perturbation: got %v/%v/%v, want %v/%v/%v",
			r1-r0, p1-p0, y1-y0, droll, dpitch, dyaw)
		t.Fail()
	}

	droll, dpitch, dyaw = VarFromQuaternion(w, x, y, z, 0, 0, h, 0)
	r1, p1, y1 = FromQuaternion(w, x, y+h, z)
	if math.Abs((r1-r0)-droll) > 1e-9 || math.Abs((p1-p0)-dpitch) > 1e-9 || math.Abs((y1-y0)-dyaw) > 1e-9 {
		log.Printf("dy perturbation: got %v/%v/%v, want %v/%v/%v",
			r1-r0, p1-p0, y1-y0, droll, dpitch, dyaw)
		t.Fail()
	}
}
