package pose

import "math"

// ToQuaternion calculates the w,x,y,z components of the rotation quaternion
// corresponding to the roll, pitch, yaw angles (ZYX convention, x forward,
// z up).
func ToQuaternion(roll, pitch, yaw float64) (w, x, y, z float64) {
	cr := math.Cos(roll / 2)
	sr := math.Sin(roll / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	cy := math.Cos(yaw / 2)
	sy := math.Sin(yaw / 2)

	w = cr*cp*cy + sr*sp*sy
	x = sr*cp*cy - cr*sp*sy
	y = cr*sp*cy + sr*cp*sy
	z = cr*cp*sy - sr*sp*cy
	return
}

// FromQuaternion calculates the roll, pitch, yaw angles corresponding to the
// unit quaternion.
func FromQuaternion(w, x, y, z float64) (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(y*z+w*x), w*w-x*x-y*y+z*z)
	sp := 2 * (w*y - x*z)
	if sp > 1 {
		sp = 1
	}
	if sp < -1 {
		sp = -1
	}
	pitch = math.Asin(sp)
	yaw = math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)
	return
}

// VarFromQuaternion returns the linearized standard deviation of the roll,
// pitch, yaw angles corresponding to the quaternion w,x,y,z with stdev
// dw, dx, dy, dz.
func VarFromQuaternion(w, x, y, z, dw, dx, dy, dz float64) (droll, dpitch, dyaw float64) {
	var uu, vv, denom float64

	uu = 2 * (y*z + w*x)
	vv = w*w - x*x - y*y + z*z
	denom = uu*uu + vv*vv
	drolldw := 2 * (x*vv - w*uu) / denom
	drolldx := 2 * (w*vv + x*uu) / denom
	drolldy := 2 * (z*vv + y*uu) / denom
	drolldz := 2 * (y*vv - z*uu) / denom

	uu = 2 * (w*y - x*z)
	vv = 1 / math.Sqrt(1-uu*uu)
	dpitchdw := 2 * y * vv
	dpitchdx := -2 * z * vv
	dpitchdy := 2 * w * vv
	dpitchdz := -2 * x * vv

	uu = 2 * (x*y + w*z)
	vv = w*w + x*x - y*y - z*z
	denom = uu*uu + vv*vv
	dyawdw := 2 * (z*vv - w*uu) / denom
	dyawdx := 2 * (y*vv - x*uu) / denom
	dyawdy := 2 * (x*vv + y*uu) / denom
	dyawdz := 2 * (w*vv + z*uu) / denom

	return drolldw*dw + drolldx*dx + drolldy*dy + drolldz*dz,
		dpitchdw*dw + dpitchdx*dx + dpitchdy*dy + dpitchdz*dz,
		dyawdw*dw + dyawdx*dx + dyawdy*dy + dyawdz*dz
}
