package pose

import "math"

// WGS84 ellipsoid.
const (
	wgs84EquatorialRadius = 6378137.0
	wgs84Flattening       = 1.0 / 298.257223563
)

// GlobalReference anchors the filter's local Cartesian frame in geodetic
// coordinates. Latitude, longitude and heading are stored in radians,
// altitude in meters. The anchor is mutated only from measurement
// beforeUpdate hooks and survives filter resets.
type GlobalReference struct {
	latitude  float64
	longitude float64
	altitude  float64

	heading    float64
	sinHeading float64
	cosHeading float64

	radiusNorth float64
	radiusEast  float64

	hasPosition bool
	hasAltitude bool
	hasHeading  bool
}

func NewGlobalReference() *GlobalReference {
	r := &GlobalReference{}
	r.Reset()
	return r
}

// Reset forgets the anchor entirely.
func (r *GlobalReference) Reset() {
	*r = GlobalReference{cosHeading: 1}
}

func (r *GlobalReference) HasPosition() bool { return r.hasPosition }
func (r *GlobalReference) HasAltitude() bool { return r.hasAltitude }
func (r *GlobalReference) HasHeading() bool  { return r.hasHeading }

// Position returns the anchor latitude and longitude in radians.
func (r *GlobalReference) Position() (lat, lon float64) { return r.latitude, r.longitude }

func (r *GlobalReference) Altitude() float64 { return r.altitude }
func (r *GlobalReference) Heading() float64  { return r.heading }

// Radii returns the meridional and normal curvature radii at the anchor
// latitude, scaled so that north = radiusNorth·Δlat and east = radiusEast·Δlon.
func (r *GlobalReference) Radii() (north, east float64) { return r.radiusNorth, r.radiusEast }

// SetPosition overwrites the anchor position and recomputes the local
// curvature radii.
func (r *GlobalReference) SetPosition(lat, lon float64) {
	r.latitude, r.longitude = lat, lon
	r.hasPosition = true
	r.updateRadii()
}

// SetHeading overwrites the yaw offset between the local x axis and true
// north.
func (r *GlobalReference) SetHeading(heading float64) {
	r.heading = heading
	r.sinHeading = math.Sin(heading)
	r.cosHeading = math.Cos(heading)
	r.hasHeading = true
}

func (r *GlobalReference) SetAltitude(altitude float64) {
	r.altitude = altitude
	r.hasAltitude = true
}

func (r *GlobalReference) updateRadii() {
	e2 := wgs84Flattening * (2 - wgs84Flattening)
	sinLat := math.Sin(r.latitude)
	temp := 1 / (1 - e2*sinLat*sinLat)
	primeVertical := wgs84EquatorialRadius * math.Sqrt(temp)
	r.radiusNorth = primeVertical * (1 - e2) * temp
	r.radiusEast = primeVertical * math.Cos(r.latitude)
}

// FromNorthEast rotates a north/east pair into the local frame. The rotation
// matrix is its own inverse, so the same function maps local x/y back to
// north/east.
func (r *GlobalReference) FromNorthEast(north, east float64) (x, y float64) {
	return north*r.cosHeading + east*r.sinHeading, north*r.sinHeading - east*r.cosHeading
}

// ToNorthEast maps local x/y to north/east.
func (r *GlobalReference) ToNorthEast(x, y float64) (north, east float64) {
	return r.FromNorthEast(x, y)
}

// FromWGS84 projects a geodetic position onto the local tangent plane around
// the anchor.
func (r *GlobalReference) FromWGS84(lat, lon float64) (x, y float64, err error) {
	if !r.hasPosition {
		return 0, 0, ErrNoReference
	}
	north := r.radiusNorth * (lat - r.latitude)
	east := r.radiusEast * (lon - r.longitude)
	x, y = r.FromNorthEast(north, east)
	return x, y, nil
}

// ToWGS84 maps a local position back to geodetic coordinates.
func (r *GlobalReference) ToWGS84(x, y float64) (lat, lon float64, err error) {
	if !r.hasPosition {
		return 0, 0, ErrNoReference
	}
	if r.radiusNorth == 0 || r.radiusEast == 0 {
		return 0, 0, nil
	}
	north, east := r.ToNorthEast(x, y)
	return r.latitude + north/r.radiusNorth, r.longitude + east/r.radiusEast, nil
}
