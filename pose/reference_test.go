package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceRequiresAnchor(t *testing.T) {
	r := NewGlobalReference()
	assert.False(t, r.HasPosition())

	_, _, err := r.FromWGS84(49*Deg, 8.4*Deg)
	assert.ErrorIs(t, err, ErrNoReference)
	_, _, err = r.ToWGS84(10, 10)
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestReferenceRoundTrip(t *testing.T) {
	r := NewGlobalReference()
	r.SetPosition(49.0*Deg, 8.4*Deg)
	r.SetHeading(30 * Deg)

	lat, lon, err := r.ToWGS84(120, -45)
	assert.NoError(t, err)
	x, y, err := r.FromWGS84(lat, lon)
	assert.NoError(t, err)
	assert.InDelta(t, 120, x, 1e-6)
	assert.InDelta(t, -45, y, 1e-6)
}

func TestReferenceRadii(t *testing.T) {
	r := NewGlobalReference()
	r.SetPosition(0, 0)
	north, east := r.Radii()
	// At the equator the east radius equals the equatorial radius and the
	// meridional radius is smaller.
	assert.InDelta(t, 6378137.0, east, 1)
	assert.InDelta(t, 6335439.3, north, 1)

	r.SetPosition(90*Deg, 0)
	_, east = r.Radii()
	assert.InDelta(t, 0, east, 1)
}

func TestReferenceNorthEastSelfInverse(t *testing.T) {
	r := NewGlobalReference()
	r.SetHeading(72 * Deg)
	x, y := r.FromNorthEast(3, -7)
	n, e := r.FromNorthEast(x, y)
	assert.InDelta(t, 3, n, 1e-12)
	assert.InDelta(t, -7, e, 1e-12)
}

func TestReferenceHeadingRotation(t *testing.T) {
	r := NewGlobalReference()
	r.SetHeading(90 * Deg)
	// With the anchor heading at 90 degrees, north maps onto local y and
	// east onto local x.
	x, y := r.FromNorthEast(1, 0)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 1, y, 1e-12)
	x, y = r.FromNorthEast(0, 1)
	assert.InDelta(t, 1, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)
}

func TestReferenceResetForgetsAnchor(t *testing.T) {
	r := NewGlobalReference()
	r.SetPosition(49*Deg, 8.4*Deg)
	r.SetAltitude(115)
	r.SetHeading(1)
	r.Reset()
	assert.False(t, r.HasPosition())
	assert.False(t, r.HasAltitude())
	assert.False(t, r.HasHeading())
	// Identity heading after reset.
	x, y := r.FromNorthEast(1, 2)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, -2.0, y)

	_, _, err := r.ToWGS84(0, 0)
	assert.ErrorIs(t, err, ErrNoReference)
}
