package pose

import (
	"log"
	"strings"
)

// Status is a bitmask describing which physical quantities the filter is
// currently estimating or observing. The system status tracks what the
// process model propagates; the measurement status tracks what the sensors
// currently provide.
type Status uint32

const (
	StatusAlignment Status = 1 << iota
	StatusDegraded
	StatusReady
	StatusRollPitch
	StatusYaw
	StatusRateXY
	StatusRateZ
	StatusVelocityXY
	StatusVelocityZ
	StatusPositionXY
	StatusPositionZ
)

// StatusEstimation covers every observability flag, excluding the
// alignment/degraded/ready mode bits.
const StatusEstimation = StatusRollPitch | StatusYaw | StatusRateXY | StatusRateZ |
	StatusVelocityXY | StatusVelocityZ | StatusPositionXY | StatusPositionZ

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusAlignment, "ALIGNMENT"},
	{StatusDegraded, "DEGRADED"},
	{StatusReady, "READY"},
	{StatusRollPitch, "ROLLPITCH"},
	{StatusYaw, "YAW"},
	{StatusRateXY, "RATE_XY"},
	{StatusRateZ, "RATE_Z"},
	{StatusVelocityXY, "VELOCITY_XY"},
	{StatusVelocityZ, "VELOCITY_Z"},
	{StatusPositionXY, "POSITION_XY"},
	{StatusPositionZ, "POSITION_Z"},
}

// Has reports whether any of the flags in test are set.
func (f Status) Has(test Status) bool { return f&test != 0 }

// HasAll reports whether every flag in test is set.
func (f Status) HasAll(test Status) bool { return f&test == test }

func (f Status) String() string {
	if f == 0 {
		return "NONE"
	}
	var names []string
	for _, s := range statusNames {
		if f&s.flag != 0 {
			names = append(names, s.name)
		}
	}
	return strings.Join(names, ",")
}

func logStatusChange(what string, old, new Status) {
	if set := new &^ old; set != 0 {
		log.Printf("pose: %s set %v", what, set)
	}
	if cleared := old &^ new; cleared != 0 {
		log.Printf("pose: %s cleared %v", what, cleared)
	}
}
