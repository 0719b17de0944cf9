// Package positioning turns one transit feed snapshot into a strip frame.
//
// A cycle rebuilds the reference tables from the snapshot, estimates a
// candidate pixel for every vehicle, smooths it against the pixel the same
// trip was drawn at last cycle, resolves pixels claimed by more than one
// vehicle, and commits the finished frame. Only the furthest-pixel-per-trip
// table survives from one cycle to the next.
package positioning

// Snapshot is one feed response as seen by the estimator.
type Snapshot struct {
	// Timestamp identifies the feed refresh. Cycles whose timestamp equals
	// the last committed one are skipped.
	Timestamp int64

	// References is nil when the feed response had no readable reference
	// section.
	References *References

	Vehicles []VehicleStatus
}

// References is the lookup section of a snapshot. A nil slice means the
// field was missing from the response; an empty slice is valid.
type References struct {
	Stops []StopRef
	Trips []TripRef
}

type StopRef struct {
	ID   string
	Name string
}

type TripRef struct {
	ID string
	// DirectionID is the raw feed value: "0" southbound, "1" northbound.
	DirectionID string
}

// VehicleStatus is one vehicle's realtime status.
type VehicleStatus struct {
	TripID     string
	NextStopID string
	// NextStopOffset is the number of seconds until the next stop. Zero
	// means the vehicle is at the stop.
	NextStopOffset int
	// Schedule is the trip's stop times, only consulted to fill the travel
	// time table.
	Schedule []ScheduledStop
}

// ScheduledStop is one stop time, in seconds since the service day began.
type ScheduledStop struct {
	StopID        string
	ArrivalTime   int64
	DepartureTime int64
}
