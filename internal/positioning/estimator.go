package positioning

import (
	"fmt"

	"github.com/cbmason/trainspotting/internal/strip"
)

// Ratio thresholds for placing an approaching vehicle. Below atStopRatio
// the vehicle is drawn on the station pixel, below nearStopRatio one pixel
// short of it, otherwise two pixels short.
const (
	atStopRatio   = 0.1
	nearStopRatio = 0.6
)

// Tables are the reference tables for one cycle.
type Tables struct {
	Stops       StopTable
	Trips       TripDirectionTable
	TravelTimes TravelTimeTable
}

// Estimate is a vehicle's candidate position before smoothing.
type Estimate struct {
	TripID    string
	Direction strip.Direction
	StopName  string
	Index     int
	AtStop    bool
	Ratio     float64
}

// EstimatePosition computes the candidate pixel for one vehicle. It only
// mutates tables.TravelTimes, and only to fill it from the vehicle's own
// schedule.
func EstimatePosition(layout *strip.Layout, status VehicleStatus, tables Tables) (Estimate, error) {
	dir, ok := tables.Trips[status.TripID]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: trip %s", ErrUnresolvedTrip, status.TripID)
	}

	name, ok := tables.Stops[status.NextStopID]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: stop %s", ErrUnresolvedStop, status.NextStopID)
	}

	stopIndex, ok := layout.Table(dir)[name]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %q (%s)", ErrStopNotOnLayout, name, dir)
	}

	est := Estimate{
		TripID:    status.TripID,
		Direction: dir,
		StopName:  name,
		Index:     stopIndex,
		AtStop:    status.NextStopOffset == 0,
	}
	if est.AtStop {
		return est, nil
	}

	travel, err := tables.TravelTimes.Resolve(status.NextStopID, status.Schedule)
	if err != nil {
		return Estimate{}, err
	}

	est.Ratio = float64(status.NextStopOffset) / float64(travel)
	switch {
	case est.Ratio < atStopRatio:
	case est.Ratio < nearStopRatio:
		est.Index = stopIndex - 1
	default:
		est.Index = stopIndex - 2
	}

	if !layout.InRange(est.Index) {
		return Estimate{}, fmt.Errorf("%w: index %d for trip %s", ErrOutOfRange, est.Index, status.TripID)
	}
	return est, nil
}
